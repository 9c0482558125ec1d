package dto

import (
	"strings"

	"github.com/polgen/storebackend/models"
)

type CreateProductDTO struct {
	Name        string  `json:"name"        binding:"required,min=2,max=200"`
	Description string  `json:"description" binding:"max=8000"`
	Price       float64 `json:"price"       binding:"required,gt=0"`
	Stock       int     `json:"stock"       binding:"gte=0"`
	Category    string  `json:"category"    binding:"required,max=100"`
}

// UpdateProductDTO: every field is optional, nil means unchanged.
type UpdateProductDTO struct {
	Name        *string  `json:"name,omitempty"        binding:"omitnil,min=2,max=200"`
	Description *string  `json:"description,omitempty" binding:"omitnil,max=8000"`
	Price       *float64 `json:"price,omitempty"       binding:"omitnil,gt=0"`
	Stock       *int     `json:"stock,omitempty"       binding:"omitnil,gte=0"`
	Category    *string  `json:"category,omitempty"    binding:"omitnil,min=1,max=100"`
}

// ToUpdate converts the request into a store update. A renamed product
// gets a fresh slug via slugFn.
func (d UpdateProductDTO) ToUpdate(slugFn func(string) string) models.ProductUpdate {
	u := models.ProductUpdate{
		Description: d.Description,
		Price:       d.Price,
		Stock:       d.Stock,
	}
	if d.Name != nil {
		name := strings.TrimSpace(*d.Name)
		slug := slugFn(name)
		u.Name = &name
		u.Slug = &slug
	}
	if d.Category != nil {
		cat := strings.TrimSpace(*d.Category)
		u.Category = &cat
	}
	return u
}
