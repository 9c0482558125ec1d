package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Product struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name" json:"name"`
	Slug        string        `bson:"slug" json:"slug"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64       `bson:"price" json:"price"`
	Stock       int           `bson:"stock" json:"stock"`
	Category    string        `bson:"category" json:"category"`
	UserID      bson.ObjectID `bson:"userId" json:"userId"`
	ImageURLs   []string      `bson:"imageUrls" json:"imageUrls"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// OwnedBy reports whether userID created the product.
func (p *Product) OwnedBy(userID bson.ObjectID) bool {
	return !userID.IsZero() && p.UserID == userID
}

// ProductUpdate carries the fields a partial update may change; nil means
// leave as is.
type ProductUpdate struct {
	Name        *string
	Slug        *string
	Description *string
	Price       *float64
	Stock       *int
	Category    *string
}

func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Slug == nil && u.Description == nil &&
		u.Price == nil && u.Stock == nil && u.Category == nil
}

type ProductSort string

const (
	SortByName      ProductSort = "name"
	SortByPriceAsc  ProductSort = "price_asc"
	SortByPriceDesc ProductSort = "price_desc"
	SortByNewest    ProductSort = "newest"
	SortByOldest    ProductSort = "oldest"
)

type ProductFilter struct {
	Category string
	Query    string
	Sort     ProductSort
	Page     int
	Limit    int
}
