package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/polgen/storebackend/apperror"
	"github.com/polgen/storebackend/dto"
	"github.com/polgen/storebackend/logging"
	"github.com/polgen/storebackend/models"
	"github.com/polgen/storebackend/repository"
	"github.com/polgen/storebackend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const productNotFound = "Product not found."

type ProductController struct {
	products  repository.ProductRepository
	images    utils.ImageStore // nil when object storage is not configured
	validator *utils.FileValidator
	maxImages int
	log       logging.Logger
}

func NewProductController(products repository.ProductRepository, images utils.ImageStore, validator *utils.FileValidator, maxImages int, log logging.Logger) *ProductController {
	if maxImages <= 0 {
		maxImages = 4
	}
	return &ProductController{
		products:  products,
		images:    images,
		validator: validator,
		maxImages: maxImages,
		log:       log.With("component", "products"),
	}
}

// GET /products?page=&limit=&category=&q=&sort=
func (p *ProductController) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := utils.Pagination(c.Query("page"), c.Query("limit"), defaultPageSize, maxPageSize)

		items, total, err := p.products.List(c.Request.Context(), models.ProductFilter{
			Category: strings.TrimSpace(c.Query("category")),
			Query:    strings.TrimSpace(c.Query("q")),
			Sort:     models.ProductSort(strings.TrimSpace(c.Query("sort"))),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			_ = c.Error(apperror.NewDependency(err))
			return
		}
		if items == nil {
			items = []models.Product{}
		}
		listResponse(c, items, page, limit, total)
	}
}

// GET /products/:id
func (p *ProductController) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		product, ok := p.load(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// GET /products/slug/:slug
func (p *ProductController) GetBySlug() gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := p.products.FindBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			_ = c.Error(productError(err))
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// POST /products
func (p *ProductController) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		var body dto.CreateProductDTO
		if !bindJSON(c, &body) {
			return
		}

		name := strings.TrimSpace(body.Name)
		slug := utils.GenerateSlug(name)
		if slug == "" {
			_ = c.Error(apperror.NewValidation("name must contain letters or digits"))
			return
		}

		product := &models.Product{
			Name:        name,
			Slug:        slug,
			Description: strings.TrimSpace(body.Description),
			Price:       body.Price,
			Stock:       body.Stock,
			Category:    strings.TrimSpace(body.Category),
			UserID:      user.ID,
			ImageURLs:   []string{},
		}
		if err := p.products.Create(c.Request.Context(), product); err != nil {
			_ = c.Error(productError(err))
			return
		}

		p.log.Info(c.Request.Context(), "product created", "productID", product.ID.Hex(), "userID", user.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{
			"message": "Product added successfully.",
			"product": product,
		})
	}
}

// PUT /products/:id
func (p *ProductController) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		product, ok := p.loadOwned(c)
		if !ok {
			return
		}
		var body dto.UpdateProductDTO
		if !bindJSON(c, &body) {
			return
		}

		upd := body.ToUpdate(utils.GenerateSlug)
		if upd.Empty() {
			_ = c.Error(apperror.NewValidation("No fields to update."))
			return
		}
		if upd.Slug != nil && *upd.Slug == "" {
			_ = c.Error(apperror.NewValidation("name must contain letters or digits"))
			return
		}

		updated, err := p.products.Update(c.Request.Context(), product.ID, upd)
		if err != nil {
			_ = c.Error(productError(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Product updated successfully.",
			"product": updated,
		})
	}
}

// DELETE /products/:id
func (p *ProductController) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		product, ok := p.loadOwned(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		if err := p.products.Delete(ctx, product.ID); err != nil {
			_ = c.Error(productError(err))
			return
		}

		if p.images != nil && len(product.ImageURLs) > 0 {
			if err := p.images.Delete(ctx, product.ImageURLs); err != nil {
				p.log.Warn(ctx, "product images not removed", "productID", product.ID.Hex(), "error", err)
			}
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully."})
	}
}

// POST /products/:id/images (multipart, field "images")
func (p *ProductController) UploadImages() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p.images == nil {
			_ = c.Error(apperror.NewDependency(utils.ErrStorageNotConfigured))
			return
		}
		product, ok := p.loadOwned(c)
		if !ok {
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(p.maxImages)*p.validator.MaxSize()+1<<20)
		form, err := c.MultipartForm()
		if err != nil {
			_ = c.Error(apperror.NewValidation("Invalid multipart form."))
			return
		}
		files := form.File["images"]
		if len(files) == 0 {
			_ = c.Error(apperror.NewValidation("At least one image is required."))
			return
		}
		if len(product.ImageURLs)+len(files) > p.maxImages {
			_ = c.Error(apperror.NewValidation(fmt.Sprintf("A product can have at most %d images.", p.maxImages)))
			return
		}
		for _, fh := range files {
			if _, err := p.validator.ValidateFile(fh); err != nil {
				_ = c.Error(apperror.NewValidation(fmt.Sprintf("%s: %v", fh.Filename, err)))
				return
			}
		}

		ctx := c.Request.Context()
		urls, err := p.images.Upload(ctx, product.Slug, files)
		if err != nil {
			_ = c.Error(apperror.NewDependency(err))
			return
		}

		updated, err := p.products.AddImages(ctx, product.ID, urls)
		if err != nil {
			if derr := p.images.Delete(ctx, urls); derr != nil {
				p.log.Warn(ctx, "orphaned product images", "productID", product.ID.Hex(), "error", derr)
			}
			_ = c.Error(productError(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": updated})
	}
}

func (p *ProductController) load(c *gin.Context) (*models.Product, bool) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		_ = c.Error(apperror.NewNotFound(productNotFound))
		return nil, false
	}
	product, err := p.products.FindByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(productError(err))
		return nil, false
	}
	return product, true
}

// loadOwned loads the product named in the path and checks that the caller
// owns it or is an admin.
func (p *ProductController) loadOwned(c *gin.Context) (*models.Product, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	product, ok := p.load(c)
	if !ok {
		return nil, false
	}
	if !product.OwnedBy(user.ID) && !user.IsAdmin() {
		_ = c.Error(apperror.NewForbidden("Forbidden: You can only modify your own products"))
		return nil, false
	}
	return product, true
}

func productError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NewNotFound(productNotFound)
	case errors.Is(err, repository.ErrDuplicateKey):
		return apperror.NewConflict("A product with this name already exists.")
	default:
		return apperror.NewDependency(err)
	}
}
