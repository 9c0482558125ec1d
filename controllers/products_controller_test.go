package controllers

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/polgen/storebackend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productResponse struct {
	Message string         `json:"message"`
	Product models.Product `json:"product"`
}

type productList struct {
	Items []models.Product `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int64            `json:"total"`
}

func (a *testApp) createProduct(t *testing.T, token, name string, price float64, category string) models.Product {
	t.Helper()
	w := a.do(t, http.MethodPost, "/products", token, map[string]any{
		"name":        name,
		"description": "Solid and dependable.",
		"price":       price,
		"stock":       3,
		"category":    category,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[productResponse](t, w).Product
}

func TestProducts_OwnershipScenario(t *testing.T) {
	a := newTestApp(t)

	// register, duplicate, login
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/register", "", registerBody("owner@polgen.test")).Code)
	require.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/register", "", registerBody("owner@polgen.test")).Code)
	w := a.do(t, http.MethodPost, "/login", "", map[string]string{"email": "owner@polgen.test", "password": "Passw0rd!"})
	require.Equal(t, http.StatusOK, w.Code)
	ownerToken := decode[userResponse](t, w).Token

	_, strangerToken := a.seedUser(t, "stranger", models.RoleUser)
	_, adminToken := a.seedUser(t, "boss", models.RoleAdmin)

	p := a.createProduct(t, ownerToken, "Oak Table", 199.99, "furniture")
	assert.Equal(t, "oak-table", p.Slug)
	assert.Equal(t, 3, p.Stock)
	assert.Empty(t, p.ImageURLs)

	path := "/products/" + p.ID.Hex()

	w = a.do(t, http.MethodPut, path, strangerToken, map[string]any{"price": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodPut, path, ownerToken, map[string]any{"price": 149.5, "name": "Oak Dining Table"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[productResponse](t, w)
	assert.Equal(t, "Product updated successfully.", updated.Message)
	assert.Equal(t, 149.5, updated.Product.Price)
	assert.Equal(t, "oak-dining-table", updated.Product.Slug)
	assert.Equal(t, "furniture", updated.Product.Category)

	w = a.do(t, http.MethodPut, path, adminToken, map[string]any{"stock": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[productResponse](t, w).Product.Stock)

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodDelete, path, strangerToken, nil).Code)
	w = a.do(t, http.MethodDelete, path, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Product deleted successfully."}`, w.Body.String())

	w = a.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found.", errorMessage(t, w))
}

func TestProducts_WritesRequireAuth(t *testing.T) {
	a := newTestApp(t)

	w := a.do(t, http.MethodPost, "/products", "", map[string]any{"name": "Lamp", "price": 10, "category": "home"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized: Missing authorization header", errorMessage(t, w))
}

func TestProducts_CreateValidation(t *testing.T) {
	a := newTestApp(t)
	_, tok := a.seedUser(t, "maker", models.RoleUser)

	w := a.do(t, http.MethodPost, "/products", tok, map[string]any{"name": "Lamp", "price": 0, "category": "home"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, "/products", tok, map[string]any{"name": "Lamp", "price": 10, "stock": -1, "category": "home"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, "/products", tok, map[string]any{"name": "Lamp", "price": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "category is required", errorMessage(t, w))

	a.createProduct(t, tok, "Lamp", 10, "home")
	w = a.do(t, http.MethodPost, "/products", tok, map[string]any{"name": "lamp", "price": 12, "category": "home"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "A product with this name already exists.", errorMessage(t, w))
}

func TestProducts_UpdateNothing(t *testing.T) {
	a := newTestApp(t)
	_, tok := a.seedUser(t, "maker", models.RoleUser)
	p := a.createProduct(t, tok, "Vase", 20, "decor")

	w := a.do(t, http.MethodPut, "/products/"+p.ID.Hex(), tok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No fields to update.", errorMessage(t, w))
}

func TestProducts_Read(t *testing.T) {
	a := newTestApp(t)
	_, tok := a.seedUser(t, "maker", models.RoleUser)
	a.createProduct(t, tok, "Brass Lamp", 40, "lighting")
	a.createProduct(t, tok, "Floor Lamp", 90, "lighting")
	a.createProduct(t, tok, "Rug", 120, "textiles")

	w := a.do(t, http.MethodGet, "/products?category=lighting&sort=price_desc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[productList](t, w)
	assert.EqualValues(t, 2, list.Total)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "Floor Lamp", list.Items[0].Name)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.Limit)

	w = a.do(t, http.MethodGet, "/products?q=LAMP&limit=1&page=2&sort=price_asc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[productList](t, w)
	assert.EqualValues(t, 2, list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Floor Lamp", list.Items[0].Name)

	w = a.do(t, http.MethodGet, "/products?category=none", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[],"page":1,"limit":20,"total":0}`, w.Body.String())

	w = a.do(t, http.MethodGet, "/products/slug/rug", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rug", decode[models.Product](t, w).Name)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/products/slug/sofa", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/products/not-an-id", "", nil).Code)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func (a *testApp) upload(t *testing.T, path, token string, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestProducts_UploadImages(t *testing.T) {
	a := newTestApp(t)
	_, ownerToken := a.seedUser(t, "maker", models.RoleUser)
	_, strangerToken := a.seedUser(t, "stranger", models.RoleUser)
	p := a.createProduct(t, ownerToken, "Teak Chair", 75, "furniture")
	path := fmt.Sprintf("/products/%s/images", p.ID.Hex())

	w := a.upload(t, path, strangerToken, map[string][]byte{"a.png": pngBytes})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.upload(t, path, ownerToken, map[string][]byte{"a.png": pngBytes})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[productResponse](t, w).Product
	assert.Equal(t, []string{"https://files.polgen.test/shop/products/teak-chair/a.png"}, got.ImageURLs)

	w = a.upload(t, path, ownerToken, map[string][]byte{"notes.txt": []byte("hello")})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.upload(t, path, ownerToken, map[string][]byte{"b.png": pngBytes, "c.png": pngBytes})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "A product can have at most 2 images.", errorMessage(t, w))

	w = a.upload(t, path, ownerToken, map[string][]byte{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stored, err := a.products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, stored.ImageURLs, 1)
	assert.Equal(t, 1, a.images.uploads)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, "/products/"+p.ID.Hex(), ownerToken, nil).Code)
	assert.Equal(t, stored.ImageURLs, a.images.deleted)
}

func TestProducts_UploadWithoutStorage(t *testing.T) {
	a := newTestApp(t, withoutImageStore())
	_, tok := a.seedUser(t, "maker", models.RoleUser)
	p := a.createProduct(t, tok, "Stool", 30, "furniture")

	w := a.upload(t, "/products/"+p.ID.Hex()+"/images", tok, map[string][]byte{"a.png": pngBytes})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
