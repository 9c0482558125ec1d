package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/polgen/storebackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryUserRepository is a goroutine-safe in-process UserRepository with the
// same uniqueness rules as the MongoDB one. Used in tests and local runs.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[bson.ObjectID]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[bson.ObjectID]models.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return ErrDuplicateKey
		}
	}
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) FindByResetTokenHash(_ context.Context, hash string) (*models.User, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return r.find(func(u models.User) bool {
		return u.ResetTokenHash != nil && *u.ResetTokenHash == hash
	})
}

func (r *MemoryUserRepository) find(match func(models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) List(_ context.Context, page, limit int) ([]models.User, int64, error) {
	r.mu.Lock()
	all := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *MemoryUserRepository) SetResetToken(_ context.Context, id bson.ObjectID, hash string, expiry time.Time) error {
	return r.update(id, func(u *models.User) {
		u.ResetTokenHash = &hash
		u.ResetTokenExpiry = &expiry
	})
}

func (r *MemoryUserRepository) ClearResetToken(_ context.Context, id bson.ObjectID) error {
	return r.update(id, func(u *models.User) {
		u.ResetTokenHash = nil
		u.ResetTokenExpiry = nil
	})
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id bson.ObjectID, hash string) error {
	return r.update(id, func(u *models.User) {
		u.PasswordHash = hash
		u.ResetTokenHash = nil
		u.ResetTokenExpiry = nil
	})
}

func (r *MemoryUserRepository) ConsumeResetToken(_ context.Context, id bson.ObjectID, tokenHash, passwordHash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || u.ResetTokenHash == nil || *u.ResetTokenHash != tokenHash ||
		u.ResetTokenExpiry == nil || !u.ResetTokenExpiry.After(now) {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetTokenHash = nil
	u.ResetTokenExpiry = nil
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}

func (r *MemoryUserRepository) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, u := range r.users {
		if u.ResetTokenExpiry != nil && !u.ResetTokenExpiry.After(now) {
			u.ResetTokenHash = nil
			u.ResetTokenExpiry = nil
			r.users[id] = u
			n++
		}
	}
	return n, nil
}

func (r *MemoryUserRepository) update(id bson.ObjectID, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}

// MemoryProductRepository is the in-process ProductRepository.
type MemoryProductRepository struct {
	mu       sync.Mutex
	products map[bson.ObjectID]models.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[bson.ObjectID]models.Product)}
}

func (r *MemoryProductRepository) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slugTaken(p.Slug, bson.ObjectID{}) {
		return ErrDuplicateKey
	}
	if p.ID.IsZero() {
		p.ID = bson.NewObjectID()
	}
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.products[p.ID] = *p
	return nil
}

func (r *MemoryProductRepository) slugTaken(slug string, except bson.ObjectID) bool {
	for id, p := range r.products {
		if id != except && p.Slug == slug {
			return true
		}
	}
	return false
}

func (r *MemoryProductRepository) FindByID(_ context.Context, id bson.ObjectID) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *MemoryProductRepository) FindBySlug(_ context.Context, slug string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryProductRepository) List(_ context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
	r.mu.Lock()
	matched := make([]models.Product, 0)
	query := strings.ToLower(f.Query)
	for _, p := range r.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		matched = append(matched, p)
	}
	r.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch f.Sort {
		case models.SortByPriceAsc:
			return a.Price < b.Price
		case models.SortByPriceDesc:
			return a.Price > b.Price
		case models.SortByNewest:
			return a.CreatedAt.After(b.CreatedAt)
		case models.SortByOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.Name < b.Name
		}
	})
	return paginate(matched, f.Page, f.Limit), int64(len(matched)), nil
}

func (r *MemoryProductRepository) Update(_ context.Context, id bson.ObjectID, u models.ProductUpdate) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	if u.Slug != nil && r.slugTaken(*u.Slug, id) {
		return nil, ErrDuplicateKey
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Slug != nil {
		p.Slug = *u.Slug
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	p.UpdatedAt = time.Now().UTC()
	r.products[id] = p
	return &p, nil
}

func (r *MemoryProductRepository) AddImages(_ context.Context, id bson.ObjectID, urls []string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.ImageURLs = append(append([]string{}, p.ImageURLs...), urls...)
	p.UpdatedAt = time.Now().UTC()
	r.products[id] = p
	return &p, nil
}

func (r *MemoryProductRepository) Delete(_ context.Context, id bson.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
