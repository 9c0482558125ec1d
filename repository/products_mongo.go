package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/polgen/storebackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const ProductsCollection = "products"

type MongoProductRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{col: db.Collection(ProductsCollection), now: time.Now}
}

func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) Create(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = bson.NewObjectID()
	}
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	now := r.now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoProductRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *MongoProductRepository) findOne(ctx context.Context, filter bson.M) (*models.Product, error) {
	var p models.Product
	if err := r.col.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, mapFindError(err)
	}
	return &p, nil
}

func (r *MongoProductRepository) List(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Query != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(f.Query), "$options": "i"}
	}

	opts := options.Find().
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit)).
		SetSort(sortDoc(f.Sort))

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func sortDoc(s models.ProductSort) bson.D {
	switch s {
	case models.SortByPriceAsc:
		return bson.D{{Key: "price", Value: 1}}
	case models.SortByPriceDesc:
		return bson.D{{Key: "price", Value: -1}}
	case models.SortByNewest:
		return bson.D{{Key: "createdAt", Value: -1}}
	case models.SortByOldest:
		return bson.D{{Key: "createdAt", Value: 1}}
	default:
		return bson.D{{Key: "name", Value: 1}}
	}
}

func (r *MongoProductRepository) Update(ctx context.Context, id bson.ObjectID, u models.ProductUpdate) (*models.Product, error) {
	set := bson.M{"updatedAt": r.now().UTC()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Slug != nil {
		set["slug"] = *u.Slug
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Stock != nil {
		set["stock"] = *u.Stock
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *MongoProductRepository) AddImages(ctx context.Context, id bson.ObjectID, urls []string) (*models.Product, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{
		"$push": bson.M{"imageUrls": bson.M{"$each": urls}},
		"$set":  bson.M{"updatedAt": r.now().UTC()},
	})
}

func (r *MongoProductRepository) findOneAndUpdate(ctx context.Context, id bson.ObjectID, update bson.M) (*models.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Product
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&p)
	if err != nil {
		if IsDuplicateKey(err) {
			return nil, ErrDuplicateKey
		}
		return nil, mapFindError(err)
	}
	return &p, nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
