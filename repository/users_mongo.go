package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/polgen/storebackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const UsersCollection = "users"

type MongoUserRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection(UsersCollection), now: time.Now}
}

// EnsureIndexes creates the unique email index that makes registration an
// atomic insert-if-absent.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "resetTokenHash", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	now := r.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, u); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) FindByResetTokenHash(ctx context.Context, hash string) (*models.User, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"resetTokenHash": hash})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, mapFindError(err)
	}
	return &u, nil
}

func (r *MongoUserRepository) List(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}

	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *MongoUserRepository) SetResetToken(ctx context.Context, id bson.ObjectID, hash string, expiry time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"resetTokenHash":   hash,
			"resetTokenExpiry": expiry.UTC(),
			"updatedAt":        r.now().UTC(),
		},
	})
}

func (r *MongoUserRepository) ClearResetToken(ctx context.Context, id bson.ObjectID) error {
	return r.updateByID(ctx, id, bson.M{
		"$unset": bson.M{"resetTokenHash": "", "resetTokenExpiry": ""},
		"$set":   bson.M{"updatedAt": r.now().UTC()},
	})
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id bson.ObjectID, hash string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"passwordHash": hash, "updatedAt": r.now().UTC()},
		"$unset": bson.M{"resetTokenHash": "", "resetTokenExpiry": ""},
	})
}

func (r *MongoUserRepository) ConsumeResetToken(ctx context.Context, id bson.ObjectID, tokenHash, passwordHash string, now time.Time) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{
			"_id":              id,
			"resetTokenHash":   tokenHash,
			"resetTokenExpiry": bson.M{"$gt": now.UTC()},
		},
		bson.M{
			"$set":   bson.M{"passwordHash": passwordHash, "updatedAt": r.now().UTC()},
			"$unset": bson.M{"resetTokenHash": "", "resetTokenExpiry": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"resetTokenExpiry": bson.M{"$lte": now.UTC()}},
		bson.M{
			"$unset": bson.M{"resetTokenHash": "", "resetTokenExpiry": ""},
			"$set":   bson.M{"updatedAt": r.now().UTC()},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoUserRepository) updateByID(ctx context.Context, id bson.ObjectID, update bson.M) error {
	res, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
