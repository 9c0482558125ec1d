package repository

import (
	"testing"

	"github.com/polgen/storebackend/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestSortDoc(t *testing.T) {
	tests := []struct {
		sort models.ProductSort
		want bson.D
	}{
		{models.SortByPriceAsc, bson.D{{Key: "price", Value: 1}}},
		{models.SortByPriceDesc, bson.D{{Key: "price", Value: -1}}},
		{models.SortByNewest, bson.D{{Key: "createdAt", Value: -1}}},
		{models.SortByOldest, bson.D{{Key: "createdAt", Value: 1}}},
		{models.SortByName, bson.D{{Key: "name", Value: 1}}},
		{"", bson.D{{Key: "name", Value: 1}}},
		{"bogus", bson.D{{Key: "name", Value: 1}}},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, sortDoc(tc.sort), string(tc.sort))
	}
}
