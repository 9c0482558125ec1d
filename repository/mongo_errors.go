package repository

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

const (
	codeDuplicateKey       = 11000
	codeDuplicateKeyLegacy = 11001
)

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}

	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == codeDuplicateKey || e.Code == codeDuplicateKeyLegacy {
				return true
			}
		}
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == codeDuplicateKey || e.Code == codeDuplicateKeyLegacy {
				return true
			}
		}
	}

	return strings.Contains(err.Error(), "E11000 duplicate key error")
}

func mapWriteError(err error) error {
	if IsDuplicateKey(err) {
		return ErrDuplicateKey
	}
	return err
}

func mapFindError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
