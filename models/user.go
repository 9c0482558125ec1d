package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the allowed roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// RoleOrDefault returns the requested role when it is allowed and RoleUser
// otherwise.
func RoleOrDefault(requested string) Role {
	if r := Role(requested); r.Valid() {
		return r
	}
	return RoleUser
}

type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string        `bson:"username" json:"username"`
	Email        string        `bson:"email" json:"email"`
	PasswordHash string        `bson:"passwordHash" json:"-"` // never expose
	Phone        string        `bson:"phone" json:"phone"`
	Address      string        `bson:"address" json:"address"`
	Role         Role          `bson:"role" json:"role"`

	// Both set during a reset flow, both nil otherwise.
	ResetTokenHash   *string    `bson:"resetTokenHash,omitempty" json:"-"`
	ResetTokenExpiry *time.Time `bson:"resetTokenExpiry,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
