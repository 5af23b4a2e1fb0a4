package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is a site account. Admins reply to reviews.
// Collection: users
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Role         string             `bson:"role" json:"role"`
	ImageKey     *string            `bson:"image_key,omitempty" json:"image_key,omitempty"`
	FirstName    string             `bson:"first_name" json:"first_name"`
	LastName     string             `bson:"last_name" json:"last_name"`
	City         string             `bson:"city" json:"city"`
	Email        string             `bson:"email" json:"email"`
	PhoneNumber  string             `bson:"phone_number" json:"phone_number"`
	PasswordHash string             `bson:"password" json:"-"`
	Gender       *string            `bson:"gender,omitempty" json:"gender,omitempty"`
	Age          *string            `bson:"age,omitempty" json:"age,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// UserRef is the public profile embedded next to reviews and replies.
type UserRef struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Role      string             `bson:"role" json:"role"`
	FirstName string             `bson:"first_name" json:"first_name"`
	LastName  string             `bson:"last_name" json:"last_name"`
	ImageKey  *string            `bson:"image_key,omitempty" json:"image_key,omitempty"`
}

// Ref projects the user to its public profile.
func (u *User) Ref() UserRef {
	return UserRef{
		ID:        u.ID,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		ImageKey:  u.ImageKey,
	}
}
