package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subject holds the fields shared by every reviewable entity.
// Courses and blogs live in separate collections with this common shape.
type Subject struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
	CategoryID string             `bson:"category_id" json:"category_id"`
	ImageKey   string             `bson:"image_key" json:"image_key"`
	Name       string             `bson:"name" json:"name"`
	ShortDesc  string             `bson:"short_desc" json:"short_desc"`
}

// Blog is an article written by one of the clinic's doctors.
// Collection: blogs
type Blog struct {
	Subject  `bson:",inline"`
	DoctorID string `bson:"doctor_id" json:"doctor_id"`
}

// Course is a paid e-learning course.
// Collection: courses
type Course struct {
	Subject  `bson:",inline"`
	Duration string `bson:"duration" json:"duration"`
	Price    string `bson:"price" json:"price"`
	Language string `bson:"language" json:"language"`
}

// SubjectRef is the read-time projection of a course or blog attached to a review.
// Type tells which collection it came from.
type SubjectRef struct {
	Type      SubjectType        `bson:"-" json:"type"`
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	ShortDesc string             `bson:"short_desc" json:"short_desc"`
}
