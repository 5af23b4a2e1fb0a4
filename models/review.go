package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubjectType names the kind of entity a review rates.
type SubjectType string

const (
	SubjectCourse SubjectType = "COURSE"
	SubjectBlog   SubjectType = "BLOG"
)

// SubjectTypes lists every supported subject type.
var SubjectTypes = []SubjectType{SubjectCourse, SubjectBlog}

// ParseSubjectType accepts the subject type in any letter case.
func ParseSubjectType(s string) (SubjectType, error) {
	switch SubjectType(strings.ToUpper(strings.TrimSpace(s))) {
	case SubjectCourse:
		return SubjectCourse, nil
	case SubjectBlog:
		return SubjectBlog, nil
	}
	return "", fmt.Errorf("unknown subject type %q", s)
}

// Collection returns the collection holding subjects of this type.
func (t SubjectType) Collection() string {
	switch t {
	case SubjectCourse:
		return "courses"
	case SubjectBlog:
		return "blogs"
	}
	return ""
}

// ReactionKind is a like or a dislike.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

func ParseReactionKind(s string) (ReactionKind, error) {
	switch ReactionKind(strings.ToLower(strings.TrimSpace(s))) {
	case ReactionLike:
		return ReactionLike, nil
	case ReactionDislike:
		return ReactionDislike, nil
	}
	return "", fmt.Errorf("unknown reaction %q", s)
}

// Field returns the review field holding users with this reaction.
func (k ReactionKind) Field() string {
	if k == ReactionDislike {
		return "disliked_by"
	}
	return "liked_by"
}

// Opposite returns the mutually exclusive reaction.
func (k ReactionKind) Opposite() ReactionKind {
	if k == ReactionDislike {
		return ReactionLike
	}
	return ReactionDislike
}

// Review is a user's rating of a course or blog.
// At most one review exists per (user_id, subject_type, subject_id).
// Collection: reviews
type Review struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	SubjectType  SubjectType          `bson:"subject_type" json:"subject_type"`
	SubjectID    primitive.ObjectID   `bson:"subject_id" json:"subject_id"`
	UserID       primitive.ObjectID   `bson:"user_id" json:"user_id"`
	Rating       int                  `bson:"rating" json:"rating"`
	Message      string               `bson:"message" json:"message"`
	LikedBy      []primitive.ObjectID `bson:"liked_by" json:"liked_by"`
	DislikedBy   []primitive.ObjectID `bson:"disliked_by" json:"disliked_by"`
	ReplierID    *primitive.ObjectID  `bson:"replier_id,omitempty" json:"replier_id,omitempty"`
	ReplyMessage *string              `bson:"reply_message,omitempty" json:"reply_message,omitempty"`
	RepliedAt    *time.Time           `bson:"replied_at,omitempty" json:"replied_at,omitempty"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
}

// HasReaction reports whether userID is in the set for kind.
func (r *Review) HasReaction(kind ReactionKind, userID primitive.ObjectID) bool {
	set := r.LikedBy
	if kind == ReactionDislike {
		set = r.DislikedBy
	}
	for _, id := range set {
		if id == userID {
			return true
		}
	}
	return false
}

// RatingCount is one row of the per-star aggregation.
type RatingCount struct {
	Rating int   `bson:"_id" json:"rating"`
	Count  int64 `bson:"count" json:"count"`
}
