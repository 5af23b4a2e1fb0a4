package dto

import "time"

// ReviewDTO is a review enriched with its subject, author and replier.
// IDs are hex strings. Missing subject/user/replier documents come back as null.
type ReviewDTO struct {
	ID           string         `json:"id" example:"665f1c2e9b1d4a0012345678"`
	SubjectType  string         `json:"subject_type" example:"COURSE"`
	SubjectID    string         `json:"subject_id" example:"665f1c2e9b1d4a0012345679"`
	Subject      *SubjectRefDTO `json:"subject"`
	User         *UserRefDTO    `json:"user"`
	Rating       int            `json:"rating" example:"5"`
	Message      string         `json:"message" example:"Clear lectures and useful homework"`
	LikedBy      []string       `json:"liked_by"`
	DislikedBy   []string       `json:"disliked_by"`
	LikeCount    int            `json:"like_count" example:"3"`
	DislikeCount int            `json:"dislike_count" example:"0"`
	Replier      *UserRefDTO    `json:"replier"`
	ReplyMessage *string        `json:"reply_message,omitempty"`
	RepliedAt    *time.Time     `json:"replied_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// SubjectRefDTO is the tagged course/blog projection; Type tells which one.
type SubjectRefDTO struct {
	Type      string `json:"type" example:"COURSE"`
	ID        string `json:"id"`
	Name      string `json:"name" example:"Clinical nutrition basics"`
	ShortDesc string `json:"short_desc"`
}

type UserRefDTO struct {
	ID        string  `json:"id"`
	Role      string  `json:"role" example:"USER"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	ImageKey  *string `json:"image_key,omitempty"`
}

// ReviewSummaryDTO는 과목별 평점 요약이다. 퍼센트는 별점마다 독립적으로 반올림하므로 합이 100이 아닐 수 있다.
type ReviewSummaryDTO struct {
	SubjectType  string        `json:"subject_type" example:"COURSE"`
	SubjectID    string        `json:"subject_id"`
	AvgRating    float64       `json:"avg_rating" example:"4.3"`
	TotalReviews int64         `json:"total_reviews" example:"12"`
	Counts       map[int]int64 `json:"counts"`
	OneStar      int           `json:"one_star" example:"0"`
	TwoStar      int           `json:"two_star" example:"8"`
	ThreeStar    int           `json:"three_star" example:"8"`
	FourStar     int           `json:"four_star" example:"33"`
	FiveStar     int           `json:"five_star" example:"50"`
}

// CreateReviewRequestDTO is the POST /reviews body.
type CreateReviewRequestDTO struct {
	SubjectType string `json:"subject_type" example:"COURSE"`
	SubjectID   string `json:"subject_id"`
	Rating      int    `json:"rating" example:"5"`
	Message     string `json:"message"`
}

type ReplyReviewRequestDTO struct {
	Message string `json:"message" example:"Thank you for the feedback!"`
}
