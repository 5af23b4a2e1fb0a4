package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"institute-reviews/cmd/api/dto"
	"institute-reviews/models"
	"institute-reviews/repositories"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ReviewStore is the persistence contract of the review service.
// repositories.ReviewRepository and memstore.Reviews implement it.
type ReviewStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	List(ctx context.Context, opt repositories.ListReviewsOptions) ([]models.Review, int64, error)
	ReplaceForAuthor(ctx context.Context, rv *models.Review) (*models.Review, error)
	SetReply(ctx context.Context, id, replierID primitive.ObjectID, message string, at time.Time) (*models.Review, error)
	ToggleReaction(ctx context.Context, id, userID primitive.ObjectID, kind models.ReactionKind) (*models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	RatingCounts(ctx context.Context, subjectType models.SubjectType, subjectID primitive.ObjectID) ([]models.RatingCount, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserRef, error)
}

type SubjectStore interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	FindRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.SubjectRef, error)
}

// ReviewService lists, writes, reacts to and summarizes reviews.
//
// - reviews: review 컬렉션
// - users: 작성자/답변자 프로필 조회
// - subjects: subject type 별 course/blog 컬렉션
type ReviewService struct {
	reviews  ReviewStore
	users    UserStore
	subjects map[models.SubjectType]SubjectStore
	validate *validator.Validate
	now      func() time.Time
}

func NewReviewService(reviews ReviewStore, users UserStore, subjects map[models.SubjectType]SubjectStore) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		users:    users,
		subjects: subjects,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

type ListReviewsInput struct {
	SubjectType string
	SubjectID   string // hex string; optional, empty lists every subject of the type
	Page        int
	PageSize    int
}

type CreateReviewInput struct {
	UserID      primitive.ObjectID `validate:"required"`
	SubjectType string             `validate:"required"`
	SubjectID   string             `validate:"required"`
	Rating      int                `validate:"gte=1,lte=5"`
	Message     string             `validate:"required,max=2000"`
}

type replyInput struct {
	Message string `validate:"required,max=2000"`
}

// normalizePage clamps page to >= 1 and pageSize to [1, MaxPageSize], defaulting pageSize when unset.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func parseObjectID(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, invalidArgument("%s must be a 24-character hex id", field)
	}
	return id, nil
}

func parseSubjectType(s string) (models.SubjectType, error) {
	t, err := models.ParseSubjectType(s)
	if err != nil {
		return "", invalidArgument("subject_type must be COURSE or BLOG")
	}
	return t, nil
}

func (s *ReviewService) subjectStore(t models.SubjectType) (SubjectStore, error) {
	store, ok := s.subjects[t]
	if !ok {
		return nil, invalidArgument("subject_type %s is not served", t)
	}
	return store, nil
}

// List returns one page of reviews, newest first, each enriched with its subject, author and replier.
func (s *ReviewService) List(ctx context.Context, in ListReviewsInput) (dto.Pagination[dto.ReviewDTO], error) {
	subjectType, err := parseSubjectType(in.SubjectType)
	if err != nil {
		return dto.Pagination[dto.ReviewDTO]{}, err
	}
	opt := repositories.ListReviewsOptions{SubjectType: subjectType}
	if strings.TrimSpace(in.SubjectID) != "" {
		id, err := parseObjectID("subject_id", in.SubjectID)
		if err != nil {
			return dto.Pagination[dto.ReviewDTO]{}, err
		}
		opt.SubjectID = &id
	}
	opt.Page, opt.PageSize = normalizePage(in.Page, in.PageSize)

	items, total, err := s.reviews.List(ctx, opt)
	if err != nil {
		return dto.Pagination[dto.ReviewDTO]{}, classifyStoreErr("list reviews", err)
	}
	data, err := s.enrich(ctx, items)
	if err != nil {
		return dto.Pagination[dto.ReviewDTO]{}, err
	}
	return dto.Pagination[dto.ReviewDTO]{
		Data:     data,
		Page:     opt.Page,
		PageSize: opt.PageSize,
		Total:    total,
		LastPage: dto.LastPage(total, opt.PageSize),
	}, nil
}

// Get loads one enriched review by its ObjectID hex.
func (s *ReviewService) Get(ctx context.Context, hexID string) (*dto.ReviewDTO, error) {
	id, err := parseObjectID("id", hexID)
	if err != nil {
		return nil, err
	}
	rv, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, classifyStoreErr("get review", err)
	}
	return s.enrichOne(ctx, rv)
}

// CreateOrReplace stores the author's review of a subject, overwriting their earlier one.
// The write is a single upsert on (author, subject type, subject id).
func (s *ReviewService) CreateOrReplace(ctx context.Context, in CreateReviewInput) (*dto.ReviewDTO, error) {
	in.Message = strings.TrimSpace(in.Message)
	if err := s.validate.Struct(in); err != nil {
		return nil, invalidArgument("%s", validationMessage(err))
	}
	subjectType, err := parseSubjectType(in.SubjectType)
	if err != nil {
		return nil, err
	}
	subjectID, err := parseObjectID("subject_id", in.SubjectID)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjectStore(subjectType)
	if err != nil {
		return nil, err
	}
	exists, err := subjects.Exists(ctx, subjectID)
	if err != nil {
		return nil, classifyStoreErr("check subject", err)
	}
	if !exists {
		return nil, fmt.Errorf("%s %s: %w", strings.ToLower(string(subjectType)), subjectID.Hex(), ErrNotFound)
	}

	saved, err := s.reviews.ReplaceForAuthor(ctx, &models.Review{
		SubjectType: subjectType,
		SubjectID:   subjectID,
		UserID:      in.UserID,
		Rating:      in.Rating,
		Message:     in.Message,
	})
	if err != nil {
		return nil, classifyStoreErr("save review", err)
	}
	return s.enrichOne(ctx, saved)
}

// Reply attaches an admin reply to a review. The caller checks the admin role.
func (s *ReviewService) Reply(ctx context.Context, hexID string, replierID primitive.ObjectID, message string) (*dto.ReviewDTO, error) {
	id, err := parseObjectID("id", hexID)
	if err != nil {
		return nil, err
	}
	in := replyInput{Message: strings.TrimSpace(message)}
	if err := s.validate.Struct(in); err != nil {
		return nil, invalidArgument("%s", validationMessage(err))
	}
	rv, err := s.reviews.SetReply(ctx, id, replierID, in.Message, s.now().UTC())
	if err != nil {
		return nil, classifyStoreErr("reply to review", err)
	}
	return s.enrichOne(ctx, rv)
}

// React toggles reactorID's like or dislike on a review.
// Reacting again with the same kind removes the reaction; switching kind drops the opposite one.
func (s *ReviewService) React(ctx context.Context, hexID string, reactorID primitive.ObjectID, kind string) (*dto.ReviewDTO, error) {
	reaction, err := models.ParseReactionKind(kind)
	if err != nil {
		return nil, invalidArgument("reaction must be like or dislike")
	}
	id, err := parseObjectID("id", hexID)
	if err != nil {
		return nil, err
	}
	rv, err := s.reviews.ToggleReaction(ctx, id, reactorID, reaction)
	if err != nil {
		return nil, classifyStoreErr("react to review", err)
	}
	return s.enrichOne(ctx, rv)
}

// Summary returns the rating distribution of one subject.
// Percentages are rounded per star, so they may not add up to exactly 100.
func (s *ReviewService) Summary(ctx context.Context, subjectTypeRaw, subjectIDHex string) (*dto.ReviewSummaryDTO, error) {
	subjectType, err := parseSubjectType(subjectTypeRaw)
	if err != nil {
		return nil, err
	}
	subjectID, err := parseObjectID("subject_id", subjectIDHex)
	if err != nil {
		return nil, err
	}
	rows, err := s.reviews.RatingCounts(ctx, subjectType, subjectID)
	if err != nil {
		return nil, classifyStoreErr("summarize reviews", err)
	}
	return summarize(subjectType, subjectID, rows)
}

func summarize(subjectType models.SubjectType, subjectID primitive.ObjectID, rows []models.RatingCount) (*dto.ReviewSummaryDTO, error) {
	counts := map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	var total, sum int64
	for _, row := range rows {
		if _, ok := counts[row.Rating]; !ok {
			continue
		}
		counts[row.Rating] += row.Count
		total += row.Count
		sum += int64(row.Rating) * row.Count
	}
	if total == 0 {
		return nil, fmt.Errorf("reviews of %s %s: %w", strings.ToLower(string(subjectType)), subjectID.Hex(), ErrNotFound)
	}

	pct := func(star int) int {
		return int(math.Round(float64(counts[star]) * 100 / float64(total)))
	}
	avg := float64(sum) / float64(total)
	return &dto.ReviewSummaryDTO{
		SubjectType:  string(subjectType),
		SubjectID:    subjectID.Hex(),
		AvgRating:    math.Round(avg*10) / 10,
		TotalReviews: total,
		Counts:       counts,
		OneStar:      pct(1),
		TwoStar:      pct(2),
		ThreeStar:    pct(3),
		FourStar:     pct(4),
		FiveStar:     pct(5),
	}, nil
}

// Delete removes a review. Only its author or an admin may delete it.
func (s *ReviewService) Delete(ctx context.Context, hexID string, actorID primitive.ObjectID, isAdmin bool) error {
	id, err := parseObjectID("id", hexID)
	if err != nil {
		return err
	}
	if !isAdmin {
		rv, err := s.reviews.FindByID(ctx, id)
		if err != nil {
			return classifyStoreErr("delete review", err)
		}
		if rv.UserID != actorID {
			return fmt.Errorf("delete review %s: %w", hexID, ErrForbidden)
		}
	}
	return classifyStoreErr("delete review", s.reviews.Delete(ctx, id))
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := toSnake(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "gte", "lte":
			parts = append(parts, field+" must be between 1 and 5")
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "email":
			parts = append(parts, field+" must be a valid email")
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
