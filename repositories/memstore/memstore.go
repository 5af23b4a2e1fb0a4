// Package memstore keeps reviews, users and subjects in process memory.
// It mirrors the semantics of the mongo repositories, including the unique
// author/subject and role/phone/email constraints, and is safe for concurrent use.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"institute-reviews/models"
	"institute-reviews/repositories"
)

type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	reviews  map[primitive.ObjectID]models.Review
	users    map[primitive.ObjectID]models.User
	subjects map[models.SubjectType]map[primitive.ObjectID]models.Subject
}

type Option func(*Store)

// WithClock overrides time.Now for created_at/updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		reviews:  map[primitive.ObjectID]models.Review{},
		users:    map[primitive.ObjectID]models.User{},
		subjects: map[models.SubjectType]map[primitive.ObjectID]models.Subject{},
	}
	for _, t := range models.SubjectTypes {
		s.subjects[t] = map[primitive.ObjectID]models.Subject{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Reviews() *Reviews { return &Reviews{s: s} }
func (s *Store) Users() *Users     { return &Users{s: s} }
func (s *Store) Subjects(t models.SubjectType) *Subjects {
	return &Subjects{s: s, subjectType: t}
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
}

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(ids))
	copy(out, ids)
	return out
}

func cloneReview(rv models.Review) *models.Review {
	rv.LikedBy = cloneIDs(rv.LikedBy)
	rv.DislikedBy = cloneIDs(rv.DislikedBy)
	return &rv
}

func without(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Reviews implements the review store contract.
type Reviews struct{ s *Store }

func (r *Reviews) FindByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, notFound("reviews.find_by_id")
	}
	return cloneReview(rv), nil
}

func (r *Reviews) List(_ context.Context, opt repositories.ListReviewsOptions) ([]models.Review, int64, error) {
	r.s.mu.RLock()
	matched := make([]models.Review, 0)
	for _, rv := range r.s.reviews {
		if rv.SubjectType != opt.SubjectType {
			continue
		}
		if opt.SubjectID != nil && rv.SubjectID != *opt.SubjectID {
			continue
		}
		matched = append(matched, *cloneReview(rv))
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return bytes.Compare(matched[i].ID[:], matched[j].ID[:]) > 0
	})

	total := int64(len(matched))
	start := (opt.Page - 1) * opt.PageSize
	if start >= len(matched) {
		return []models.Review{}, total, nil
	}
	end := start + opt.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *Reviews) ReplaceForAuthor(_ context.Context, rv *models.Review) (*models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	stored := *rv
	stored.ID = primitive.NewObjectID()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.LikedBy = cloneIDs(rv.LikedBy)
	stored.DislikedBy = cloneIDs(rv.DislikedBy)

	for id, existing := range r.s.reviews {
		if existing.UserID == rv.UserID && existing.SubjectType == rv.SubjectType && existing.SubjectID == rv.SubjectID {
			stored.ID = id
			break
		}
	}
	r.s.reviews[stored.ID] = stored
	return cloneReview(stored), nil
}

func (r *Reviews) SetReply(_ context.Context, id, replierID primitive.ObjectID, message string, at time.Time) (*models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, notFound("reviews.set_reply")
	}
	rv.ReplierID = &replierID
	rv.ReplyMessage = &message
	rv.RepliedAt = &at
	rv.UpdatedAt = at
	r.s.reviews[id] = rv
	return cloneReview(rv), nil
}

func (r *Reviews) ToggleReaction(_ context.Context, id, userID primitive.ObjectID, kind models.ReactionKind) (*models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, notFound("reviews.toggle_reaction")
	}

	had := rv.HasReaction(kind, userID)
	if kind == models.ReactionLike {
		rv.DislikedBy = without(rv.DislikedBy, userID)
		rv.LikedBy = without(rv.LikedBy, userID)
		if !had {
			rv.LikedBy = append(rv.LikedBy, userID)
		}
	} else {
		rv.LikedBy = without(rv.LikedBy, userID)
		rv.DislikedBy = without(rv.DislikedBy, userID)
		if !had {
			rv.DislikedBy = append(rv.DislikedBy, userID)
		}
	}
	rv.UpdatedAt = r.s.now()
	r.s.reviews[id] = rv
	return cloneReview(rv), nil
}

func (r *Reviews) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[id]; !ok {
		return notFound("reviews.delete")
	}
	delete(r.s.reviews, id)
	return nil
}

func (r *Reviews) RatingCounts(_ context.Context, subjectType models.SubjectType, subjectID primitive.ObjectID) ([]models.RatingCount, error) {
	r.s.mu.RLock()
	byRating := map[int]int64{}
	for _, rv := range r.s.reviews {
		if rv.SubjectType == subjectType && rv.SubjectID == subjectID {
			byRating[rv.Rating]++
		}
	}
	r.s.mu.RUnlock()

	counts := make([]models.RatingCount, 0, len(byRating))
	for rating, n := range byRating {
		counts = append(counts, models.RatingCount{Rating: rating, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Rating < counts[j].Rating })
	return counts, nil
}

// Users implements the user store contract.
type Users struct{ s *Store }

func (u *Users) Insert(_ context.Context, user *models.User) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if existing.Role != user.Role {
			continue
		}
		if existing.PhoneNumber == user.PhoneNumber || existing.Email == user.Email {
			return nil, fmt.Errorf("users.insert: %w", repositories.ErrDuplicate)
		}
	}
	now := u.s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	u.s.users[user.ID] = *user
	return user, nil
}

func (u *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, notFound("users.find_by_id")
	}
	return &user, nil
}

func (u *Users) FindByPhone(_ context.Context, role, phone string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, user := range u.s.users {
		if user.Role == role && user.PhoneNumber == phone {
			found := user
			return &found, nil
		}
	}
	return nil, notFound("users.find_by_phone")
}

func (u *Users) FindRefs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserRef, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	out := make(map[primitive.ObjectID]models.UserRef, len(ids))
	for _, id := range ids {
		if user, ok := u.s.users[id]; ok {
			out[id] = user.Ref()
		}
	}
	return out, nil
}

// Subjects implements the subject store contract for one subject type.
type Subjects struct {
	s           *Store
	subjectType models.SubjectType
}

// Put stores a subject, assigning an id when it has none.
func (c *Subjects) Put(subject models.Subject) models.Subject {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if subject.ID.IsZero() {
		subject.ID = primitive.NewObjectID()
	}
	now := c.s.now()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now
	c.s.subjects[c.subjectType][subject.ID] = subject
	return subject
}

func (c *Subjects) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	_, ok := c.s.subjects[c.subjectType][id]
	return ok, nil
}

func (c *Subjects) FindRefs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.SubjectRef, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	out := make(map[primitive.ObjectID]models.SubjectRef, len(ids))
	for _, id := range ids {
		if subject, ok := c.s.subjects[c.subjectType][id]; ok {
			out[id] = models.SubjectRef{
				Type:      c.subjectType,
				ID:        subject.ID,
				Name:      subject.Name,
				ShortDesc: subject.ShortDesc,
			}
		}
	}
	return out, nil
}
