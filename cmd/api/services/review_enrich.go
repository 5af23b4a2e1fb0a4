package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"institute-reviews/cmd/api/dto"
	"institute-reviews/models"
)

func (s *ReviewService) enrichOne(ctx context.Context, rv *models.Review) (*dto.ReviewDTO, error) {
	out, err := s.enrich(ctx, []models.Review{*rv})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// enrich joins authors, repliers and subjects onto a page of reviews.
// Lookups are batched: one users query and one query per subject type present.
// A missing document leaves the projection nil.
func (s *ReviewService) enrich(ctx context.Context, items []models.Review) ([]dto.ReviewDTO, error) {
	out := make([]dto.ReviewDTO, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}

	userIDs := newIDSet()
	subjectIDs := map[models.SubjectType]*idSet{}
	for i := range items {
		rv := &items[i]
		userIDs.add(rv.UserID)
		if rv.ReplierID != nil {
			userIDs.add(*rv.ReplierID)
		}
		set, ok := subjectIDs[rv.SubjectType]
		if !ok {
			set = newIDSet()
			subjectIDs[rv.SubjectType] = set
		}
		set.add(rv.SubjectID)
	}

	users, err := s.users.FindRefs(ctx, userIDs.ids)
	if err != nil {
		return nil, classifyStoreErr("load review users", err)
	}
	subjects := map[models.SubjectType]map[primitive.ObjectID]models.SubjectRef{}
	for t, set := range subjectIDs {
		store, ok := s.subjects[t]
		if !ok {
			continue
		}
		refs, err := store.FindRefs(ctx, set.ids)
		if err != nil {
			return nil, classifyStoreErr("load review subjects", err)
		}
		subjects[t] = refs
	}

	for i := range items {
		rv := &items[i]
		d := mapReview(rv)
		if ref, ok := subjects[rv.SubjectType][rv.SubjectID]; ok {
			d.Subject = mapSubjectRef(ref)
		}
		if ref, ok := users[rv.UserID]; ok {
			d.User = mapUserRef(ref)
		}
		if rv.ReplierID != nil {
			if ref, ok := users[*rv.ReplierID]; ok {
				d.Replier = mapUserRef(ref)
			}
		}
		out = append(out, d)
	}
	return out, nil
}

type idSet struct {
	seen map[primitive.ObjectID]struct{}
	ids  []primitive.ObjectID
}

func newIDSet() *idSet { return &idSet{seen: map[primitive.ObjectID]struct{}{}} }

func (s *idSet) add(id primitive.ObjectID) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

func mapReview(rv *models.Review) dto.ReviewDTO {
	return dto.ReviewDTO{
		ID:           rv.ID.Hex(),
		SubjectType:  string(rv.SubjectType),
		SubjectID:    rv.SubjectID.Hex(),
		Rating:       rv.Rating,
		Message:      rv.Message,
		LikedBy:      hexIDs(rv.LikedBy),
		DislikedBy:   hexIDs(rv.DislikedBy),
		LikeCount:    len(rv.LikedBy),
		DislikeCount: len(rv.DislikedBy),
		ReplyMessage: rv.ReplyMessage,
		RepliedAt:    rv.RepliedAt,
		CreatedAt:    rv.CreatedAt,
		UpdatedAt:    rv.UpdatedAt,
	}
}

func mapSubjectRef(ref models.SubjectRef) *dto.SubjectRefDTO {
	return &dto.SubjectRefDTO{
		Type:      string(ref.Type),
		ID:        ref.ID.Hex(),
		Name:      ref.Name,
		ShortDesc: ref.ShortDesc,
	}
}

func mapUserRef(ref models.UserRef) *dto.UserRefDTO {
	return &dto.UserRefDTO{
		ID:        ref.ID.Hex(),
		Role:      ref.Role,
		FirstName: ref.FirstName,
		LastName:  ref.LastName,
		ImageKey:  ref.ImageKey,
	}
}
