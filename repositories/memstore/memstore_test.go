package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"institute-reviews/models"
	"institute-reviews/repositories"
)

func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func TestReviews_ReplaceForAuthorKeepsOneReviewPerAuthor(t *testing.T) {
	ctx := context.Background()
	s := New(WithClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))
	reviews := s.Reviews()

	author := primitive.NewObjectID()
	subject := primitive.NewObjectID()

	first, err := reviews.ReplaceForAuthor(ctx, &models.Review{
		SubjectType: models.SubjectCourse, SubjectID: subject, UserID: author, Rating: 2, Message: "meh",
	})
	require.NoError(t, err)

	liker := primitive.NewObjectID()
	_, err = reviews.ToggleReaction(ctx, first.ID, liker, models.ReactionLike)
	require.NoError(t, err)

	second, err := reviews.ReplaceForAuthor(ctx, &models.Review{
		SubjectType: models.SubjectCourse, SubjectID: subject, UserID: author, Rating: 5, Message: "great",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Rating)
	assert.Empty(t, second.LikedBy)

	items, total, err := reviews.List(ctx, repositories.ListReviewsOptions{
		Page: 1, PageSize: 10, SubjectType: models.SubjectCourse, SubjectID: &subject,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "great", items[0].Message)
}

func TestReviews_ListOrdersNewestFirstAndPages(t *testing.T) {
	ctx := context.Background()
	s := New(WithClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))
	reviews := s.Reviews()
	subject := primitive.NewObjectID()

	var ids []primitive.ObjectID
	for i := 0; i < 5; i++ {
		rv, err := reviews.ReplaceForAuthor(ctx, &models.Review{
			SubjectType: models.SubjectBlog, SubjectID: subject, UserID: primitive.NewObjectID(), Rating: 4,
		})
		require.NoError(t, err)
		ids = append(ids, rv.ID)
	}
	_, err := reviews.ReplaceForAuthor(ctx, &models.Review{
		SubjectType: models.SubjectCourse, SubjectID: subject, UserID: primitive.NewObjectID(), Rating: 1,
	})
	require.NoError(t, err)

	page1, total, err := reviews.List(ctx, repositories.ListReviewsOptions{
		Page: 1, PageSize: 2, SubjectType: models.SubjectBlog,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page1, 2)
	assert.Equal(t, ids[4], page1[0].ID)
	assert.Equal(t, ids[3], page1[1].ID)

	page3, _, err := reviews.List(ctx, repositories.ListReviewsOptions{
		Page: 3, PageSize: 2, SubjectType: models.SubjectBlog,
	})
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, ids[0], page3[0].ID)

	beyond, total, err := reviews.List(ctx, repositories.ListReviewsOptions{
		Page: 9, PageSize: 2, SubjectType: models.SubjectBlog,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Empty(t, beyond)
}

func TestReviews_ToggleReaction(t *testing.T) {
	ctx := context.Background()
	s := New()
	reviews := s.Reviews()
	rv, err := reviews.ReplaceForAuthor(ctx, &models.Review{
		SubjectType: models.SubjectCourse, SubjectID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), Rating: 3,
	})
	require.NoError(t, err)
	user := primitive.NewObjectID()

	got, err := reviews.ToggleReaction(ctx, rv.ID, user, models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{user}, got.LikedBy)
	assert.Empty(t, got.DislikedBy)

	got, err = reviews.ToggleReaction(ctx, rv.ID, user, models.ReactionDislike)
	require.NoError(t, err)
	assert.Empty(t, got.LikedBy)
	assert.Equal(t, []primitive.ObjectID{user}, got.DislikedBy)

	got, err = reviews.ToggleReaction(ctx, rv.ID, user, models.ReactionDislike)
	require.NoError(t, err)
	assert.Empty(t, got.LikedBy)
	assert.Empty(t, got.DislikedBy)

	_, err = reviews.ToggleReaction(ctx, primitive.NewObjectID(), user, models.ReactionLike)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestReviews_ConcurrentReactionsAreNotLost(t *testing.T) {
	ctx := context.Background()
	s := New()
	reviews := s.Reviews()
	rv, err := reviews.ReplaceForAuthor(ctx, &models.Review{
		SubjectType: models.SubjectCourse, SubjectID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), Rating: 3,
	})
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reviews.ToggleReaction(ctx, rv.ID, primitive.NewObjectID(), models.ReactionLike)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := reviews.FindByID(ctx, rv.ID)
	require.NoError(t, err)
	assert.Len(t, got.LikedBy, n)
}

func TestReviews_RatingCountsAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	reviews := s.Reviews()
	subject := primitive.NewObjectID()

	var last *models.Review
	for _, rating := range []int{5, 5, 3, 1} {
		rv, err := reviews.ReplaceForAuthor(ctx, &models.Review{
			SubjectType: models.SubjectCourse, SubjectID: subject, UserID: primitive.NewObjectID(), Rating: rating,
		})
		require.NoError(t, err)
		last = rv
	}

	counts, err := reviews.RatingCounts(ctx, models.SubjectCourse, subject)
	require.NoError(t, err)
	assert.Equal(t, []models.RatingCount{{Rating: 1, Count: 1}, {Rating: 3, Count: 1}, {Rating: 5, Count: 2}}, counts)

	require.NoError(t, reviews.Delete(ctx, last.ID))
	assert.ErrorIs(t, reviews.Delete(ctx, last.ID), repositories.ErrNotFound)

	counts, err = reviews.RatingCounts(ctx, models.SubjectBlog, subject)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestUsers_InsertRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	u, err := users.Insert(ctx, &models.User{Role: models.RoleUser, PhoneNumber: "+100", Email: "a@example.com"})
	require.NoError(t, err)
	assert.False(t, u.ID.IsZero())

	_, err = users.Insert(ctx, &models.User{Role: models.RoleUser, PhoneNumber: "+100", Email: "b@example.com"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	_, err = users.Insert(ctx, &models.User{Role: models.RoleAdmin, PhoneNumber: "+100", Email: "a@example.com"})
	assert.NoError(t, err)

	found, err := users.FindByPhone(ctx, models.RoleUser, "+100")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = users.FindByPhone(ctx, models.RoleUser, "+999")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	refs, err := users.FindRefs(ctx, []primitive.ObjectID{u.ID, primitive.NewObjectID()})
	require.NoError(t, err)
	assert.Len(t, refs, 1)
	assert.Equal(t, models.RoleUser, refs[u.ID].Role)
}

func TestSubjects_ScopedByType(t *testing.T) {
	ctx := context.Background()
	s := New()
	course := s.Subjects(models.SubjectCourse).Put(models.Subject{Name: "Go 101", ShortDesc: "intro"})

	ok, err := s.Subjects(models.SubjectCourse).Exists(ctx, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Subjects(models.SubjectBlog).Exists(ctx, course.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	refs, err := s.Subjects(models.SubjectCourse).FindRefs(ctx, []primitive.ObjectID{course.ID})
	require.NoError(t, err)
	assert.Equal(t, models.SubjectRef{Type: models.SubjectCourse, ID: course.ID, Name: "Go 101", ShortDesc: "intro"}, refs[course.ID])
}
