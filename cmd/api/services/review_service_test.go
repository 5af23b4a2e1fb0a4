package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"institute-reviews/models"
	"institute-reviews/repositories/memstore"
)

type reviewFixture struct {
	store  *memstore.Store
	svc    *ReviewService
	course models.Subject
	blog   models.Subject
	author *models.User
	admin  *models.User
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	ctx := context.Background()

	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := start
	store := memstore.New(memstore.WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Minute)
		return tick
	}))

	f := &reviewFixture{store: store}
	f.course = store.Subjects(models.SubjectCourse).Put(models.Subject{Name: "Clinical nutrition", ShortDesc: "6 week course"})
	f.blog = store.Subjects(models.SubjectBlog).Put(models.Subject{Name: "Sleep hygiene", ShortDesc: "doctor's notes"})

	var err error
	f.author, err = store.Users().Insert(ctx, &models.User{
		Role: models.RoleUser, FirstName: "Aruzhan", LastName: "S", PhoneNumber: "+7701", Email: "a@example.com",
	})
	require.NoError(t, err)
	f.admin, err = store.Users().Insert(ctx, &models.User{
		Role: models.RoleAdmin, FirstName: "Dana", LastName: "K", PhoneNumber: "+7702", Email: "admin@example.com",
	})
	require.NoError(t, err)

	f.svc = NewReviewService(store.Reviews(), store.Users(), map[models.SubjectType]SubjectStore{
		models.SubjectCourse: store.Subjects(models.SubjectCourse),
		models.SubjectBlog:   store.Subjects(models.SubjectBlog),
	})
	return f
}

func (f *reviewFixture) addUser(t *testing.T) primitive.ObjectID {
	t.Helper()
	n := primitive.NewObjectID().Hex()
	u, err := f.store.Users().Insert(context.Background(), &models.User{
		Role: models.RoleUser, FirstName: "User", PhoneNumber: "+" + n, Email: n + "@example.com",
	})
	require.NoError(t, err)
	return u.ID
}

func (f *reviewFixture) create(t *testing.T, userID primitive.ObjectID, subject models.Subject, subjectType models.SubjectType, rating int) string {
	t.Helper()
	rv, err := f.svc.CreateOrReplace(context.Background(), CreateReviewInput{
		UserID:      userID,
		SubjectType: string(subjectType),
		SubjectID:   subject.ID.Hex(),
		Rating:      rating,
		Message:     fmt.Sprintf("rated %d", rating),
	})
	require.NoError(t, err)
	return rv.ID
}

func TestReviewService_ListPagesWithoutGapsOrDuplicates(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	const n = 23
	for i := 0; i < n; i++ {
		f.create(t, f.addUser(t), f.course, models.SubjectCourse, i%5+1)
	}
	f.create(t, f.author.ID, f.blog, models.SubjectBlog, 4)

	seen := map[string]bool{}
	var last time.Time
	for page := 1; ; page++ {
		res, err := f.svc.List(ctx, ListReviewsInput{
			SubjectType: "course", SubjectID: f.course.ID.Hex(), Page: page, PageSize: 5,
		})
		require.NoError(t, err)
		assert.EqualValues(t, n, res.Total)
		assert.Equal(t, 5, res.LastPage)
		if len(res.Data) == 0 {
			assert.Equal(t, 6, page)
			break
		}
		for _, item := range res.Data {
			assert.False(t, seen[item.ID], "duplicate %s", item.ID)
			seen[item.ID] = true
			if !last.IsZero() {
				assert.False(t, item.CreatedAt.After(last), "not newest first")
			}
			last = item.CreatedAt
		}
	}
	assert.Len(t, seen, n)
}

func TestReviewService_ListEnrichesProjections(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	id := f.create(t, f.author.ID, f.course, models.SubjectCourse, 5)
	_, err := f.svc.Reply(ctx, id, f.admin.ID, "thanks!")
	require.NoError(t, err)

	orphanUser := primitive.NewObjectID()
	f.create(t, orphanUser, f.course, models.SubjectCourse, 3)

	res, err := f.svc.List(ctx, ListReviewsInput{SubjectType: "COURSE", SubjectID: f.course.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, DefaultPageSize, res.PageSize)
	require.Len(t, res.Data, 2)

	orphan, replied := res.Data[0], res.Data[1]

	assert.Nil(t, orphan.User)
	assert.Nil(t, orphan.Replier)
	require.NotNil(t, orphan.Subject)

	require.NotNil(t, replied.Subject)
	assert.Equal(t, "COURSE", replied.Subject.Type)
	assert.Equal(t, "Clinical nutrition", replied.Subject.Name)
	require.NotNil(t, replied.User)
	assert.Equal(t, "Aruzhan", replied.User.FirstName)
	require.NotNil(t, replied.Replier)
	assert.Equal(t, models.RoleAdmin, replied.Replier.Role)
	require.NotNil(t, replied.ReplyMessage)
	assert.Equal(t, "thanks!", *replied.ReplyMessage)
	assert.NotNil(t, replied.RepliedAt)
}

func TestReviewService_ListAcrossSubjectsOfType(t *testing.T) {
	f := newReviewFixture(t)
	other := f.store.Subjects(models.SubjectCourse).Put(models.Subject{Name: "Pediatrics"})

	f.create(t, f.author.ID, f.course, models.SubjectCourse, 5)
	f.create(t, f.author.ID, other, models.SubjectCourse, 4)
	f.create(t, f.author.ID, f.blog, models.SubjectBlog, 3)

	res, err := f.svc.List(context.Background(), ListReviewsInput{SubjectType: "COURSE", PageSize: 500})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
	assert.Equal(t, MaxPageSize, res.PageSize)
	for _, item := range res.Data {
		assert.Equal(t, "COURSE", item.SubjectType)
	}
}

func TestReviewService_ListRejectsBadInput(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	_, err := f.svc.List(ctx, ListReviewsInput{SubjectType: "PODCAST"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.List(ctx, ListReviewsInput{SubjectType: "BLOG", SubjectID: "nope"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReviewService_CreateOrReplaceKeepsOneReview(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	firstID := f.create(t, f.author.ID, f.course, models.SubjectCourse, 2)
	_, err := f.svc.React(ctx, firstID, f.admin.ID, "like")
	require.NoError(t, err)

	second, err := f.svc.CreateOrReplace(ctx, CreateReviewInput{
		UserID: f.author.ID, SubjectType: "COURSE", SubjectID: f.course.ID.Hex(), Rating: 5, Message: "changed my mind",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, second.Rating)
	assert.Equal(t, "changed my mind", second.Message)
	assert.Zero(t, second.LikeCount)
	require.NotNil(t, second.User)
	assert.Equal(t, f.author.ID.Hex(), second.User.ID)

	res, err := f.svc.List(ctx, ListReviewsInput{SubjectType: "COURSE", SubjectID: f.course.ID.Hex()})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "changed my mind", res.Data[0].Message)
}

func TestReviewService_CreateValidation(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateReviewInput
		want error
	}{
		{
			name: "rating too high",
			in:   CreateReviewInput{UserID: f.author.ID, SubjectType: "COURSE", SubjectID: f.course.ID.Hex(), Rating: 6, Message: "x"},
			want: ErrInvalidArgument,
		},
		{
			name: "rating zero",
			in:   CreateReviewInput{UserID: f.author.ID, SubjectType: "COURSE", SubjectID: f.course.ID.Hex(), Message: "x"},
			want: ErrInvalidArgument,
		},
		{
			name: "blank message",
			in:   CreateReviewInput{UserID: f.author.ID, SubjectType: "COURSE", SubjectID: f.course.ID.Hex(), Rating: 3, Message: "   "},
			want: ErrInvalidArgument,
		},
		{
			name: "unknown subject type",
			in:   CreateReviewInput{UserID: f.author.ID, SubjectType: "EVENT", SubjectID: f.course.ID.Hex(), Rating: 3, Message: "x"},
			want: ErrInvalidArgument,
		},
		{
			name: "malformed subject id",
			in:   CreateReviewInput{UserID: f.author.ID, SubjectType: "COURSE", SubjectID: "123", Rating: 3, Message: "x"},
			want: ErrInvalidArgument,
		},
		{
			name: "subject of the other type",
			in:   CreateReviewInput{UserID: f.author.ID, SubjectType: "BLOG", SubjectID: f.course.ID.Hex(), Rating: 3, Message: "x"},
			want: ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateOrReplace(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReviewService_ReactToggle(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	id := f.create(t, f.author.ID, f.course, models.SubjectCourse, 4)
	reactor := f.addUser(t)

	liked, err := f.svc.React(ctx, id, reactor, "like")
	require.NoError(t, err)
	assert.Equal(t, []string{reactor.Hex()}, liked.LikedBy)
	assert.Equal(t, 1, liked.LikeCount)

	unliked, err := f.svc.React(ctx, id, reactor, "like")
	require.NoError(t, err)
	assert.Empty(t, unliked.LikedBy)
	assert.Empty(t, unliked.DislikedBy)
}

func TestReviewService_ReactSwitchesKind(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	id := f.create(t, f.author.ID, f.course, models.SubjectCourse, 4)
	reactor := f.addUser(t)

	_, err := f.svc.React(ctx, id, reactor, "like")
	require.NoError(t, err)
	got, err := f.svc.React(ctx, id, reactor, "DISLIKE")
	require.NoError(t, err)

	assert.NotContains(t, got.LikedBy, reactor.Hex())
	assert.Contains(t, got.DislikedBy, reactor.Hex())
	assert.Equal(t, 0, got.LikeCount)
	assert.Equal(t, 1, got.DislikeCount)
	require.NotNil(t, got.User)
}

func TestReviewService_ReactErrors(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	id := f.create(t, f.author.ID, f.course, models.SubjectCourse, 4)

	_, err := f.svc.React(ctx, id, f.admin.ID, "purple")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.React(ctx, primitive.NewObjectID().Hex(), f.admin.ID, "like")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.React(ctx, "not-an-id", f.admin.ID, "like")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReviewService_ConcurrentReactionsFromManyUsers(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	id := f.create(t, f.author.ID, f.course, models.SubjectCourse, 4)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := "like"
			if i%2 == 1 {
				kind = "dislike"
			}
			_, err := f.svc.React(ctx, id, primitive.NewObjectID(), kind)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, n/2, got.LikeCount)
	assert.Equal(t, n/2, got.DislikeCount)
}

func TestReviewService_SummaryAllFives(t *testing.T) {
	f := newReviewFixture(t)
	for i := 0; i < 5; i++ {
		f.create(t, f.addUser(t), f.course, models.SubjectCourse, 5)
	}

	sum, err := f.svc.Summary(context.Background(), "COURSE", f.course.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 5.0, sum.AvgRating)
	assert.EqualValues(t, 5, sum.TotalReviews)
	assert.Equal(t, 100, sum.FiveStar)
	assert.Zero(t, sum.OneStar)
	assert.Zero(t, sum.TwoStar)
	assert.Zero(t, sum.ThreeStar)
	assert.Zero(t, sum.FourStar)
}

func TestReviewService_SummaryErrors(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	_, err := f.svc.Summary(ctx, "COURSE", f.course.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Summary(ctx, "COURSE", "zzz")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.Summary(ctx, "", f.course.ID.Hex())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSummarize_RoundsIndependently(t *testing.T) {
	id := primitive.NewObjectID()

	sum, err := summarize(models.SubjectBlog, id, []models.RatingCount{
		{Rating: 1, Count: 1},
		{Rating: 4, Count: 1},
		{Rating: 5, Count: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 3.3, sum.AvgRating)
	assert.Equal(t, 33, sum.OneStar)
	assert.Equal(t, 33, sum.FourStar)
	assert.Equal(t, 33, sum.FiveStar)
	assert.Equal(t, map[int]int64{1: 1, 2: 0, 3: 0, 4: 1, 5: 1}, sum.Counts)

	sum, err = summarize(models.SubjectBlog, id, []models.RatingCount{
		{Rating: 4, Count: 2},
		{Rating: 5, Count: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 4.3, sum.AvgRating)
	assert.Equal(t, 67, sum.FourStar)
	assert.Equal(t, 33, sum.FiveStar)
}

func TestReviewService_ReplyAndDelete(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	id := f.create(t, f.author.ID, f.course, models.SubjectCourse, 3)

	_, err := f.svc.Reply(ctx, primitive.NewObjectID().Hex(), f.admin.ID, "hello")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Reply(ctx, id, f.admin.ID, "  ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	stranger := f.addUser(t)
	assert.ErrorIs(t, f.svc.Delete(ctx, id, stranger, false), ErrForbidden)
	assert.NoError(t, f.svc.Delete(ctx, id, f.author.ID, false))
	assert.ErrorIs(t, f.svc.Delete(ctx, id, f.admin.ID, true), ErrNotFound)

	_, err = f.svc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, DefaultPageSize},
		{-3, 20, 1, 20},
		{2, 101, 2, MaxPageSize},
		{4, 1, 4, 1},
	}
	for _, tt := range tests {
		p, s := normalizePage(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantSize, s)
	}
}
