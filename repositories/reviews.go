package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"institute-reviews/models"
)

type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{col: db.Collection("reviews")}
}

type ListReviewsOptions struct {
	Page        int
	PageSize    int
	SubjectType models.SubjectType
	SubjectID   *primitive.ObjectID
}

func (o ListReviewsOptions) filter() bson.M {
	filter := bson.M{"subject_type": o.SubjectType}
	if o.SubjectID != nil {
		filter["subject_id"] = *o.SubjectID
	}
	return filter
}

// FindByID returns a review by its ObjectID
func (r *ReviewRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var rv models.Review
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rv); err != nil {
		return nil, wrapErr("reviews.find_by_id", err)
	}
	return &rv, nil
}

// List returns reviews of one subject type (optionally one subject), newest first.
// Page and PageSize must already be normalized by the caller.
func (r *ReviewRepository) List(ctx context.Context, opt ListReviewsOptions) ([]models.Review, int64, error) {
	filter := opt.filter()

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapErr("reviews.count", err)
	}

	skip := int64((opt.Page - 1) * opt.PageSize)
	findOpts := options.Find().SetSkip(skip).SetLimit(int64(opt.PageSize)).SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, wrapErr("reviews.list", err)
	}
	defer cur.Close(ctx)

	results := []models.Review{}
	for cur.Next(ctx) {
		var rv models.Review
		if err := cur.Decode(&rv); err != nil {
			return nil, 0, err
		}
		results = append(results, rv)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, wrapErr("reviews.list", err)
	}
	return results, total, nil
}

// ReplaceForAuthor stores rv as the only review of its author for its subject.
// A previous review by the same author is overwritten in place (its _id survives);
// reactions and replies are reset. The unique author/subject index turns a racing
// second insert into ErrDuplicate.
func (r *ReviewRepository) ReplaceForAuthor(ctx context.Context, rv *models.Review) (*models.Review, error) {
	now := time.Now()
	rv.ID = primitive.NilObjectID
	rv.CreatedAt = now
	rv.UpdatedAt = now
	if rv.LikedBy == nil {
		rv.LikedBy = []primitive.ObjectID{}
	}
	if rv.DislikedBy == nil {
		rv.DislikedBy = []primitive.ObjectID{}
	}

	filter := bson.M{
		"user_id":      rv.UserID,
		"subject_type": rv.SubjectType,
		"subject_id":   rv.SubjectID,
	}
	opts := options.FindOneAndReplace().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.Review
	if err := r.col.FindOneAndReplace(ctx, filter, rv, opts).Decode(&saved); err != nil {
		return nil, wrapErr("reviews.replace_for_author", err)
	}
	return &saved, nil
}

// SetReply stores an admin reply on the review and returns the updated document.
func (r *ReviewRepository) SetReply(ctx context.Context, id, replierID primitive.ObjectID, message string, at time.Time) (*models.Review, error) {
	update := bson.M{"$set": bson.M{
		"replier_id":    replierID,
		"reply_message": message,
		"replied_at":    at,
		"updated_at":    at,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rv models.Review
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&rv); err != nil {
		return nil, wrapErr("reviews.set_reply", err)
	}
	return &rv, nil
}

// ToggleReaction flips userID's membership in the kind set and drops it from the
// opposite set, in one pipeline update so concurrent reactors never overwrite each other.
func (r *ReviewRepository) ToggleReaction(ctx context.Context, id, userID primitive.ObjectID, kind models.ReactionKind) (*models.Review, error) {
	update := toggleReactionPipeline(userID, kind, time.Now())
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rv models.Review
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&rv); err != nil {
		return nil, wrapErr("reviews.toggle_reaction", err)
	}
	return &rv, nil
}

func toggleReactionPipeline(userID primitive.ObjectID, kind models.ReactionKind, now time.Time) mongo.Pipeline {
	target := bson.D{{Key: "$ifNull", Value: bson.A{"$" + kind.Field(), bson.A{}}}}
	opposite := bson.D{{Key: "$ifNull", Value: bson.A{"$" + kind.Opposite().Field(), bson.A{}}}}
	without := func(set bson.D) bson.D {
		return bson.D{{Key: "$filter", Value: bson.D{
			{Key: "input", Value: set},
			{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", userID}}}},
		}}}
	}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: kind.Field(), Value: bson.D{{Key: "$cond", Value: bson.D{
				{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{userID, target}}}},
				{Key: "then", Value: without(target)},
				{Key: "else", Value: bson.D{{Key: "$concatArrays", Value: bson.A{target, bson.A{userID}}}}},
			}}}},
			{Key: kind.Opposite().Field(), Value: without(opposite)},
			{Key: "updated_at", Value: now},
		}}},
	}
}

// Delete removes a review by id.
func (r *ReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapErr("reviews.delete", err)
	}
	if res.DeletedCount == 0 {
		return wrapErr("reviews.delete", mongo.ErrNoDocuments)
	}
	return nil
}

// RatingCounts groups the subject's reviews by rating.
func (r *ReviewRepository) RatingCounts(ctx context.Context, subjectType models.SubjectType, subjectID primitive.ObjectID) ([]models.RatingCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "subject_type", Value: subjectType},
			{Key: "subject_id", Value: subjectID},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$rating"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("reviews.rating_counts", err)
	}
	defer cur.Close(ctx)

	counts := []models.RatingCount{}
	if err := cur.All(ctx, &counts); err != nil {
		return nil, wrapErr("reviews.rating_counts", err)
	}
	return counts, nil
}
