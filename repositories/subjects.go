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

// SubjectRepository reads and seeds one subject collection (courses or blogs).
type SubjectRepository struct {
	col         *mongo.Collection
	subjectType models.SubjectType
}

func NewSubjectRepository(db *mongo.Database, t models.SubjectType) *SubjectRepository {
	return &SubjectRepository{col: db.Collection(t.Collection()), subjectType: t}
}

func NewCourseRepository(db *mongo.Database) *SubjectRepository {
	return NewSubjectRepository(db, models.SubjectCourse)
}

func NewBlogRepository(db *mongo.Database) *SubjectRepository {
	return NewSubjectRepository(db, models.SubjectBlog)
}

// Type returns the subject type this repository serves.
func (r *SubjectRepository) Type() models.SubjectType { return r.subjectType }

// Exists reports whether a subject with the given id is stored.
func (r *SubjectRepository) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := r.col.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, wrapErr("subjects.exists", err)
	}
	return true, nil
}

// FindRefs loads the {id, name, short_desc} projections for ids. Unknown ids are skipped.
func (r *SubjectRepository) FindRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.SubjectRef, error) {
	out := make(map[primitive.ObjectID]models.SubjectRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	findOpts := options.Find().SetProjection(bson.M{"name": 1, "short_desc": 1})
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, findOpts)
	if err != nil {
		return nil, wrapErr("subjects.find_refs", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var ref models.SubjectRef
		if err := cur.Decode(&ref); err != nil {
			return nil, err
		}
		ref.Type = r.subjectType
		out[ref.ID] = ref
	}
	if err := cur.Err(); err != nil {
		return nil, wrapErr("subjects.find_refs", err)
	}
	return out, nil
}

// UpsertByName upserts a subject document identified by its name.
func (r *SubjectRepository) UpsertByName(ctx context.Context, s *models.Subject, extra bson.M) (*mongo.UpdateResult, error) {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	set := bson.M{
		"updated_at":  s.UpdatedAt,
		"name":        s.Name,
		"short_desc":  s.ShortDesc,
		"category_id": s.CategoryID,
		"image_key":   s.ImageKey,
	}
	for k, v := range extra {
		set[k] = v
	}
	filter := bson.M{"name": s.Name}
	update := bson.M{
		"$setOnInsert": bson.M{
			"created_at": s.CreatedAt,
		},
		"$set": set,
	}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	return res, wrapErr("subjects.upsert", err)
}
