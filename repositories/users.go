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

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection("users")}
}

// Insert creates a new user. Role+phone and role+email are unique.
func (r *UserRepository) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		return nil, wrapErr("users.insert", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = id
	}
	return u, nil
}

// FindByID returns a user by its ObjectID
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, wrapErr("users.find_by_id", err)
	}
	return &u, nil
}

// FindByPhone returns the user registered with phone under role.
func (r *UserRepository) FindByPhone(ctx context.Context, role, phone string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"role": role, "phone_number": phone}).Decode(&u); err != nil {
		return nil, wrapErr("users.find_by_phone", err)
	}
	return &u, nil
}

// FindRefs loads public profiles for ids in one query. Unknown ids are skipped.
func (r *UserRepository) FindRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserRef, error) {
	out := make(map[primitive.ObjectID]models.UserRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	findOpts := options.Find().SetProjection(bson.M{
		"role":       1,
		"first_name": 1,
		"last_name":  1,
		"image_key":  1,
	})
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, findOpts)
	if err != nil {
		return nil, wrapErr("users.find_refs", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var ref models.UserRef
		if err := cur.Decode(&ref); err != nil {
			return nil, err
		}
		out[ref.ID] = ref
	}
	if err := cur.Err(); err != nil {
		return nil, wrapErr("users.find_refs", err)
	}
	return out, nil
}
