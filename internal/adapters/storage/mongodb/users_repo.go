package mongodb

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-registry/internal/domain/access"
	"pet-registry/internal/domain/users"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	UserName     string    `bson:"user_name"`
	Email        string    `bson:"email"`
	EmailCI      string    `bson:"email_ci"` // lowercase, para el índice único
	Role         string    `bson:"role"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func foldEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toUserDoc(u users.User) userDoc {
	return userDoc{
		ID:           u.ID,
		UserName:     u.UserName,
		Email:        u.Email,
		EmailCI:      foldEmail(u.Email),
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) toUser() (users.User, error) {
	role, err := access.ParseRole(d.Role)
	if err != nil {
		return users.User{}, err
	}
	return users.User{
		ID:           d.ID,
		UserName:     d.UserName,
		Email:        d.Email,
		Role:         role,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}

type UsersRepo struct {
	coll *mongo.Collection
}

func NewUsersRepo(db *mongo.Database) *UsersRepo {
	return &UsersRepo{coll: db.Collection(usersCollection)}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.coll.InsertOne(ctx, toUserDoc(u))
	return mapUserErr(err)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	var d userDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return users.User{}, mapUserErr(err)
	}
	return d.toUser()
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	return r.find(ctx, bson.M{})
}

func (r *UsersRepo) ListByIDs(ctx context.Context, ids []string) ([]users.User, error) {
	if len(ids) == 0 {
		return []users.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *UsersRepo) Update(ctx context.Context, id string, p users.Patch) (users.User, error) {
	set := bson.M{"updated_at": p.UpdatedAt}
	if p.UserName != nil {
		set["user_name"] = *p.UserName
	}
	if p.Email != nil {
		set["email"] = *p.Email
		set["email_ci"] = foldEmail(*p.Email)
	}
	if p.PasswordHash != nil {
		set["password_hash"] = *p.PasswordHash
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d userDoc
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&d); err != nil {
		return users.User{}, mapUserErr(err)
	}
	return d.toUser()
}

func (r *UsersRepo) Delete(ctx context.Context, id string) (users.User, error) {
	var d userDoc
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return users.User{}, mapUserErr(err)
	}
	return d.toUser()
}

func (r *UsersRepo) find(ctx context.Context, filter bson.M) ([]users.User, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]users.User, 0)
	for cur.Next(ctx) {
		var d userDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		u, err := d.toUser()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, cur.Err()
}

func mapUserErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return users.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return users.ErrEmailTaken
	default:
		return err
	}
}
