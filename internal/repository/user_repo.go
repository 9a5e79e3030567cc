package repository

import (
	"context"
	"datalingua/internal/model"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepo handles researcher accounts
type UserRepo interface {
	Create(ctx context.Context, user *model.User) (string, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, status model.UserStatus) ([]*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type userRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(db *mongo.Database) UserRepo {
	repo := &userRepo{
		collection: db.Collection("users"),
	}
	createIndex(context.Background(), repo.collection, bson.D{{Key: "email", Value: 1}}, true)
	return repo
}

func (r *userRepo) Create(ctx context.Context, user *model.User) (string, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	result, err := r.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return "", ErrDuplicateEmail
	}
	if err != nil {
		return "", err
	}
	user.ID = insertedHex(result)
	return user.ID, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *userRepo) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context, status model.UserStatus) ([]*model.User, error) {
	filter := bson.M{}
	switch status {
	case model.UserStatusPending:
		filter["isApproved"] = false
		filter["isBanned"] = bson.M{"$ne": true}
	case model.UserStatusActive:
		filter["isApproved"] = true
		filter["isBanned"] = bson.M{"$ne": true}
	case model.UserStatusBanned:
		filter["isBanned"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []*model.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	oid, ok := objectID(user.ID)
	if !ok {
		return mongo.ErrNoDocuments
	}

	user.UpdatedAt = time.Now()
	id := user.ID
	user.ID = ""
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, user)
	user.ID = id
	return err
}
