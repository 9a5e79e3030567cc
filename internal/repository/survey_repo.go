package repository

import (
	"context"
	"datalingua/internal/model"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SurveyRepo handles MongoDB operations for surveys
type SurveyRepo interface {
	Create(ctx context.Context, survey *model.Survey) (string, error)
	GetByID(ctx context.Context, id string) (*model.Survey, error)
	GetByShareableID(ctx context.Context, shareableID string) (*model.Survey, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Survey, error)
	ListPublic(ctx context.Context, search string, limit int64) ([]*model.Survey, error)
	Update(ctx context.Context, survey *model.Survey) error
	Delete(ctx context.Context, id string) error
}

type surveyRepo struct {
	collection *mongo.Collection
}

// NewSurveyRepo creates a new survey repository with indexes
func NewSurveyRepo(db *mongo.Database) SurveyRepo {
	repo := &surveyRepo{
		collection: db.Collection("surveys"),
	}

	ctx := context.Background()
	createIndex(ctx, repo.collection, bson.D{{Key: "shareableId", Value: 1}}, true)
	createIndex(ctx, repo.collection, bson.D{
		{Key: "createdBy", Value: 1},
		{Key: "createdAt", Value: -1},
	}, false)

	return repo
}

func (r *surveyRepo) Create(ctx context.Context, survey *model.Survey) (string, error) {
	survey.CreatedAt = time.Now()
	survey.UpdatedAt = survey.CreatedAt

	result, err := r.collection.InsertOne(ctx, survey)
	if err != nil {
		return "", err
	}
	survey.ID = insertedHex(result)
	return survey.ID, nil
}

func (r *surveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *surveyRepo) GetByShareableID(ctx context.Context, shareableID string) (*model.Survey, error) {
	return r.findOne(ctx, bson.M{"shareableId": shareableID})
}

func (r *surveyRepo) findOne(ctx context.Context, filter bson.M) (*model.Survey, error) {
	var survey model.Survey
	err := r.collection.FindOne(ctx, filter).Decode(&survey)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *surveyRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Survey, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"createdBy": ownerID}, opts)
}

// ListPublic returns active surveys, newest first, optionally matching search
// against title and description
func (r *surveyRepo) ListPublic(ctx context.Context, search string, limit int64) ([]*model.Survey, error) {
	filter := bson.M{"isActive": bson.M{"$ne": false}}
	if search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, filter, opts)
}

func (r *surveyRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Survey, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	surveys := []*model.Survey{}
	if err := cursor.All(ctx, &surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}

func (r *surveyRepo) Update(ctx context.Context, survey *model.Survey) error {
	oid, ok := objectID(survey.ID)
	if !ok {
		return mongo.ErrNoDocuments
	}

	survey.UpdatedAt = time.Now()
	id := survey.ID
	survey.ID = ""
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, survey)
	survey.ID = id
	return err
}

func (r *surveyRepo) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return nil
	}
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
