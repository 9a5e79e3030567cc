package repository

import (
	"context"
	"datalingua/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResponseRepo stores submitted responses, one per (survey, respondent)
type ResponseRepo interface {
	Create(ctx context.Context, resp *model.Response) (string, error)
	GetBySurvey(ctx context.Context, surveyID string) ([]*model.Response, error)
	FindByRespondent(ctx context.Context, surveyID, respondentID string) (*model.Response, error)
	CountBySurvey(ctx context.Context, surveyID string) (int64, error)
	CountBySurveys(ctx context.Context, surveyIDs []string) (map[string]int64, error)
	DeleteBySurvey(ctx context.Context, surveyID string) error
}

type responseRepo struct {
	collection *mongo.Collection
}

func NewResponseRepo(db *mongo.Database) ResponseRepo {
	repo := &responseRepo{
		collection: db.Collection("responses"),
	}

	ctx := context.Background()
	createIndex(ctx, repo.collection, bson.D{
		{Key: "surveyId", Value: 1},
		{Key: "respondentId", Value: 1},
	}, true)
	createIndex(ctx, repo.collection, bson.D{
		{Key: "surveyId", Value: 1},
		{Key: "submittedAt", Value: -1},
	}, false)

	return repo
}

// Create inserts the response. A second response from the same respondent
// fails with ErrDuplicateResponse.
func (r *responseRepo) Create(ctx context.Context, resp *model.Response) (string, error) {
	if resp.SubmittedAt.IsZero() {
		resp.SubmittedAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, resp)
	if mongo.IsDuplicateKeyError(err) {
		return "", ErrDuplicateResponse
	}
	if err != nil {
		return "", err
	}
	resp.ID = insertedHex(result)
	return resp.ID, nil
}

func (r *responseRepo) GetBySurvey(ctx context.Context, surveyID string) ([]*model.Response, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"surveyId": surveyID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	responses := []*model.Response{}
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepo) FindByRespondent(ctx context.Context, surveyID, respondentID string) (*model.Response, error) {
	var resp model.Response
	err := r.collection.FindOne(ctx, bson.M{"surveyId": surveyID, "respondentId": respondentID}).Decode(&resp)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *responseRepo) CountBySurvey(ctx context.Context, surveyID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"surveyId": surveyID})
}

// CountBySurveys counts responses for several surveys in one aggregation
func (r *responseRepo) CountBySurveys(ctx context.Context, surveyIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(surveyIDs))
	if len(surveyIDs) == 0 {
		return counts, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"surveyId": bson.M{"$in": surveyIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$surveyId", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		SurveyID string `bson:"_id"`
		Count    int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.SurveyID] = row.Count
	}
	return counts, nil
}

func (r *responseRepo) DeleteBySurvey(ctx context.Context, surveyID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"surveyId": surveyID})
	return err
}
