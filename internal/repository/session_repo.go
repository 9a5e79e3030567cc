package repository

import (
	"context"
	"datalingua/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionRepo stores fill-in telemetry, one document per (survey, respondent)
type SessionRepo interface {
	RecordStep(ctx context.Context, rec *model.StepRecord) error
	Get(ctx context.Context, surveyID, respondentID string) (*model.SurveySession, error)
	Stats(ctx context.Context, surveyID string) (*model.SessionStats, error)
	DeleteBySurvey(ctx context.Context, surveyID string) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	repo := &sessionRepo{
		collection: db.Collection("survey_sessions"),
	}

	ctx := context.Background()
	createIndex(ctx, repo.collection, bson.D{
		{Key: "surveyId", Value: 1},
		{Key: "respondentId", Value: 1},
	}, true)

	return repo
}

// RecordStep appends a step to the respondent's session, creating it on first use
func (r *sessionRepo) RecordStep(ctx context.Context, rec *model.StepRecord) error {
	step := rec.Step
	if step.Timestamp.IsZero() {
		step.Timestamp = time.Now()
	}

	set := bson.M{
		"lastActivity":         step.Timestamp,
		"currentQuestionIndex": step.QuestionIndex,
	}
	onInsert := bson.M{
		"startTime":   step.Timestamp,
		"browserInfo": rec.BrowserInfo,
	}
	switch step.Action {
	case model.StepAbandoned:
		set["isAbandoned"] = true
		onInsert["isCompleted"] = false
	case model.StepCompleted:
		set["isCompleted"] = true
		onInsert["isAbandoned"] = false
	default:
		onInsert["isCompleted"] = false
		onInsert["isAbandoned"] = false
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": onInsert,
		"$push":        bson.M{"steps": step},
	}
	filter := bson.M{"surveyId": rec.SurveyID, "respondentId": rec.RespondentID}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *sessionRepo) Get(ctx context.Context, surveyID, respondentID string) (*model.SurveySession, error) {
	var session model.SurveySession
	err := r.collection.FindOne(ctx, bson.M{"surveyId": surveyID, "respondentId": respondentID}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Stats computes completion and abandonment figures for a survey
func (r *sessionRepo) Stats(ctx context.Context, surveyID string) (*model.SessionStats, error) {
	match := bson.M{"surveyId": surveyID}

	total, err := r.collection.CountDocuments(ctx, match)
	if err != nil {
		return nil, err
	}
	completed, err := r.collection.CountDocuments(ctx, bson.M{"surveyId": surveyID, "isCompleted": true})
	if err != nil {
		return nil, err
	}
	abandoned, err := r.collection.CountDocuments(ctx, bson.M{"surveyId": surveyID, "isAbandoned": true})
	if err != nil {
		return nil, err
	}

	stats := &model.SessionStats{
		TotalSessions:      total,
		CompletedSessions:  completed,
		AbandonedSessions:  abandoned,
		AbandonmentPoints:  []model.AbandonmentPoint{},
		AvgTimePerQuestion: []model.QuestionTiming{},
	}
	if total > 0 {
		stats.CompletionRate = float64(completed) / float64(total) * 100
		stats.AbandonmentRate = float64(abandoned) / float64(total) * 100
	}

	points, err := r.abandonmentPoints(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	stats.AbandonmentPoints = points

	timings, err := r.timePerQuestion(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	stats.AvgTimePerQuestion = timings

	return stats, nil
}

func (r *sessionRepo) abandonmentPoints(ctx context.Context, surveyID string) ([]model.AbandonmentPoint, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"surveyId": surveyID}}},
		{{Key: "$unwind", Value: "$steps"}},
		{{Key: "$match", Value: bson.M{"steps.action": model.StepAbandoned}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"questionId": "$steps.questionId", "questionIndex": "$steps.questionIndex"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Key struct {
			QuestionID    string `bson:"questionId"`
			QuestionIndex int    `bson:"questionIndex"`
		} `bson:"_id"`
		Count int `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	points := make([]model.AbandonmentPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, model.AbandonmentPoint{
			QuestionID:    row.Key.QuestionID,
			QuestionIndex: row.Key.QuestionIndex,
			Count:         row.Count,
		})
	}
	return points, nil
}

func (r *sessionRepo) timePerQuestion(ctx context.Context, surveyID string) ([]model.QuestionTiming, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"surveyId": surveyID}}},
		{{Key: "$unwind", Value: "$steps"}},
		{{Key: "$match", Value: bson.M{"steps.action": bson.M{"$in": bson.A{model.StepAnswered, model.StepSkipped}}}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$steps.questionId",
			"avgTime": bson.M{"$avg": "$steps.timeSpent"},
			"count":   bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		QuestionID string  `bson:"_id"`
		AvgTime    float64 `bson:"avgTime"`
		Count      int     `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	timings := make([]model.QuestionTiming, 0, len(rows))
	for _, row := range rows {
		timings = append(timings, model.QuestionTiming{
			QuestionID:     row.QuestionID,
			AvgTimeSeconds: row.AvgTime,
			Count:          row.Count,
		})
	}
	return timings, nil
}

func (r *sessionRepo) DeleteBySurvey(ctx context.Context, surveyID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"surveyId": surveyID})
	return err
}
