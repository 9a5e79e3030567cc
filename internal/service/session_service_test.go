package service

import (
	"context"
	"datalingua/internal/model"
	"errors"
	"testing"
)

func TestSessionTrack(t *testing.T) {
	repo := &fakeSessionRepo{}
	svc := NewSessionService(repo, newFakeSurveyRepo())
	defer svc.Close()

	tests := []struct {
		name string
		rec  model.StepRecord
		ok   bool
	}{
		{"valid", model.StepRecord{SurveyID: "s", RespondentID: "r", Step: model.SessionStep{Action: model.StepViewed}}, true},
		{"missing respondent", model.StepRecord{SurveyID: "s", Step: model.SessionStep{Action: model.StepViewed}}, false},
		{"unknown action", model.StepRecord{SurveyID: "s", RespondentID: "r", Step: model.SessionStep{Action: "jumped"}}, false},
		{"negative time", model.StepRecord{SurveyID: "s", RespondentID: "r", Step: model.SessionStep{Action: model.StepSkipped, TimeSpent: -1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Track(context.Background(), &tt.rec)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestSessionRecordDrainsOnClose(t *testing.T) {
	repo := &fakeSessionRepo{}
	svc := NewSessionService(repo, newFakeSurveyRepo())

	for i := 0; i < 10; i++ {
		svc.Record(&model.StepRecord{SurveyID: "s", RespondentID: "r", Step: model.SessionStep{Action: model.StepAnswered, QuestionIndex: i}})
	}
	svc.Close()

	if got := len(repo.actions()); got != 10 {
		t.Fatalf("expected 10 recorded steps, got %d", got)
	}

	// recording after close is dropped, not a panic
	svc.Record(&model.StepRecord{SurveyID: "s", RespondentID: "r"})
}

func TestSessionStatsOwnership(t *testing.T) {
	surveys := newFakeSurveyRepo()
	svc := NewSessionService(&fakeSessionRepo{}, surveys)
	defer svc.Close()
	ctx := context.Background()
	id, _ := surveys.Create(ctx, &model.Survey{Title: "t", CreatedBy: "owner"})

	if _, err := svc.Stats(ctx, Actor{ID: "owner", Role: model.RoleResearcher}, id); err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if _, err := svc.Stats(ctx, Actor{ID: "other", Role: model.RoleResearcher}, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Stats(ctx, Actor{ID: "owner"}, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
