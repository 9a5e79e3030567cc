package service

import (
	"context"
	"datalingua/internal/engine"
	"datalingua/internal/fault"
	"datalingua/internal/logger"
	"datalingua/internal/model"
	"datalingua/internal/repository"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SurveyService handles survey CRUD operations
type SurveyService struct {
	surveyRepo   repository.SurveyRepo
	responseRepo repository.ResponseRepo
	sessionRepo  repository.SessionRepo
}

// NewSurveyService creates a new survey service
func NewSurveyService(surveyRepo repository.SurveyRepo, responseRepo repository.ResponseRepo, sessionRepo repository.SessionRepo) *SurveyService {
	return &SurveyService{
		surveyRepo:   surveyRepo,
		responseRepo: responseRepo,
		sessionRepo:  sessionRepo,
	}
}

// Create validates and stores a new survey owned by the actor
func (s *SurveyService) Create(ctx context.Context, actor Actor, survey *model.Survey) (*model.Survey, error) {
	prepare(survey)
	if err := engine.Validate(survey); err != nil {
		return nil, fault.NewClientError("survey rejected", fmt.Errorf("%w: %w", ErrValidation, err))
	}

	survey.ID = ""
	survey.ShareableID = uuid.New().String()
	survey.CreatedBy = actor.ID
	survey.CreatedByType = model.CreatorUser
	if actor.IsAdmin() {
		survey.CreatedByType = model.CreatorAdmin
	}

	if _, err := s.surveyRepo.Create(ctx, survey); err != nil {
		return nil, fault.NewInternalError("failed to store survey", err)
	}
	logger.WithFields(logger.Fields{"survey": survey.ID, "owner": actor.ID}).Info("survey created")
	return survey, nil
}

// prepare fills section order and ids left out by the editor
func prepare(survey *model.Survey) {
	ordered := false
	for _, sec := range survey.Sections {
		if sec.Order != 0 {
			ordered = true
			break
		}
	}
	for i := range survey.Sections {
		if !ordered {
			survey.Sections[i].Order = i
		}
		if survey.Sections[i].ID == "" {
			survey.Sections[i].ID = fmt.Sprintf("section-%d", i+1)
		}
	}
}

// Get returns a survey the actor owns, or any survey for an admin
func (s *SurveyService) Get(ctx context.Context, actor Actor, id string) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fault.NewInternalError("failed to load survey", err)
	}
	if survey == nil {
		return nil, ErrNotFound
	}
	if !actor.canManage(survey) {
		return nil, ErrForbidden
	}
	return survey, nil
}

// GetByShareable returns the public survey behind a share link
func (s *SurveyService) GetByShareable(ctx context.Context, shareableID string) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByShareableID(ctx, shareableID)
	if err != nil {
		return nil, fault.NewInternalError("failed to load survey", err)
	}
	if survey == nil {
		return nil, ErrNotFound
	}
	return survey, nil
}

// ListMine returns the actor's surveys
func (s *SurveyService) ListMine(ctx context.Context, actor Actor) ([]*model.Survey, error) {
	return s.surveyRepo.ListByOwner(ctx, actor.ID)
}

// ListPublic returns active surveys with their response counts
func (s *SurveyService) ListPublic(ctx context.Context, search string, limit int64) ([]model.SurveySummary, error) {
	surveys, err := s.surveyRepo.ListPublic(ctx, search, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(surveys))
	for i, sv := range surveys {
		ids[i] = sv.ID
	}
	counts, err := s.responseRepo.CountBySurveys(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.SurveySummary, 0, len(surveys))
	for _, sv := range surveys {
		sum := model.SurveySummary{
			ID:            sv.ID,
			Title:         sv.Title,
			Description:   sv.Description,
			ShareableID:   sv.ShareableID,
			ResponseCount: counts[sv.ID],
			CreatedAt:     sv.CreatedAt,
		}
		for _, q := range sv.AllQuestions() {
			sum.QuestionCount++
			sum.HasAudio = sum.HasAudio || q.Type == model.QuestionAudio
			sum.HasFiles = sum.HasFiles || q.Type == model.QuestionFileUpload
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// Update replaces the survey definition; ownership and share link are kept
func (s *SurveyService) Update(ctx context.Context, actor Actor, id string, survey *model.Survey) (*model.Survey, error) {
	existing, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	prepare(survey)
	if err := engine.Validate(survey); err != nil {
		return nil, fault.NewClientError("survey rejected", fmt.Errorf("%w: %w", ErrValidation, err))
	}

	survey.ID = existing.ID
	survey.ShareableID = existing.ShareableID
	survey.CreatedBy = existing.CreatedBy
	survey.CreatedByType = existing.CreatedByType
	survey.CreatedAt = existing.CreatedAt
	if err := s.surveyRepo.Update(ctx, survey); err != nil {
		return nil, fault.NewInternalError("failed to update survey", err)
	}
	return survey, nil
}

// Delete removes the survey with its responses and telemetry
func (s *SurveyService) Delete(ctx context.Context, actor Actor, id string) error {
	survey, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.surveyRepo.Delete(ctx, survey.ID); err != nil {
		return fault.NewInternalError("failed to delete survey", err)
	}
	if err := s.responseRepo.DeleteBySurvey(ctx, survey.ID); err != nil {
		logger.WithError(err).Warnf("failed to delete responses of survey %s", survey.ID)
	}
	if err := s.sessionRepo.DeleteBySurvey(ctx, survey.ID); err != nil {
		logger.WithError(err).Warnf("failed to delete sessions of survey %s", survey.ID)
	}
	return nil
}

// Open reports whether the survey accepts responses at now
func Open(survey *model.Survey, now time.Time) error {
	if !survey.Active() {
		return fmt.Errorf("%w: survey is inactive", ErrSurveyClosed)
	}
	if survey.ScheduledDate != nil && now.Before(*survey.ScheduledDate) {
		return fmt.Errorf("%w: survey opens %s", ErrSurveyClosed, survey.ScheduledDate.Format(time.RFC3339))
	}
	if survey.ExpirationDate != nil && now.After(*survey.ExpirationDate) {
		return fmt.Errorf("%w: survey expired %s", ErrSurveyClosed, survey.ExpirationDate.Format(time.RFC3339))
	}
	return nil
}

// Responses lists the submitted responses of a survey the actor manages, newest first
func (s *SurveyService) Responses(ctx context.Context, actor Actor, id string) ([]*model.Response, error) {
	survey, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.responseRepo.GetBySurvey(ctx, survey.ID)
}
