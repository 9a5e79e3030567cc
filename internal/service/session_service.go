package service

import (
	"context"
	"datalingua/internal/logger"
	"datalingua/internal/metrics"
	"datalingua/internal/model"
	"datalingua/internal/repository"
	"fmt"
	"sync"
	"time"
)

const (
	stepBuffer  = 256
	stepTimeout = 5 * time.Second
)

// SessionService records fill-in telemetry and reports session statistics.
// Steps recorded through Record are written by a single worker goroutine so
// respondents never wait on the database.
type SessionService struct {
	sessionRepo repository.SessionRepo
	surveyRepo  repository.SurveyRepo

	steps chan *model.StepRecord
	done  chan struct{}
	once  sync.Once
}

// NewSessionService creates the service and starts its writer
func NewSessionService(sessionRepo repository.SessionRepo, surveyRepo repository.SurveyRepo) *SessionService {
	s := &SessionService{
		sessionRepo: sessionRepo,
		surveyRepo:  surveyRepo,
		steps:       make(chan *model.StepRecord, stepBuffer),
		done:        make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *SessionService) run() {
	defer close(s.done)
	for rec := range s.steps {
		ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
		if err := s.sessionRepo.RecordStep(ctx, rec); err != nil {
			logger.WithFields(logger.Fields{
				"survey":     rec.SurveyID,
				"respondent": rec.RespondentID,
				"action":     rec.Step.Action,
			}).WithError(err).Warn("failed to record session step")
		}
		cancel()
	}
}

// Record queues a step without blocking; when the buffer is full the step is dropped
func (s *SessionService) Record(rec *model.StepRecord) {
	defer func() {
		// send on closed channel after Close
		if recover() != nil {
			metrics.TelemetryDropped.Inc()
		}
	}()
	select {
	case s.steps <- rec:
	default:
		metrics.TelemetryDropped.Inc()
		logger.WithFields(logger.Fields{"survey": rec.SurveyID}).Warn("telemetry buffer full, step dropped")
	}
}

// Close stops accepting steps and waits for queued ones to be written
func (s *SessionService) Close() {
	s.once.Do(func() { close(s.steps) })
	<-s.done
}

// Track validates a step posted by a client and writes it synchronously
func (s *SessionService) Track(ctx context.Context, rec *model.StepRecord) error {
	if rec.SurveyID == "" || rec.RespondentID == "" {
		return fmt.Errorf("%w: surveyId and respondentId are required", ErrValidation)
	}
	if !rec.Step.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrValidation, rec.Step.Action)
	}
	if rec.Step.TimeSpent < 0 {
		return fmt.Errorf("%w: timeSpent must not be negative", ErrValidation)
	}
	return s.sessionRepo.RecordStep(ctx, rec)
}

// Stats returns completion and abandonment statistics for a survey the actor manages
func (s *SessionService) Stats(ctx context.Context, actor Actor, surveyID string) (*model.SessionStats, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, ErrNotFound
	}
	if !actor.canManage(survey) {
		return nil, ErrForbidden
	}
	return s.sessionRepo.Stats(ctx, surveyID)
}
