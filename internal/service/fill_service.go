package service

import (
	"context"
	"datalingua/internal/cache"
	"datalingua/internal/engine"
	"datalingua/internal/events"
	"datalingua/internal/fault"
	"datalingua/internal/logger"
	"datalingua/internal/metrics"
	"datalingua/internal/model"
	"datalingua/internal/repository"
	"datalingua/internal/storage"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Upload is a binary sent with a submission for an audio or file question
type Upload struct {
	QuestionID string
	Object     storage.Object
}

// FillService runs the respondent flow: start, answer, move between sections, submit.
// The session state lives in Redis between requests and each request holds the
// respondent's lock while it reads, changes and saves it.
type FillService struct {
	surveyRepo     repository.SurveyRepo
	responseRepo   repository.ResponseRepo
	fillCache      cache.FillCache
	analyticsCache cache.AnalyticsCache
	store          storage.Store
	limits         storage.Limits
	sessions       *SessionService
	publisher      events.Publisher
	broadcaster    Broadcaster
	now            func() time.Time
}

// NewFillService creates a new fill service
func NewFillService(
	surveyRepo repository.SurveyRepo,
	responseRepo repository.ResponseRepo,
	fillCache cache.FillCache,
	analyticsCache cache.AnalyticsCache,
	store storage.Store,
	limits storage.Limits,
	sessions *SessionService,
	publisher events.Publisher,
) *FillService {
	return &FillService{
		surveyRepo:     surveyRepo,
		responseRepo:   responseRepo,
		fillCache:      fillCache,
		analyticsCache: analyticsCache,
		store:          store,
		limits:         limits,
		sessions:       sessions,
		publisher:      publisher,
		now:            time.Now,
	}
}

// SetBroadcaster sets the broadcaster for dashboard events
func (s *FillService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// fill is one locked request against a respondent's session. Events raised
// by the session are held until its state has been saved.
type fill struct {
	survey       *model.Survey
	respondentID string
	sess         *engine.Session
	pending      []engine.Event
}

func (s *FillService) sessionOptions(f *fill) []engine.Option {
	return []engine.Option{
		engine.WithClock(s.now),
		engine.WithSink(engine.SinkFunc(func(ev engine.Event) {
			f.pending = append(f.pending, ev)
		})),
	}
}

// open loads a survey by share link and checks it accepts responses
func (s *FillService) open(ctx context.Context, shareableID string) (*model.Survey, *engine.Evaluator, error) {
	survey, err := s.surveyRepo.GetByShareableID(ctx, shareableID)
	if err != nil {
		return nil, nil, fault.NewInternalError("failed to load survey", err)
	}
	if survey == nil {
		return nil, nil, ErrNotFound
	}
	if err := Open(survey, s.now()); err != nil {
		return nil, nil, err
	}
	return survey, engine.NewEvaluator(survey), nil
}

func (s *FillService) ensureNotResponded(ctx context.Context, surveyID, respondentID string) error {
	existing, err := s.responseRepo.FindByRespondent(ctx, surveyID, respondentID)
	if err != nil {
		return fault.NewInternalError("failed to check respondent", err)
	}
	if existing != nil {
		return ErrAlreadyResponded
	}
	return nil
}

// Start opens a session for the respondent, resuming one left in progress.
// An empty respondentID is replaced by a fresh one.
func (s *FillService) Start(ctx context.Context, shareableID, respondentID string) (*model.FillState, error) {
	survey, eval, err := s.open(ctx, shareableID)
	if err != nil {
		return nil, err
	}
	if respondentID == "" {
		respondentID = uuid.New().String()
	}
	if err := s.ensureNotResponded(ctx, survey.ID, respondentID); err != nil {
		return nil, err
	}

	unlock, err := s.fillCache.Lock(ctx, survey.ID, respondentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := s.fillCache.Get(ctx, survey.ID, respondentID)
	if err != nil {
		return nil, fault.NewInternalError("failed to load session", err)
	}

	f := &fill{survey: survey, respondentID: respondentID}
	if st != nil && !st.Closed {
		f.sess = engine.RestoreSession(eval, *st, s.sessionOptions(f)...)
	} else {
		f.sess = engine.NewSession(eval, s.sessionOptions(f)...)
		metrics.SessionsStarted.Inc()
		step := model.SessionStep{Action: model.StepViewed, Timestamp: f.sess.StartedAt()}
		if q, ok := f.sess.CurrentQuestion(); ok {
			step.QuestionID = q.ID
		}
		s.record(survey.ID, respondentID, step)
	}

	state := f.sess.State()
	if err := s.fillCache.Set(ctx, survey.ID, respondentID, &state); err != nil {
		return nil, fault.NewInternalError("failed to save session", err)
	}
	return s.view(f), nil
}

// withSession runs fn on the respondent's stored session under its lock and
// saves the result. A session closed by fn is removed from the cache.
func (s *FillService) withSession(ctx context.Context, shareableID, respondentID string, fn func(f *fill) error) (*model.FillState, error) {
	survey, eval, err := s.open(ctx, shareableID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.fillCache.Lock(ctx, survey.ID, respondentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := s.fillCache.Get(ctx, survey.ID, respondentID)
	if err != nil {
		return nil, fault.NewInternalError("failed to load session", err)
	}
	if st == nil || st.Closed {
		return nil, ErrNoSession
	}

	f := &fill{survey: survey, respondentID: respondentID}
	f.sess = engine.RestoreSession(eval, *st, s.sessionOptions(f)...)
	if err := fn(f); err != nil {
		return nil, err
	}

	if f.sess.Closed() {
		err = s.fillCache.Delete(ctx, survey.ID, respondentID)
	} else {
		state := f.sess.State()
		err = s.fillCache.Set(ctx, survey.ID, respondentID, &state)
	}
	if err != nil {
		return nil, fault.NewInternalError("failed to save session", err)
	}

	s.flush(ctx, f)
	return s.view(f), nil
}

// State returns the respondent's current view
func (s *FillService) State(ctx context.Context, shareableID, respondentID string) (*model.FillState, error) {
	return s.withSession(ctx, shareableID, respondentID, func(*fill) error { return nil })
}

// Answer records or clears one answer
func (s *FillService) Answer(ctx context.Context, shareableID, respondentID, questionID string, v engine.Value) (*model.FillState, error) {
	return s.withSession(ctx, shareableID, respondentID, func(f *fill) error {
		return f.sess.Answer(questionID, v)
	})
}

// Next moves to the following section when the current one is complete.
// The returned state reports Moved and, when blocked, the missing questions.
func (s *FillService) Next(ctx context.Context, shareableID, respondentID string) (*model.FillState, error) {
	moved := false
	state, err := s.withSession(ctx, shareableID, respondentID, func(f *fill) error {
		_, moved = f.sess.Next()
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.Moved = moved
	return state, nil
}

// Previous moves back one section
func (s *FillService) Previous(ctx context.Context, shareableID, respondentID string) (*model.FillState, error) {
	moved := false
	state, err := s.withSession(ctx, shareableID, respondentID, func(f *fill) error {
		moved = f.sess.Previous()
		return nil
	})
	if err != nil {
		return nil, err
	}
	state.Moved = moved
	return state, nil
}

// Abandon closes the session and records where the respondent left
func (s *FillService) Abandon(ctx context.Context, shareableID, respondentID string) error {
	_, err := s.withSession(ctx, shareableID, respondentID, func(f *fill) error {
		return f.sess.Abandon()
	})
	return err
}

// Submit stores the uploads and the assembled response. Uploads only reach
// storage once every required visible question is answered.
func (s *FillService) Submit(ctx context.Context, shareableID, respondentID string, uploads []Upload) (*model.Response, error) {
	var resp *model.Response
	_, err := s.withSession(ctx, shareableID, respondentID, func(f *fill) error {
		r, err := s.submit(ctx, f, uploads)
		resp = r
		return err
	})
	if err != nil {
		if errors.Is(err, engine.ErrSubmissionRejected) {
			metrics.SubmissionsRejected.Inc()
		}
		return nil, err
	}

	metrics.ResponsesSubmitted.Inc()
	if err := s.analyticsCache.Invalidate(ctx, resp.SurveyID); err != nil {
		logger.WithError(err).Warnf("failed to invalidate analytics of survey %s", resp.SurveyID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSurvey(resp.SurveyID, MsgResponseSubmitted, map[string]interface{}{
			"responseId":   resp.ID,
			"respondentId": resp.RespondentID,
			"answerCount":  len(resp.Answers),
			"submittedAt":  resp.SubmittedAt,
		})
	}
	if s.publisher != nil {
		ev := events.ResponseSubmitted{
			SurveyID:     resp.SurveyID,
			ResponseID:   resp.ID,
			RespondentID: resp.RespondentID,
			AnswerCount:  len(resp.Answers),
			SubmittedAt:  resp.SubmittedAt,
		}
		if err := s.publisher.PublishResponseSubmitted(ctx, ev); err != nil {
			logger.WithError(err).Warn("failed to publish response.submitted")
		}
	}
	logger.WithFields(logger.Fields{
		"survey":     resp.SurveyID,
		"respondent": resp.RespondentID,
		"answers":    len(resp.Answers),
	}).Info("response submitted")
	return resp, nil
}

func (s *FillService) submit(ctx context.Context, f *fill, uploads []Upload) (*model.Response, error) {
	if err := s.ensureNotResponded(ctx, f.survey.ID, f.respondentID); err != nil {
		return nil, err
	}

	eval := f.sess.Evaluator()
	for _, up := range uploads {
		q, ok := eval.Question(up.QuestionID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", engine.ErrUnknownQuestion, up.QuestionID)
		}
		if !q.Type.HasAttachment() || kindOf(q.Type) != up.Object.Kind {
			return nil, fmt.Errorf("%w: %s", engine.ErrAttachmentKind, q.ID)
		}
		if err := s.limits.Check(q, up.Object); err != nil {
			return nil, fmt.Errorf("%s: %w", q.ID, err)
		}
		placeholder := engine.AudioPlaceholder
		if q.Type == model.QuestionFileUpload {
			placeholder = engine.FilePlaceholder(up.Object.Name)
		}
		if err := f.sess.Attach(q.ID, placeholder); err != nil {
			return nil, err
		}
	}

	if g := f.sess.SubmitGate(); !g.OK() {
		return nil, &engine.SubmissionRejected{Missing: g.Missing}
	}

	attachments := make(map[string]engine.Attachment, len(uploads))
	for _, up := range uploads {
		ref, err := s.store.Put(ctx, up.Object)
		if err != nil {
			return nil, fault.NewInternalError("failed to store upload", err)
		}
		attachments[up.QuestionID] = engine.Attachment{Ref: ref}
	}

	resp, err := f.sess.Submit(f.survey.ID, f.respondentID, attachments)
	if err != nil {
		return nil, err
	}
	resp.SubmittedAt = s.now()
	if _, err := s.responseRepo.Create(ctx, resp); err != nil {
		if errors.Is(err, repository.ErrDuplicateResponse) {
			return nil, ErrAlreadyResponded
		}
		return nil, fault.NewInternalError("failed to store response", err)
	}
	return resp, nil
}

func kindOf(t model.QuestionType) storage.Kind {
	if t == model.QuestionAudio {
		return storage.KindAudio
	}
	return storage.KindFile
}

// CheckRespondent reports whether the respondent already answered the survey
func (s *FillService) CheckRespondent(ctx context.Context, surveyID, respondentID string) (*model.RespondentCheck, error) {
	if surveyID == "" || respondentID == "" {
		return nil, fmt.Errorf("%w: surveyId and respondentId are required", ErrValidation)
	}
	resp, err := s.responseRepo.FindByRespondent(ctx, surveyID, respondentID)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &model.RespondentCheck{HasResponded: false}, nil
	}
	at := resp.SubmittedAt
	return &model.RespondentCheck{HasResponded: true, ResponseID: resp.ID, SubmittedAt: &at}, nil
}

// flush hands the session's events to telemetry and the dashboards
func (s *FillService) flush(ctx context.Context, f *fill) {
	for _, ev := range f.pending {
		s.record(f.survey.ID, f.respondentID, model.SessionStep{
			QuestionID:    ev.QuestionID,
			QuestionIndex: ev.QuestionIndex,
			Action:        model.StepAction(ev.Kind),
			Timestamp:     ev.At,
			TimeSpent:     ev.Elapsed.Seconds(),
			Answer:        ev.Answer,
		})

		if s.broadcaster != nil {
			s.broadcaster.BroadcastToSurvey(f.survey.ID, MsgSessionActivity, map[string]interface{}{
				"respondentId":  f.respondentID,
				"action":        ev.Kind,
				"questionId":    ev.QuestionID,
				"questionIndex": ev.QuestionIndex,
				"sectionIndex":  ev.SectionIndex,
				"at":            ev.At,
			})
		}

		if ev.Kind != engine.EventAbandoned {
			continue
		}
		metrics.SessionsAbandoned.Inc()
		if s.publisher != nil {
			err := s.publisher.PublishSessionAbandoned(ctx, events.SessionAbandoned{
				SurveyID:      f.survey.ID,
				RespondentID:  f.respondentID,
				QuestionID:    ev.QuestionID,
				QuestionIndex: ev.QuestionIndex,
				At:            ev.At,
			})
			if err != nil {
				logger.WithError(err).Warn("failed to publish session.abandoned")
			}
		}
	}
	f.pending = nil
}

func (s *FillService) record(surveyID, respondentID string, step model.SessionStep) {
	if s.sessions == nil {
		return
	}
	s.sessions.Record(&model.StepRecord{SurveyID: surveyID, RespondentID: respondentID, Step: step})
}

// view builds the respondent-facing state; randomized options keep a stable
// order per respondent
func (s *FillService) view(f *fill) *model.FillState {
	sess := f.sess
	eval := sess.Evaluator()
	nav := sess.Navigator()
	sec, _ := eval.Section(nav.SectionIndex())

	visible := sess.Visible()
	questions := make([]model.Question, len(visible))
	for i, q := range visible {
		if len(q.Options) > 0 {
			q.Options = engine.ShuffledOptions(q, f.respondentID)
		}
		questions[i] = q
	}

	advance := sess.AdvanceGate()
	return &model.FillState{
		SurveyID:      f.survey.ID,
		ShareableID:   f.survey.ShareableID,
		RespondentID:  f.respondentID,
		Title:         f.survey.Title,
		Section:       model.SectionHeader{ID: sec.ID, Title: sec.Title, Description: sec.Description},
		SectionIndex:  nav.SectionIndex(),
		SectionCount:  eval.SectionCount(),
		QuestionIndex: nav.QuestionIndex(),
		Questions:     questions,
		Answers:       sess.Answers().Wire(),
		CanAdvance:    advance.OK(),
		Missing:       advance.Missing,
		CanSubmit:     sess.SubmitGate().OK(),
		IsFirst:       nav.IsFirstSection(),
		IsLast:        nav.IsLastSection(),
		Closed:        sess.Closed(),
	}
}
