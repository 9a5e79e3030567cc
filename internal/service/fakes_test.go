package service

import (
	"context"
	"datalingua/internal/cache"
	"datalingua/internal/engine"
	"datalingua/internal/events"
	"datalingua/internal/model"
	"datalingua/internal/repository"
	"datalingua/internal/storage"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type fakeSurveyRepo struct {
	mu      sync.Mutex
	surveys map[string]*model.Survey
	seq     int
}

func newFakeSurveyRepo() *fakeSurveyRepo {
	return &fakeSurveyRepo{surveys: make(map[string]*model.Survey)}
}

func (r *fakeSurveyRepo) Create(ctx context.Context, survey *model.Survey) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	survey.ID = fmt.Sprintf("survey-%d", r.seq)
	cp := *survey
	r.surveys[survey.ID] = &cp
	return survey.ID, nil
}

func (r *fakeSurveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.surveys[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeSurveyRepo) GetByShareableID(ctx context.Context, shareableID string) (*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.surveys {
		if s.ShareableID == shareableID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSurveyRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Survey{}
	for _, s := range r.surveys {
		if s.CreatedBy == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSurveyRepo) ListPublic(ctx context.Context, search string, limit int64) ([]*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Survey{}
	for _, s := range r.surveys {
		if s.Active() && strings.Contains(strings.ToLower(s.Title), strings.ToLower(search)) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeSurveyRepo) Update(ctx context.Context, survey *model.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *survey
	r.surveys[survey.ID] = &cp
	return nil
}

func (r *fakeSurveyRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.surveys, id)
	return nil
}

type fakeResponseRepo struct {
	mu        sync.Mutex
	responses []*model.Response
}

func (r *fakeResponseRepo) Create(ctx context.Context, resp *model.Response) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.responses {
		if existing.SurveyID == resp.SurveyID && existing.RespondentID == resp.RespondentID {
			return "", repository.ErrDuplicateResponse
		}
	}
	resp.ID = fmt.Sprintf("response-%d", len(r.responses)+1)
	r.responses = append(r.responses, resp)
	return resp.ID, nil
}

func (r *fakeResponseRepo) GetBySurvey(ctx context.Context, surveyID string) ([]*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Response{}
	for _, resp := range r.responses {
		if resp.SurveyID == surveyID {
			out = append(out, resp)
		}
	}
	return out, nil
}

func (r *fakeResponseRepo) FindByRespondent(ctx context.Context, surveyID, respondentID string) (*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resp := range r.responses {
		if resp.SurveyID == surveyID && resp.RespondentID == respondentID {
			return resp, nil
		}
	}
	return nil, nil
}

func (r *fakeResponseRepo) CountBySurvey(ctx context.Context, surveyID string) (int64, error) {
	list, _ := r.GetBySurvey(ctx, surveyID)
	return int64(len(list)), nil
}

func (r *fakeResponseRepo) CountBySurveys(ctx context.Context, surveyIDs []string) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, id := range surveyIDs {
		n, _ := r.CountBySurvey(ctx, id)
		out[id] = n
	}
	return out, nil
}

func (r *fakeResponseRepo) DeleteBySurvey(ctx context.Context, surveyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.responses[:0]
	for _, resp := range r.responses {
		if resp.SurveyID != surveyID {
			kept = append(kept, resp)
		}
	}
	r.responses = kept
	return nil
}

type fakeSessionRepo struct {
	mu      sync.Mutex
	steps   []*model.StepRecord
	deleted []string
}

func (r *fakeSessionRepo) RecordStep(ctx context.Context, rec *model.StepRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, rec)
	return nil
}

func (r *fakeSessionRepo) Get(ctx context.Context, surveyID, respondentID string) (*model.SurveySession, error) {
	return nil, nil
}

func (r *fakeSessionRepo) Stats(ctx context.Context, surveyID string) (*model.SessionStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &model.SessionStats{TotalSessions: int64(len(r.steps))}, nil
}

func (r *fakeSessionRepo) DeleteBySurvey(ctx context.Context, surveyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, surveyID)
	return nil
}

func (r *fakeSessionRepo) actions() []model.StepAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.StepAction, len(r.steps))
	for i, rec := range r.steps {
		out[i] = rec.Step.Action
	}
	return out
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return "", repository.ErrDuplicateEmail
		}
	}
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	cp := *user
	r.users[user.ID] = &cp
	return user.ID, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) List(ctx context.Context, status model.UserStatus) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.User{}
	for _, u := range r.users {
		switch status {
		case model.UserStatusPending:
			if u.IsApproved {
				continue
			}
		case model.UserStatusBanned:
			if !u.IsBanned {
				continue
			}
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

type fakeFillCache struct {
	mu     sync.Mutex
	states map[string]engine.State
	locked map[string]bool
}

func newFakeFillCache() *fakeFillCache {
	return &fakeFillCache{states: make(map[string]engine.State), locked: make(map[string]bool)}
}

func (c *fakeFillCache) Get(ctx context.Context, surveyID, respondentID string) (*engine.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[surveyID+":"+respondentID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (c *fakeFillCache) Set(ctx context.Context, surveyID, respondentID string, state *engine.State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[surveyID+":"+respondentID] = *state
	return nil
}

func (c *fakeFillCache) Delete(ctx context.Context, surveyID, respondentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, surveyID+":"+respondentID)
	return nil
}

func (c *fakeFillCache) Lock(ctx context.Context, surveyID, respondentID string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := surveyID + ":" + respondentID
	if c.locked[key] {
		return nil, cache.ErrLocked
	}
	c.locked[key] = true
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.locked, key)
	}, nil
}

type fakeAnalyticsCache struct {
	mu          sync.Mutex
	entries     map[string]*model.SurveyAnalytics
	invalidated []string
}

func newFakeAnalyticsCache() *fakeAnalyticsCache {
	return &fakeAnalyticsCache{entries: make(map[string]*model.SurveyAnalytics)}
}

func (c *fakeAnalyticsCache) Get(ctx context.Context, surveyID string) (*model.SurveyAnalytics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[surveyID], nil
}

func (c *fakeAnalyticsCache) Set(ctx context.Context, analytics *model.SurveyAnalytics) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[analytics.SurveyID] = analytics
	return nil
}

func (c *fakeAnalyticsCache) Invalidate(ctx context.Context, surveyID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, surveyID)
	c.invalidated = append(c.invalidated, surveyID)
	return nil
}

type fakeStore struct {
	mu   sync.Mutex
	puts []storage.Object
}

func (s *fakeStore) Put(ctx context.Context, obj storage.Object) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj.Body != nil {
		if _, err := io.ReadAll(obj.Body); err != nil {
			return "", err
		}
	}
	s.puts = append(s.puts, obj)
	return fmt.Sprintf("/uploads/%s/%d-%s", obj.Kind, len(s.puts), obj.Name), nil
}

type fakePublisher struct {
	mu        sync.Mutex
	submitted []events.ResponseSubmitted
	abandoned []events.SessionAbandoned
}

func (p *fakePublisher) PublishResponseSubmitted(ctx context.Context, ev events.ResponseSubmitted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitted = append(p.submitted, ev)
	return nil
}

func (p *fakePublisher) PublishSessionAbandoned(ctx context.Context, ev events.SessionAbandoned) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.abandoned = append(p.abandoned, ev)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type broadcast struct {
	surveyID string
	msgType  string
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []broadcast
}

func (b *fakeBroadcaster) BroadcastToSurvey(surveyID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, broadcast{surveyID: surveyID, msgType: msgType})
}

func (b *fakeBroadcaster) count(msgType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, m := range b.sent {
		if m.msgType == msgType {
			n++
		}
	}
	return n
}

// fixedClock returns a clock frozen at a fixed instant
func fixedClock() func() time.Time {
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func q(id string, typ model.QuestionType, required bool, options ...string) model.Question {
	return model.Question{ID: id, Type: typ, Prompt: "Prompt " + id, Required: required, Options: options}
}

// researchSurvey has a consent section gating a follow-up and an upload section
func researchSurvey() *model.Survey {
	followUp := q("why", model.QuestionLongAnswer, true)
	followUp.ConditionalLogic = &model.ConditionalLogic{DependsOn: "consent", ShowWhen: model.ShowWhenValue("No"), Operator: model.OperatorEquals}

	colors := q("colors", model.QuestionMultipleChoice, false, "Red", "Green", "Blue")
	colors.MultipleChoiceSettings = &model.MultipleChoiceSettings{AllowMultipleAnswers: true}

	rating := q("rating", model.QuestionLikert, false)
	rating.LikertSettings = &model.LikertSettings{ScaleSize: 5}

	doc := q("doc", model.QuestionFileUpload, false)
	doc.FileSettings = &model.FileSettings{AllowedExtensions: []string{"pdf"}}

	return &model.Survey{
		Title: "Language use",
		Sections: []model.Section{
			{ID: "intro", Title: "Intro", Order: 0, Questions: []model.Question{
				q("consent", model.QuestionMultipleChoice, true, "Yes", "No"),
				followUp,
			}},
			{ID: "details", Title: "Details", Order: 1, Questions: []model.Question{
				colors,
				rating,
				q("voice", model.QuestionAudio, false),
				doc,
			}},
		},
	}
}
