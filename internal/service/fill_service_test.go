package service

import (
	"context"
	"datalingua/internal/cache"
	"datalingua/internal/engine"
	"datalingua/internal/model"
	"datalingua/internal/storage"
	"errors"
	"strings"
	"testing"
	"time"
)

type fillHarness struct {
	surveys     *fakeSurveyRepo
	responses   *fakeResponseRepo
	sessionRepo *fakeSessionRepo
	fills       *fakeFillCache
	analytics   *fakeAnalyticsCache
	store       *fakeStore
	pub         *fakePublisher
	hub         *fakeBroadcaster
	sessions    *SessionService
	svc         *FillService
	survey      *model.Survey
}

func newFillHarness(t *testing.T, mutate func(*model.Survey)) *fillHarness {
	t.Helper()
	h := &fillHarness{
		surveys:     newFakeSurveyRepo(),
		responses:   &fakeResponseRepo{},
		sessionRepo: &fakeSessionRepo{},
		fills:       newFakeFillCache(),
		analytics:   newFakeAnalyticsCache(),
		store:       &fakeStore{},
		pub:         &fakePublisher{},
		hub:         &fakeBroadcaster{},
	}

	survey := researchSurvey()
	survey.ShareableID = "share-1"
	survey.CreatedBy = "owner"
	if mutate != nil {
		mutate(survey)
	}
	if _, err := h.surveys.Create(context.Background(), survey); err != nil {
		t.Fatalf("create survey: %v", err)
	}
	h.survey = survey

	h.sessions = NewSessionService(h.sessionRepo, h.surveys)
	t.Cleanup(h.sessions.Close)

	limits := storage.Limits{MaxAudioBytes: 1 << 20, MaxFileBytes: 1 << 20}
	h.svc = NewFillService(h.surveys, h.responses, h.fills, h.analytics, h.store, limits, h.sessions, h.pub)
	h.svc.now = fixedClock()
	h.svc.SetBroadcaster(h.hub)
	return h
}

func questionIDs(qs []model.Question) string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return strings.Join(ids, ",")
}

func pdfUpload(name string) Upload {
	return Upload{
		QuestionID: "doc",
		Object:     storage.Object{Kind: storage.KindFile, Name: name, Size: 3, Body: strings.NewReader("pdf")},
	}
}

func TestFillStartAndResume(t *testing.T) {
	h := newFillHarness(t, nil)
	ctx := context.Background()

	state, err := h.svc.Start(ctx, "share-1", "r1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := questionIDs(state.Questions); got != "consent" {
		t.Fatalf("expected only consent visible, got %s", got)
	}
	if state.CanAdvance || len(state.Missing) != 1 || state.Missing[0] != "consent" {
		t.Fatalf("expected consent to block advance, got %+v", state)
	}
	if !state.IsFirst || state.IsLast || state.SectionCount != 2 {
		t.Fatalf("unexpected position: %+v", state)
	}

	if _, err := h.svc.Answer(ctx, "share-1", "r1", "consent", engine.Scalar("Yes")); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	resumed, err := h.svc.Start(ctx, "share-1", "r1")
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if resumed.Answers["consent"] != "Yes" {
		t.Fatalf("expected resumed answers, got %v", resumed.Answers)
	}
}

func TestFillStartAssignsRespondent(t *testing.T) {
	h := newFillHarness(t, nil)

	state, err := h.svc.Start(context.Background(), "share-1", "")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if state.RespondentID == "" {
		t.Fatal("expected a generated respondent id")
	}
}

func TestFillConditionalFollowUp(t *testing.T) {
	h := newFillHarness(t, nil)
	ctx := context.Background()
	h.svc.Start(ctx, "share-1", "r1")

	state, err := h.svc.Answer(ctx, "share-1", "r1", "consent", engine.Scalar("No"))
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if got := questionIDs(state.Questions); got != "consent,why" {
		t.Fatalf("expected follow-up to appear, got %s", got)
	}

	state, err = h.svc.Next(ctx, "share-1", "r1")
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if state.Moved || state.SectionIndex != 0 {
		t.Fatalf("expected to stay on the first section, got %+v", state)
	}
	if len(state.Missing) != 1 || state.Missing[0] != "why" {
		t.Fatalf("expected why to be missing, got %v", state.Missing)
	}

	if _, err := h.svc.Answer(ctx, "share-1", "r1", "why", engine.Scalar("Not today")); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	state, err = h.svc.Next(ctx, "share-1", "r1")
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if !state.Moved || state.SectionIndex != 1 || !state.IsLast {
		t.Fatalf("expected to reach the last section, got %+v", state)
	}

	state, err = h.svc.Previous(ctx, "share-1", "r1")
	if err != nil {
		t.Fatalf("Previous failed: %v", err)
	}
	if !state.Moved || state.SectionIndex != 0 {
		t.Fatalf("expected to go back, got %+v", state)
	}
}

func TestFillRejectsHiddenAnswer(t *testing.T) {
	h := newFillHarness(t, nil)
	ctx := context.Background()
	h.svc.Start(ctx, "share-1", "r1")

	_, err := h.svc.Answer(ctx, "share-1", "r1", "why", engine.Scalar("because"))
	if !errors.Is(err, engine.ErrHiddenQuestion) {
		t.Fatalf("expected ErrHiddenQuestion, got %v", err)
	}
}

func TestFillRejectsTypedTextForUploads(t *testing.T) {
	h := newFillHarness(t, nil)
	ctx := context.Background()
	h.svc.Start(ctx, "share-1", "r1")

	_, err := h.svc.Answer(ctx, "share-1", "r1", "doc", engine.Scalar("File: /etc/passwd"))
	if !errors.Is(err, engine.ErrInvalidAnswer) {
		t.Fatalf("expected ErrInvalidAnswer, got %v", err)
	}
	state, _ := h.svc.State(ctx, "share-1", "r1")
	if _, ok := state.Answers["doc"]; ok {
		t.Fatal("typed text must not be stored for a file question")
	}
}

func TestFillWithoutSession(t *testing.T) {
	h := newFillHarness(t, nil)

	if _, err := h.svc.State(context.Background(), "share-1", "ghost"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if _, err := h.svc.State(context.Background(), "missing", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFillSubmit(t *testing.T) {
	h := newFillHarness(t, nil)
	ctx := context.Background()
	h.svc.Start(ctx, "share-1", "r1")
	h.svc.Answer(ctx, "share-1", "r1", "consent", engine.Scalar("Yes"))
	h.svc.Next(ctx, "share-1", "r1")
	if _, err := h.svc.Answer(ctx, "share-1", "r1", "colors", engine.Scalar("Red, Blue")); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	resp, err := h.svc.Submit(ctx, "share-1", "r1", []Upload{pdfUpload("report.pdf")})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if len(resp.Answers) != 3 {
		t.Fatalf("expected 3 answers, got %+v", resp.Answers)
	}
	if resp.Answers[0].QuestionID != "consent" || resp.Answers[1].QuestionID != "colors" || resp.Answers[2].QuestionID != "doc" {
		t.Fatalf("answers out of survey order: %+v", resp.Answers)
	}
	if resp.Answers[1].Answer != "Red,Blue" {
		t.Fatalf("expected comma-joined selections, got %q", resp.Answers[1].Answer)
	}
	doc := resp.Answers[2]
	if doc.Answer != "File: report.pdf" || doc.FilePath == "" {
		t.Fatalf("unexpected file answer: %+v", doc)
	}
	if !resp.SubmittedAt.Equal(fixedClock()()) {
		t.Fatalf("expected submission time from the clock, got %v", resp.SubmittedAt)
	}

	if len(h.store.puts) != 1 {
		t.Fatalf("expected one stored upload, got %d", len(h.store.puts))
	}
	if len(h.analytics.invalidated) != 1 {
		t.Fatal("expected analytics to be invalidated")
	}
	if len(h.pub.submitted) != 1 || h.pub.submitted[0].AnswerCount != 3 {
		t.Fatalf("expected a response.submitted event, got %+v", h.pub.submitted)
	}
	if h.hub.count(MsgResponseSubmitted) != 1 {
		t.Fatal("expected a dashboard broadcast")
	}

	if _, err := h.svc.State(ctx, "share-1", "r1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected the session to be gone, got %v", err)
	}
	if _, err := h.svc.Start(ctx, "share-1", "r1"); !errors.Is(err, ErrAlreadyResponded) {
		t.Fatalf("expected ErrAlreadyResponded, got %v", err)
	}

	check, err := h.svc.CheckRespondent(ctx, h.survey.ID, "r1")
	if err != nil {
		t.Fatalf("CheckRespondent failed: %v", err)
	}
	if !check.HasResponded || check.ResponseID != resp.ID {
		t.Fatalf("unexpected check: %+v", check)
	}
}

func TestFillSubmitRejectedStoresNothing(t *testing.T) {
	h := newFillHarness(t, nil)
	ctx := context.Background()
	h.svc.Start(ctx, "share-1", "r1")

	_, err := h.svc.Submit(ctx, "share-1", "r1", []Upload{pdfUpload("report.pdf")})
	if !errors.Is(err, engine.ErrSubmissionRejected) {
		t.Fatalf("expected ErrSubmissionRejected, got %v", err)
	}
	var rejected *engine.SubmissionRejected
	if !errors.As(err, &rejected) || len(rejected.Missing) != 1 || rejected.Missing[0] != "consent" {
		t.Fatalf("expected consent to be missing, got %v", err)
	}
	if len(h.store.puts) != 0 {
		t.Fatal("uploads must not be stored for a rejected submission")
	}

	state, err := h.svc.State(ctx, "share-1", "r1")
	if err != nil {
		t.Fatalf("session should survive a rejected submission: %v", err)
	}
	if _, ok := state.Answers["doc"]; ok {
		t.Fatal("placeholder answer must not persist after rejection")
	}
}

func TestFillSubmitUploadChecks(t *testing.T) {
	tests := []struct {
		name   string
		upload Upload
		want   error
	}{
		{"wrong kind", Upload{QuestionID: "doc", Object: storage.Object{Kind: storage.KindAudio, Name: "a.webm"}}, engine.ErrAttachmentKind},
		{"not an upload question", Upload{QuestionID: "rating", Object: storage.Object{Kind: storage.KindFile, Name: "a.pdf"}}, engine.ErrAttachmentKind},
		{"unknown question", Upload{QuestionID: "nope", Object: storage.Object{Kind: storage.KindFile, Name: "a.pdf"}}, engine.ErrUnknownQuestion},
		{"extension", pdfUpload("notes.txt"), storage.ErrExtensionNotAllowed},
		{"size", Upload{QuestionID: "doc", Object: storage.Object{Kind: storage.KindFile, Name: "big.pdf", Size: 2 << 20}}, storage.ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newFillHarness(t, nil)
			ctx := context.Background()
			h.svc.Start(ctx, "share-1", "r1")
			h.svc.Answer(ctx, "share-1", "r1", "consent", engine.Scalar("Yes"))

			_, err := h.svc.Submit(ctx, "share-1", "r1", []Upload{tt.upload})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFillAbandon(t *testing.T) {
	h := newFillHarness(t, nil)
	ctx := context.Background()
	h.svc.Start(ctx, "share-1", "r1")
	h.svc.Answer(ctx, "share-1", "r1", "consent", engine.Scalar("Yes"))

	if err := h.svc.Abandon(ctx, "share-1", "r1"); err != nil {
		t.Fatalf("Abandon failed: %v", err)
	}
	if len(h.pub.abandoned) != 1 || h.pub.abandoned[0].QuestionID != "consent" {
		t.Fatalf("expected a session.abandoned event at consent, got %+v", h.pub.abandoned)
	}
	if _, err := h.svc.State(ctx, "share-1", "r1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected the session to be gone, got %v", err)
	}

	h.sessions.Close()
	got := h.sessionRepo.actions()
	want := []model.StepAction{model.StepViewed, model.StepAnswered, model.StepAbandoned}
	if len(got) != len(want) {
		t.Fatalf("expected steps %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected steps %v, got %v", want, got)
		}
	}
	if h.hub.count(MsgSessionActivity) != 2 {
		t.Fatalf("expected 2 activity broadcasts, got %d", h.hub.count(MsgSessionActivity))
	}
}

func TestFillClosedSurvey(t *testing.T) {
	inactive := false
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*model.Survey)
	}{
		{"inactive", func(s *model.Survey) { s.IsActive = &inactive }},
		{"expired", func(s *model.Survey) { s.ExpirationDate = &past }},
		{"scheduled", func(s *model.Survey) { s.ScheduledDate = &future }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newFillHarness(t, tt.mutate)
			if _, err := h.svc.Start(context.Background(), "share-1", "r1"); !errors.Is(err, ErrSurveyClosed) {
				t.Fatalf("expected ErrSurveyClosed, got %v", err)
			}
		})
	}
}

func TestFillLockedSession(t *testing.T) {
	h := newFillHarness(t, nil)
	ctx := context.Background()
	h.svc.Start(ctx, "share-1", "r1")

	unlock, err := h.fills.Lock(ctx, h.survey.ID, "r1")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	defer unlock()

	if _, err := h.svc.Answer(ctx, "share-1", "r1", "consent", engine.Scalar("Yes")); !errors.Is(err, cache.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestFillRandomizedOptionsStable(t *testing.T) {
	h := newFillHarness(t, func(s *model.Survey) {
		s.Sections[0].Questions[0].Options = []string{"Yes", "No", "Maybe", "Later", "Never"}
		s.Sections[0].Questions[0].MultipleChoiceSettings = &model.MultipleChoiceSettings{RandomizeOrder: true}
	})
	ctx := context.Background()

	first, err := h.svc.Start(ctx, "share-1", "r1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	again, err := h.svc.State(ctx, "share-1", "r1")
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	a := strings.Join(first.Questions[0].Options, ",")
	b := strings.Join(again.Questions[0].Options, ",")
	if a != b {
		t.Fatalf("option order changed between requests: %s vs %s", a, b)
	}
	if len(first.Questions[0].Options) != 5 {
		t.Fatalf("expected all options, got %v", first.Questions[0].Options)
	}
}
