package engine

import (
	"datalingua/internal/model"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownQuestion = errors.New("unknown question")
	ErrHiddenQuestion  = errors.New("question is not visible")
	ErrSessionClosed   = errors.New("session is closed")
)

// EventKind names a telemetry event emitted by a Session
type EventKind string

const (
	EventAnswered         EventKind = "answered"
	EventSectionCompleted EventKind = "section_completed"
	EventAbandoned        EventKind = "abandoned"
	EventCompleted        EventKind = "completed"
)

// Event is one telemetry record. QuestionIndex is the global position of the
// question, or of the cursor for section and session events.
type Event struct {
	Kind          EventKind
	QuestionID    string
	QuestionIndex int
	SectionIndex  int
	Answer        string
	Elapsed       time.Duration
	At            time.Time
}

// Sink receives session events. Emit must not block for long; a panicking
// sink is recovered and the event dropped.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// State is the serializable form of a Session
type State struct {
	SectionIndex  int              `json:"sectionIndex"`
	QuestionIndex int              `json:"questionIndex"`
	Answers       map[string]Value `json:"answers"`
	StartedAt     time.Time        `json:"startedAt"`
	LastEventAt   time.Time        `json:"lastEventAt"`
	Closed        bool             `json:"closed"`
}

// Session is one respondent filling in one survey
type Session struct {
	eval    *Evaluator
	nav     *Navigator
	answers AnswerSet
	sink    Sink
	now     func() time.Time
	started time.Time
	last    time.Time
	closed  bool
}

type Option func(*Session)

// WithSink routes events to s; a nil sink discards them
func WithSink(s Sink) Option {
	return func(sess *Session) { sess.sink = s }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(sess *Session) { sess.now = now }
}

// NewSession starts a fresh session at the first section
func NewSession(e *Evaluator, opts ...Option) *Session {
	s := &Session{eval: e, nav: NewNavigator(e), answers: NewAnswerSet(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	s.last = s.started
	return s
}

// RestoreSession resumes a session from a saved State
func RestoreSession(e *Evaluator, st State, opts ...Option) *Session {
	s := &Session{
		eval:    e,
		nav:     RestoreNavigator(e, st.SectionIndex, st.QuestionIndex),
		answers: AnswersFrom(st.Answers),
		now:     time.Now,
		started: st.StartedAt,
		last:    st.LastEventAt,
		closed:  st.Closed,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.last.IsZero() {
		s.last = s.now()
	}
	return s
}

func (s *Session) Evaluator() *Evaluator { return s.eval }
func (s *Session) Answers() AnswerSet    { return s.answers }
func (s *Session) Navigator() *Navigator { return s.nav }
func (s *Session) Closed() bool          { return s.closed }
func (s *Session) StartedAt() time.Time  { return s.started }

// Visible returns the visible questions of the current section
func (s *Session) Visible() []model.Question {
	return s.eval.VisibleInSection(s.nav.SectionIndex(), s.answers)
}

// AdvanceGate checks the current section
func (s *Session) AdvanceGate() Gate {
	return s.eval.CanAdvance(s.nav.SectionIndex(), s.answers)
}

// SubmitGate checks the whole survey
func (s *Session) SubmitGate() Gate {
	return s.eval.CanSubmit(s.answers)
}

// CurrentQuestion returns the visible question under the cursor, clamped
// to the current section's visible questions.
func (s *Session) CurrentQuestion() (model.Question, bool) {
	visible := s.Visible()
	if len(visible) == 0 {
		return model.Question{}, false
	}
	i := s.nav.QuestionIndex()
	if i >= len(visible) {
		i = len(visible) - 1
	}
	return visible[i], true
}

// Answer records v for the question. The question must exist and currently be
// visible; an empty value clears the answer. Comma-joined scalars sent for a
// multi-select question are split into a selection.
func (s *Session) Answer(id string, v Value) error {
	q, err := s.answerable(id)
	if err != nil {
		return err
	}
	if q.AllowsMultiple() && !v.IsMulti() {
		v = ParseWire(v.Wire(), true)
	}
	if !v.IsEmpty() && !IsVisible(q, s.answers) {
		return fmt.Errorf("%w: %s", ErrHiddenQuestion, id)
	}
	if err := CheckAnswer(q, v); err != nil {
		return err
	}
	return s.record(q, v)
}

// Attach records the placeholder text of an uploaded audio or file answer.
// The stored reference itself travels to Submit as an Attachment.
func (s *Session) Attach(id, placeholder string) error {
	q, err := s.answerable(id)
	if err != nil {
		return err
	}
	if !q.Type.HasAttachment() {
		return fmt.Errorf("%w: %s", ErrAttachmentKind, id)
	}
	if !IsVisible(q, s.answers) {
		return fmt.Errorf("%w: %s", ErrHiddenQuestion, id)
	}
	return s.record(q, Scalar(placeholder))
}

func (s *Session) answerable(id string) (model.Question, error) {
	if s.closed {
		return model.Question{}, ErrSessionClosed
	}
	q, ok := s.eval.Question(id)
	if !ok {
		return model.Question{}, fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	return q, nil
}

func (s *Session) record(q model.Question, v Value) error {
	id := q.ID
	s.answers = s.answers.With(id, v)
	if v.IsEmpty() {
		return nil
	}
	sec, _ := s.eval.SectionOf(id)
	if sec == s.nav.SectionIndex() {
		for i, vq := range s.Visible() {
			if vq.ID == id {
				s.nav.question = i
				break
			}
		}
	}
	global, _ := s.eval.GlobalIndex(id)
	s.emit(Event{Kind: EventAnswered, QuestionID: id, QuestionIndex: global, SectionIndex: sec, Answer: v.Wire()})
	return nil
}

// Clear removes the answer to id
func (s *Session) Clear(id string) error {
	return s.Answer(id, Scalar(""))
}

// Next advances one section when the current one is complete
func (s *Session) Next() (Gate, bool) {
	if s.closed {
		return Gate{}, false
	}
	from := s.nav.SectionIndex()
	cursor := s.cursorIndex()
	g, moved := s.nav.Next(s.answers)
	if moved {
		s.emit(Event{
			Kind:          EventSectionCompleted,
			QuestionIndex: cursor,
			SectionIndex:  from,
			Answer:        fmt.Sprintf("Completed section %d", from+1),
		})
	}
	return g, moved
}

// Previous goes back one section
func (s *Session) Previous() bool {
	if s.closed {
		return false
	}
	return s.nav.Previous()
}

// Abandon closes the session and reports where the respondent left
func (s *Session) Abandon() error {
	if s.closed {
		return ErrSessionClosed
	}
	ev := Event{Kind: EventAbandoned, QuestionIndex: s.cursorIndex(), SectionIndex: s.nav.SectionIndex()}
	if q, ok := s.CurrentQuestion(); ok {
		ev.QuestionID = q.ID
		ev.QuestionIndex, _ = s.eval.GlobalIndex(q.ID)
	}
	s.closed = true
	s.emit(ev)
	return nil
}

// Submit assembles the response and closes the session
func (s *Session) Submit(surveyID, respondentID string, attachments map[string]Attachment) (*model.Response, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	resp, err := Assemble(s.eval, s.answers, surveyID, respondentID, attachments)
	if err != nil {
		return nil, err
	}
	s.closed = true
	s.emit(Event{
		Kind:          EventCompleted,
		QuestionIndex: s.cursorIndex(),
		SectionIndex:  s.nav.SectionIndex(),
		Answer:        fmt.Sprintf("Submitted %d answers", len(resp.Answers)),
	})
	return resp, nil
}

// State exports the session for storage between requests
func (s *Session) State() State {
	return State{
		SectionIndex:  s.nav.SectionIndex(),
		QuestionIndex: s.nav.QuestionIndex(),
		Answers:       s.answers.Map(),
		StartedAt:     s.started,
		LastEventAt:   s.last,
		Closed:        s.closed,
	}
}

// cursorIndex is the global position of the cursor
func (s *Session) cursorIndex() int {
	idx := 0
	for i := 0; i < s.nav.SectionIndex(); i++ {
		sec, _ := s.eval.Section(i)
		idx += len(sec.Questions)
	}
	return idx + s.nav.QuestionIndex()
}

func (s *Session) emit(ev Event) {
	now := s.now()
	ev.At = now
	ev.Elapsed = now.Sub(s.last)
	s.last = now
	if s.sink == nil {
		return
	}
	defer func() { _ = recover() }()
	s.sink.Emit(ev)
}
