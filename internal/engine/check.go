package engine

import (
	"datalingua/internal/model"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidAnswer wraps every answer rejected by CheckAnswer
var ErrInvalidAnswer = errors.New("invalid answer")

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04"
	dateTimeLayout = "2006-01-02T15:04"
)

// CheckAnswer validates a value against the question's kind and settings.
// Empty values always pass; they clear the answer. Audio and file answers only
// come from uploads (Session.Attach), so typed text for them is rejected.
func CheckAnswer(q model.Question, v Value) error {
	if v.IsEmpty() {
		return nil
	}
	if v.IsMulti() && !q.AllowsMultiple() {
		return fmt.Errorf("%w: %s accepts a single value", ErrInvalidAnswer, q.ID)
	}

	switch q.Type {
	case model.QuestionMultipleChoice:
		for _, sel := range v.Selections() {
			if !contains(q.Options, sel) {
				return fmt.Errorf("%w: %q is not an option of %s", ErrInvalidAnswer, sel, q.ID)
			}
		}
	case model.QuestionLikert:
		n, err := strconv.Atoi(v.Wire())
		if err != nil || n < 1 || n > q.ScaleSize() {
			return fmt.Errorf("%w: %s expects a score from 1 to %d", ErrInvalidAnswer, q.ID, q.ScaleSize())
		}
	case model.QuestionDateTime:
		return checkDateTime(q, v.Wire())
	case model.QuestionAudio, model.QuestionFileUpload:
		return fmt.Errorf("%w: %s takes an upload, not text", ErrInvalidAnswer, q.ID)
	}
	return nil
}

func checkDateTime(q model.Question, s string) error {
	var (
		t      time.Time
		err    error
		hasDay = true
	)
	for _, layout := range []string{dateTimeLayout, dateLayout, timeLayout} {
		if t, err = time.Parse(layout, s); err == nil {
			hasDay = layout != timeLayout
			break
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %s expects a date or time", ErrInvalidAnswer, q.ID)
	}

	st := q.DateTimeSettings
	if st == nil || !hasDay {
		return nil
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if lo, perr := time.Parse(dateLayout, st.MinDate); st.MinDate != "" && perr == nil && day.Before(lo) {
		return fmt.Errorf("%w: %s must be on or after %s", ErrInvalidAnswer, q.ID, st.MinDate)
	}
	if hi, perr := time.Parse(dateLayout, st.MaxDate); st.MaxDate != "" && perr == nil && day.After(hi) {
		return fmt.Errorf("%w: %s must be on or before %s", ErrInvalidAnswer, q.ID, st.MaxDate)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
