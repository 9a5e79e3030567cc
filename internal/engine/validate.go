package engine

import (
	"datalingua/internal/model"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidSurvey wraps every authoring problem found by Validate
var ErrInvalidSurvey = errors.New("invalid survey")

var likertSizes = map[int]bool{3: true, 4: true, 5: true, 7: true, 10: true}

// Validate checks a survey definition before it is stored. All problems are
// reported together.
func Validate(s *model.Survey) error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if s.Title == "" {
		add("title is required")
	}

	seen := make(map[string]bool)
	sectionIDs := make(map[string]bool)
	for _, sec := range Normalize(s) {
		if len(s.Sections) > 0 {
			if sec.ID == "" {
				add("section %q has no id", sec.Title)
			} else if sectionIDs[sec.ID] {
				add("duplicate section id %q", sec.ID)
			}
			sectionIDs[sec.ID] = true
		}
		for _, q := range sec.Questions {
			if q.ID == "" {
				add("question %q has no id", q.Prompt)
				continue
			}
			if seen[q.ID] {
				add("duplicate question id %q", q.ID)
			}
			checkQuestion(q, seen, add)
			seen[q.ID] = true
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSurvey, errors.Join(problems...))
}

// checkQuestion validates one question; earlier holds the ids that precede it
func checkQuestion(q model.Question, earlier map[string]bool, add func(string, ...any)) {
	if !q.Type.Valid() {
		add("question %q has unknown type %q", q.ID, q.Type)
	}

	switch q.Type {
	case model.QuestionMultipleChoice:
		if len(q.Options) == 0 {
			add("question %q needs at least one option", q.ID)
		}
		if q.AllowsMultiple() {
			// selections are stored comma-joined
			for _, opt := range q.Options {
				if strings.Contains(opt, ",") {
					add("question %q allows several answers, so option %q cannot contain a comma", q.ID, opt)
				}
			}
		}
	case model.QuestionLikert:
		if !likertSizes[q.ScaleSize()] {
			add("question %q has unsupported scale size %d", q.ID, q.ScaleSize())
		}
	case model.QuestionDateTime:
		if st := q.DateTimeSettings; st != nil {
			for _, d := range []string{st.MinDate, st.MaxDate} {
				if d == "" {
					continue
				}
				if _, err := time.Parse(dateLayout, d); err != nil {
					add("question %q has malformed date bound %q", q.ID, d)
				}
			}
		}
	}

	logic := q.ConditionalLogic
	if logic == nil || logic.DependsOn == "" {
		return
	}
	switch logic.Operator {
	case "", model.OperatorEquals, model.OperatorContains, model.OperatorNotEquals:
	default:
		add("question %q uses unknown operator %q", q.ID, logic.Operator)
	}
	if logic.ShowWhen.IsZero() {
		add("question %q has an empty showWhen", q.ID)
	}
	for _, w := range logic.ShowWhen.Values() {
		if strings.TrimSpace(w) == "" {
			add("question %q has a blank showWhen value", q.ID)
			break
		}
	}
	if logic.DependsOn == q.ID {
		add("question %q depends on itself", q.ID)
	} else if !earlier[logic.DependsOn] {
		add("question %q depends on %q, which is not an earlier question", q.ID, logic.DependsOn)
	}
}
