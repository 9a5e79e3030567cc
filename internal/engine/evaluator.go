package engine

import (
	"datalingua/internal/model"
	"sort"
)

// DefaultSectionID names the synthetic section that wraps a legacy flat survey
const DefaultSectionID = "default"

// Normalize returns the survey's sections ordered by Order. A legacy survey
// with no sections becomes one synthetic section holding its flat questions.
func Normalize(s *model.Survey) []model.Section {
	if len(s.Sections) == 0 {
		return []model.Section{{
			ID:        DefaultSectionID,
			Title:     s.Title,
			Questions: s.Questions,
		}}
	}
	sections := append([]model.Section{}, s.Sections...)
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Order < sections[j].Order
	})
	return sections
}

type position struct {
	section int
	offset  int
	global  int
}

// Evaluator answers visibility and gating questions for one survey.
// It is built once per survey and is safe for concurrent use.
type Evaluator struct {
	survey   *model.Survey
	sections []model.Section
	legacy   bool
	index    map[string]position
	order    []string
}

// NewEvaluator normalizes the survey and indexes its questions
func NewEvaluator(s *model.Survey) *Evaluator {
	e := &Evaluator{
		survey:   s,
		sections: Normalize(s),
		legacy:   len(s.Sections) == 0,
		index:    make(map[string]position),
	}
	global := 0
	for si, sec := range e.sections {
		for qi, q := range sec.Questions {
			if _, dup := e.index[q.ID]; !dup {
				e.index[q.ID] = position{section: si, offset: qi, global: global}
				e.order = append(e.order, q.ID)
			}
			global++
		}
	}
	return e
}

func (e *Evaluator) Survey() *model.Survey { return e.survey }

// Legacy reports whether the survey was a flat question list
func (e *Evaluator) Legacy() bool { return e.legacy }

func (e *Evaluator) Sections() []model.Section { return e.sections }

func (e *Evaluator) SectionCount() int { return len(e.sections) }

// Section returns section i, or false when i is out of range
func (e *Evaluator) Section(i int) (model.Section, bool) {
	if i < 0 || i >= len(e.sections) {
		return model.Section{}, false
	}
	return e.sections[i], true
}

// Question looks a question up by id
func (e *Evaluator) Question(id string) (model.Question, bool) {
	p, ok := e.index[id]
	if !ok {
		return model.Question{}, false
	}
	return e.sections[p.section].Questions[p.offset], true
}

// GlobalIndex returns the question's position across all sections
func (e *Evaluator) GlobalIndex(id string) (int, bool) {
	p, ok := e.index[id]
	return p.global, ok
}

// SectionOf returns the index of the section holding id
func (e *Evaluator) SectionOf(id string) (int, bool) {
	p, ok := e.index[id]
	return p.section, ok
}

// VisibleInSection returns the visible questions of section i
func (e *Evaluator) VisibleInSection(i int, answers AnswerSet) []model.Question {
	sec, ok := e.Section(i)
	if !ok {
		return nil
	}
	return VisibleQuestions(sec.Questions, answers)
}

// Visible returns the visible questions of the whole survey in global order
func (e *Evaluator) Visible(answers AnswerSet) []model.Question {
	var out []model.Question
	for i := range e.sections {
		out = append(out, e.VisibleInSection(i, answers)...)
	}
	return out
}

// Gate is the outcome of an advance or submit check. Missing lists the
// required visible questions that still lack an answer, in survey order.
type Gate struct {
	Missing []string `json:"missing,omitempty"`
}

// OK reports whether nothing is missing
func (g Gate) OK() bool { return len(g.Missing) == 0 }

// CanAdvance checks the required visible questions of section i
func (e *Evaluator) CanAdvance(i int, answers AnswerSet) Gate {
	return gate(e.VisibleInSection(i, answers), answers)
}

// CanSubmit checks the required visible questions of every section
func (e *Evaluator) CanSubmit(answers AnswerSet) Gate {
	return gate(e.Visible(answers), answers)
}

func gate(visible []model.Question, answers AnswerSet) Gate {
	var g Gate
	for _, q := range visible {
		if q.Required && !answers.Answered(q.ID) {
			g.Missing = append(g.Missing, q.ID)
		}
	}
	return g
}

// ordered returns ids sorted by survey position; unknown ids go last in lexical order
func (e *Evaluator) ordered(ids []string) []string {
	out := append([]string{}, ids...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, iok := e.index[out[i]]
		pj, jok := e.index[out[j]]
		switch {
		case iok && jok:
			return pi.global < pj.global
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}
