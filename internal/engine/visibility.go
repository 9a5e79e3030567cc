package engine

import (
	"datalingua/internal/model"
	"strings"
)

// IsVisible decides whether q is shown given the answers so far.
//
// A question without a dependency is always visible. A dependency that has no
// answer yet, or that names an unknown question, hides the question. Unknown
// operators leave it visible; Validate keeps them out of stored surveys.
func IsVisible(q model.Question, answers AnswerSet) bool {
	logic := q.ConditionalLogic
	if logic == nil || logic.DependsOn == "" {
		return true
	}
	dep, ok := answers.Get(logic.DependsOn)
	if !ok || dep.IsEmpty() {
		return false
	}

	switch operatorOf(logic) {
	case model.OperatorEquals:
		return equalsAny(dep, logic.ShowWhen)
	case model.OperatorNotEquals:
		return !equalsAny(dep, logic.ShowWhen)
	case model.OperatorContains:
		return containsAny(dep, logic.ShowWhen)
	default:
		return true
	}
}

func operatorOf(logic *model.ConditionalLogic) model.Operator {
	if logic.Operator == "" {
		return model.OperatorEquals
	}
	return logic.Operator
}

// matches compares the stored form of the answer, so a multi-selection is the
// comma-joined string. A trigger set matches when any member does.
func matches(dep Value, when model.ShowWhen, cmp func(answer, trigger string) bool) bool {
	answer := dep.Wire()
	for _, w := range when.Values() {
		if cmp(answer, w) {
			return true
		}
	}
	return false
}

func equalsAny(dep Value, when model.ShowWhen) bool {
	return matches(dep, when, func(answer, trigger string) bool { return answer == trigger })
}

func containsAny(dep Value, when model.ShowWhen) bool {
	return matches(dep, when, strings.Contains)
}

// VisibleQuestions filters questions down to the visible ones, preserving order
func VisibleQuestions(questions []model.Question, answers AnswerSet) []model.Question {
	out := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if IsVisible(q, answers) {
			out = append(out, q)
		}
	}
	return out
}
