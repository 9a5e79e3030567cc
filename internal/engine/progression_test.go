package engine

import "testing"

func TestNavigatorGatesAdvance(t *testing.T) {
	e := NewEvaluator(threeSections())
	n := NewNavigator(e)
	answers := NewAnswerSet().With("a1", Scalar("x"))

	g, moved := n.Next(answers)
	if moved || n.SectionIndex() != 0 {
		t.Fatalf("advanced with a2 unanswered")
	}
	if !sameIDs(g.Missing, []string{"a2"}) {
		t.Fatalf("missing = %v", g.Missing)
	}

	answers = answers.With("a2", Scalar("y"))
	if _, moved = n.Next(answers); !moved || n.SectionIndex() != 1 || n.QuestionIndex() != 0 {
		t.Fatalf("expected to reach section 1, at %d/%d", n.SectionIndex(), n.QuestionIndex())
	}
}

func TestNavigatorStopsAtLastSection(t *testing.T) {
	e := NewEvaluator(threeSections())
	n := RestoreNavigator(e, 2, 0)
	if !n.IsLastSection() {
		t.Fatalf("section 2 of 3 should be last")
	}
	all := NewAnswerSet().With("c1", Scalar("done"))
	if _, moved := n.Next(all); moved {
		t.Fatalf("moved past the last section")
	}
}

func TestNavigatorPreviousLandsOnLastQuestion(t *testing.T) {
	e := NewEvaluator(threeSections())

	n := RestoreNavigator(e, 2, 0)
	if !n.Previous() {
		t.Fatalf("previous from section 2 refused")
	}
	if n.SectionIndex() != 1 || n.QuestionIndex() != 2 {
		t.Fatalf("cursor = %d/%d, want 1/2", n.SectionIndex(), n.QuestionIndex())
	}

	if !n.Previous() || n.SectionIndex() != 0 || n.QuestionIndex() != 1 {
		t.Fatalf("cursor = %d/%d, want 0/1", n.SectionIndex(), n.QuestionIndex())
	}
	if n.Previous() {
		t.Fatalf("previous from the first section should be refused")
	}
	if n.SectionIndex() != 0 || n.QuestionIndex() != 1 {
		t.Fatalf("refused move changed the cursor")
	}
}

func TestNavigatorOnlyMovesExplicitly(t *testing.T) {
	e := NewEvaluator(threeSections())
	n := NewNavigator(e)
	answers := NewAnswerSet()
	for _, id := range []string{"a1", "a2", "b1", "c1"} {
		answers = answers.With(id, Scalar("v"))
		e.CanAdvance(n.SectionIndex(), answers)
		e.CanSubmit(answers)
		if n.SectionIndex() != 0 {
			t.Fatalf("answering %s moved the navigator", id)
		}
	}
}

func TestLegacySurveyNeverNavigates(t *testing.T) {
	e := NewEvaluator(legacySurvey())
	n := NewNavigator(e)
	if !e.Legacy() {
		t.Fatalf("expected legacy survey")
	}
	if !n.IsLastSection() || !n.IsFirstSection() {
		t.Fatalf("legacy survey should be both first and last")
	}
	answers := NewAnswerSet().With("l1", Scalar("x"))
	if _, moved := n.Next(answers); moved {
		t.Fatalf("legacy Next moved")
	}
	if n.Previous() {
		t.Fatalf("legacy Previous moved")
	}
	if !n.IsLastSection() || n.SectionIndex() != 0 {
		t.Fatalf("legacy cursor changed")
	}
	if !e.CanSubmit(answers).OK() {
		t.Fatalf("legacy submit should depend on CanSubmit only")
	}
}
