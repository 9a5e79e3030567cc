package engine

// Navigator tracks which section a respondent is on and where the question
// cursor sits within it. Legacy surveys have a single section and never move.
type Navigator struct {
	eval     *Evaluator
	section  int
	question int
}

// NewNavigator starts at the first section
func NewNavigator(e *Evaluator) *Navigator {
	return &Navigator{eval: e}
}

// RestoreNavigator resumes at a saved cursor, clamped into range
func RestoreNavigator(e *Evaluator, section, question int) *Navigator {
	n := &Navigator{eval: e}
	if section > 0 && section < e.SectionCount() {
		n.section = section
	}
	if question > 0 {
		n.question = question
	}
	return n
}

func (n *Navigator) SectionIndex() int  { return n.section }
func (n *Navigator) QuestionIndex() int { return n.question }

func (n *Navigator) IsFirstSection() bool {
	return n.section == 0
}

// IsLastSection is always true for legacy surveys
func (n *Navigator) IsLastSection() bool {
	return n.eval.Legacy() || n.section >= n.eval.SectionCount()-1
}

// Next moves to the following section when the current one is complete.
// It reports whether the cursor moved; the gate lists what blocks it.
func (n *Navigator) Next(answers AnswerSet) (Gate, bool) {
	g := n.eval.CanAdvance(n.section, answers)
	if !g.OK() || n.IsLastSection() {
		return g, false
	}
	n.section++
	n.question = 0
	return g, true
}

// Previous moves back one section and puts the question cursor on that
// section's last question.
func (n *Navigator) Previous() bool {
	if n.eval.Legacy() || n.section == 0 {
		return false
	}
	n.section--
	sec, _ := n.eval.Section(n.section)
	n.question = len(sec.Questions) - 1
	if n.question < 0 {
		n.question = 0
	}
	return true
}
