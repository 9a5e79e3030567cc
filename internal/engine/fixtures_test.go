package engine

import "datalingua/internal/model"

func question(id string, kind model.QuestionType, required bool) model.Question {
	return model.Question{ID: id, Type: kind, Prompt: "Question " + id, Required: required}
}

func dependent(id, dependsOn string, op model.Operator, when model.ShowWhen, required bool) model.Question {
	q := question(id, model.QuestionShortAnswer, required)
	q.ConditionalLogic = &model.ConditionalLogic{DependsOn: dependsOn, ShowWhen: when, Operator: op}
	return q
}

// scenarioSurvey is S1{Q1 yes/no required, Q2 required shown when Q1 == "Yes"}
func scenarioSurvey() *model.Survey {
	q1 := question("Q1", model.QuestionMultipleChoice, true)
	q1.Options = []string{"Yes", "No"}
	q2 := dependent("Q2", "Q1", model.OperatorEquals, model.ShowWhenValue("Yes"), true)
	return &model.Survey{
		ID:    "s1",
		Title: "Scenario",
		Sections: []model.Section{
			{ID: "S1", Title: "First", Order: 0, Questions: []model.Question{q1, q2}},
		},
	}
}

// threeSections has two required questions in section A, one optional in B, and a required one in C
func threeSections() *model.Survey {
	return &model.Survey{
		ID:    "s3",
		Title: "Three",
		Sections: []model.Section{
			{ID: "C", Title: "Third", Order: 2, Questions: []model.Question{
				question("c1", model.QuestionLongAnswer, true),
			}},
			{ID: "A", Title: "First", Order: 0, Questions: []model.Question{
				question("a1", model.QuestionShortAnswer, true),
				question("a2", model.QuestionShortAnswer, true),
			}},
			{ID: "B", Title: "Second", Order: 1, Questions: []model.Question{
				question("b1", model.QuestionShortAnswer, false),
				question("b2", model.QuestionShortAnswer, false),
				question("b3", model.QuestionShortAnswer, false),
			}},
		},
	}
}

func legacySurvey() *model.Survey {
	return &model.Survey{
		ID:    "legacy",
		Title: "Flat",
		Questions: []model.Question{
			question("l1", model.QuestionShortAnswer, true),
			question("l2", model.QuestionShortAnswer, false),
		},
	}
}

func ids(qs []model.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
