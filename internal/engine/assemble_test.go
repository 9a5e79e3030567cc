package engine

import (
	"datalingua/internal/model"
	"errors"
	"testing"
)

func TestAssembleRejectsIncomplete(t *testing.T) {
	e := NewEvaluator(scenarioSurvey())
	answers := NewAnswerSet().With("Q1", Scalar("Yes"))

	_, err := Assemble(e, answers, "s1", "r1", nil)
	var rejected *SubmissionRejected
	if !errors.As(err, &rejected) {
		t.Fatalf("expected SubmissionRejected, got %v", err)
	}
	if !sameIDs(rejected.Missing, []string{"Q2"}) {
		t.Fatalf("missing = %v", rejected.Missing)
	}
	if !errors.Is(err, ErrSubmissionRejected) {
		t.Fatalf("errors.Is should match the sentinel")
	}
}

func TestAssembleRetainsStaleAnswers(t *testing.T) {
	e := NewEvaluator(scenarioSurvey())
	answers := NewAnswerSet().
		With("Q1", Scalar("Yes")).
		With("Q2", Scalar("hello")).
		With("Q1", Scalar("No"))

	if got := ids(e.VisibleInSection(0, answers)); !sameIDs(got, []string{"Q1"}) {
		t.Fatalf("visible = %v", got)
	}
	resp, err := Assemble(e, answers, "s1", "r1", nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if resp.SurveyID != "s1" || resp.RespondentID != "r1" {
		t.Fatalf("ids not carried: %+v", resp)
	}
	a, ok := resp.AnswerFor("Q2")
	if !ok || a.Answer != "hello" {
		t.Fatalf("stale Q2 answer dropped: %+v", resp.Answers)
	}
	if resp.Answers[0].QuestionID != "Q1" {
		t.Fatalf("answers should follow survey order: %+v", resp.Answers)
	}
}

func TestAssembleMergesAttachments(t *testing.T) {
	audio := question("voice", model.QuestionAudio, true)
	file := question("doc", model.QuestionFileUpload, false)
	text := question("note", model.QuestionShortAnswer, false)
	unanswered := question("extra", model.QuestionFileUpload, false)
	e := NewEvaluator(&model.Survey{Title: "uploads", Sections: []model.Section{
		{ID: "s", Questions: []model.Question{audio, file, text, unanswered}},
	}})

	answers := NewAnswerSet().
		With("voice", Scalar(AudioPlaceholder)).
		With("doc", Scalar(FilePlaceholder("cv.pdf"))).
		With("note", Scalar("hi"))
	atts := map[string]Attachment{
		"voice": {Ref: "/uploads/audio/1.webm"},
		"doc":   NoAttachment,
		"extra": {Ref: "/uploads/files/2.pdf"},
	}

	resp, err := Assemble(e, answers, "s", "r", atts)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(resp.Answers) != 3 {
		t.Fatalf("answers = %+v", resp.Answers)
	}
	voice, _ := resp.AnswerFor("voice")
	if voice.AudioPath != "/uploads/audio/1.webm" || voice.Answer != "Audio response recorded" {
		t.Fatalf("voice = %+v", voice)
	}
	doc, _ := resp.AnswerFor("doc")
	if doc.FilePath != "" || doc.Answer != "File: cv.pdf" {
		t.Fatalf("doc should have no path: %+v", doc)
	}
	if _, ok := resp.AnswerFor("extra"); ok {
		t.Fatalf("attachment for an unanswered question created an answer")
	}

	atts["note"] = Attachment{Ref: "/uploads/files/x"}
	if _, err := Assemble(e, answers, "s", "r", atts); !errors.Is(err, ErrAttachmentKind) {
		t.Fatalf("expected ErrAttachmentKind, got %v", err)
	}
}

func TestAssembleJoinsMultiSelect(t *testing.T) {
	q := question("colors", model.QuestionMultipleChoice, true)
	q.Options = []string{"Red", "Green", "Blue"}
	q.MultipleChoiceSettings = &model.MultipleChoiceSettings{AllowMultipleAnswers: true}
	e := NewEvaluator(&model.Survey{Title: "c", Questions: []model.Question{q}})

	resp, err := Assemble(e, NewAnswerSet().With("colors", Multi("Red", "Blue")), "s", "r", nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if resp.Answers[0].Answer != "Red,Blue" {
		t.Fatalf("answer = %q", resp.Answers[0].Answer)
	}
}
