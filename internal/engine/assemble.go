package engine

import (
	"datalingua/internal/model"
	"errors"
	"fmt"
	"strings"
)

// AudioPlaceholder is the answer text stored for a recorded audio answer
const AudioPlaceholder = "Audio response recorded"

// FilePlaceholder is the answer text stored for an uploaded file
func FilePlaceholder(name string) string {
	return "File: " + name
}

// ErrSubmissionRejected matches any *SubmissionRejected with errors.Is
var ErrSubmissionRejected = errors.New("submission rejected")

// ErrAttachmentKind is returned when an attachment targets a question that takes none
var ErrAttachmentKind = errors.New("attachment on a question without uploads")

// SubmissionRejected lists required visible questions left unanswered
type SubmissionRejected struct {
	Missing []string
}

func (e *SubmissionRejected) Error() string {
	return fmt.Sprintf("required questions unanswered: %s", strings.Join(e.Missing, ", "))
}

func (e *SubmissionRejected) Is(target error) bool {
	return target == ErrSubmissionRejected
}

// Attachment is a stored binary for an audio or file answer. The zero value
// is NoAttachment; a Ref is only ever what the storage layer returned.
type Attachment struct {
	Ref string
}

// NoAttachment marks an answer that has no stored binary
var NoAttachment = Attachment{}

func (a Attachment) Present() bool { return a.Ref != "" }

// Assemble turns the answers into a Response. It fails with *SubmissionRejected
// when a required visible question is unanswered. Every answered question is
// kept, including ones hidden by later changes. Attachments for questions
// that were not answered are ignored.
func Assemble(e *Evaluator, answers AnswerSet, surveyID, respondentID string, attachments map[string]Attachment) (*model.Response, error) {
	if g := e.CanSubmit(answers); !g.OK() {
		return nil, &SubmissionRejected{Missing: g.Missing}
	}

	resp := &model.Response{
		SurveyID:     surveyID,
		RespondentID: respondentID,
		Answers:      make([]model.Answer, 0, answers.Len()),
	}
	for _, id := range e.ordered(answers.IDs()) {
		v, _ := answers.Get(id)
		a := model.Answer{QuestionID: id, Answer: v.Wire()}

		if att, ok := attachments[id]; ok && att.Present() {
			q, known := e.Question(id)
			if !known || !q.Type.HasAttachment() {
				return nil, fmt.Errorf("%w: %s", ErrAttachmentKind, id)
			}
			if q.Type == model.QuestionAudio {
				a.AudioPath = att.Ref
			} else {
				a.FilePath = att.Ref
			}
		}
		resp.Answers = append(resp.Answers, a)
	}
	return resp, nil
}
