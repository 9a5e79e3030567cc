package model

import "time"

// Answer is one question's stored answer; multi-select answers are comma-joined
type Answer struct {
	QuestionID string `json:"questionId" bson:"questionId"`
	Answer     string `json:"answer" bson:"answer"`
	AudioPath  string `json:"audioPath,omitempty" bson:"audioPath,omitempty"`
	FilePath   string `json:"filePath,omitempty" bson:"filePath,omitempty"`
}

// Response is a submitted set of answers, unique per (SurveyID, RespondentID)
type Response struct {
	ID           string    `json:"_id" bson:"_id,omitempty"`
	SurveyID     string    `json:"surveyId" bson:"surveyId"`
	RespondentID string    `json:"respondentId" bson:"respondentId"`
	Answers      []Answer  `json:"answers" bson:"answers"`
	SubmittedAt  time.Time `json:"submittedAt" bson:"submittedAt"`
}

// AnswerFor returns the answer to questionID, if any
func (r *Response) AnswerFor(questionID string) (Answer, bool) {
	for _, a := range r.Answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return Answer{}, false
}

// RespondentCheck reports whether a respondent already submitted to a survey
type RespondentCheck struct {
	HasResponded bool       `json:"hasResponded"`
	ResponseID   string     `json:"responseId,omitempty"`
	SubmittedAt  *time.Time `json:"submittedAt,omitempty"`
}
