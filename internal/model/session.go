package model

import "time"

// StepAction is what a respondent did at a step of a fill-in session
type StepAction string

const (
	StepViewed           StepAction = "viewed"
	StepAnswered         StepAction = "answered"
	StepSkipped          StepAction = "skipped"
	StepSectionCompleted StepAction = "section_completed"
	StepAbandoned        StepAction = "abandoned"
	StepCompleted        StepAction = "completed"
)

// Valid reports whether a is a known action
func (a StepAction) Valid() bool {
	switch a {
	case StepViewed, StepAnswered, StepSkipped, StepSectionCompleted, StepAbandoned, StepCompleted:
		return true
	}
	return false
}

// SessionStep is one telemetry record
type SessionStep struct {
	QuestionID    string     `json:"questionId" bson:"questionId"`
	QuestionIndex int        `json:"questionIndex" bson:"questionIndex"`
	Action        StepAction `json:"action" bson:"action"`
	Timestamp     time.Time  `json:"timestamp" bson:"timestamp"`
	TimeSpent     float64    `json:"timeSpent" bson:"timeSpent"` // seconds since the previous step
	Answer        string     `json:"answer,omitempty" bson:"answer,omitempty"`
}

// SurveySession aggregates the telemetry steps of one respondent on one survey
type SurveySession struct {
	ID                   string        `json:"_id" bson:"_id,omitempty"`
	SurveyID             string        `json:"surveyId" bson:"surveyId"`
	RespondentID         string        `json:"respondentId" bson:"respondentId"`
	StartTime            time.Time     `json:"startTime" bson:"startTime"`
	LastActivity         time.Time     `json:"lastActivity" bson:"lastActivity"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex" bson:"currentQuestionIndex"`
	IsCompleted          bool          `json:"isCompleted" bson:"isCompleted"`
	IsAbandoned          bool          `json:"isAbandoned" bson:"isAbandoned"`
	Steps                []SessionStep `json:"steps" bson:"steps"`
	BrowserInfo          string        `json:"browserInfo,omitempty" bson:"browserInfo,omitempty"`
}

// StepRecord is a step addressed to a (survey, respondent) session
type StepRecord struct {
	SurveyID     string      `json:"surveyId"`
	RespondentID string      `json:"respondentId"`
	BrowserInfo  string      `json:"browserInfo,omitempty"`
	Step         SessionStep `json:"step"`
}

// AbandonmentPoint counts abandonments at a question
type AbandonmentPoint struct {
	QuestionID    string `json:"questionId" bson:"questionId"`
	QuestionIndex int    `json:"questionIndex" bson:"questionIndex"`
	Count         int    `json:"count" bson:"count"`
}

// QuestionTiming is the mean time respondents spent on a question
type QuestionTiming struct {
	QuestionID     string  `json:"questionId" bson:"questionId"`
	AvgTimeSeconds float64 `json:"avgTime" bson:"avgTime"`
	Count          int     `json:"count" bson:"count"`
}

// SessionStats summarizes the fill-in sessions of a survey
type SessionStats struct {
	TotalSessions      int64              `json:"totalSessions"`
	CompletedSessions  int64              `json:"completedSessions"`
	AbandonedSessions  int64              `json:"abandonedSessions"`
	CompletionRate     float64            `json:"completionRate"`
	AbandonmentRate    float64            `json:"abandonmentRate"`
	AbandonmentPoints  []AbandonmentPoint `json:"abandonmentPoints"`
	AvgTimePerQuestion []QuestionTiming   `json:"avgTimePerQuestion"`
}
