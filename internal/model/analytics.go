package model

import "time"

// SurveyAnalytics is the researcher dashboard for one survey
type SurveyAnalytics struct {
	SurveyID          string              `json:"surveyId"`
	TotalResponses    int                 `json:"totalResponses"`
	TotalQuestions    int                 `json:"totalQuestions"`
	QuestionAnalytics []QuestionAnalytics `json:"questionAnalytics"`
	SubmissionTrend   []TrendPoint        `json:"submissionTrend"`
	LastResponseAt    *time.Time          `json:"lastResponseAt,omitempty"`
	ComputedAt        time.Time           `json:"computedAt"`
}

// QuestionAnalytics aggregates the answers to one question.
// Only the fields relevant to the question's type are set.
type QuestionAnalytics struct {
	QuestionID   string       `json:"questionId"`
	Question     string       `json:"question"`
	Type         QuestionType `json:"type"`
	Responses    int          `json:"responses"`
	ResponseRate float64      `json:"responseRate"` // percent of all responses

	Options []OptionCount `json:"options,omitempty"` // multiple-choice

	AverageWordCount float64  `json:"averageWordCount,omitempty"` // text
	SampleAnswers    []string `json:"sampleAnswers,omitempty"`

	ScaleSize    int          `json:"scaleSize,omitempty"` // likert
	ScaleType    string       `json:"scaleType,omitempty"`
	Distribution []ScoreCount `json:"distribution,omitempty"`
	AverageScore float64      `json:"averageScore,omitempty"`
}

// OptionCount is how often a multiple-choice option was selected
type OptionCount struct {
	Option     string  `json:"option"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ScoreCount is how often a likert score was chosen
type ScoreCount struct {
	Score      int     `json:"score"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TrendPoint is the number of submissions on one day (YYYY-MM-DD)
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// FilterRequest segments responses with a boolean expression
type FilterRequest struct {
	Expression string `json:"expression"`
}

// FilterResult is the matching subset of responses
type FilterResult struct {
	Expression string      `json:"expression"`
	Matched    int         `json:"matched"`
	Total      int         `json:"total"`
	Responses  []*Response `json:"responses"`
}
