package model

// SectionHeader identifies the section a respondent is on
type SectionHeader struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// FillState is the respondent-facing view of a fill-in session
type FillState struct {
	SurveyID      string            `json:"surveyId"`
	ShareableID   string            `json:"shareableId"`
	RespondentID  string            `json:"respondentId"`
	Title         string            `json:"title"`
	Section       SectionHeader     `json:"section"`
	SectionIndex  int               `json:"sectionIndex"`
	SectionCount  int               `json:"sectionCount"`
	QuestionIndex int               `json:"questionIndex"`
	Questions     []Question        `json:"questions"` // visible questions of the current section
	Answers       map[string]string `json:"answers"`
	CanAdvance    bool              `json:"canAdvance"`
	Missing       []string          `json:"missing,omitempty"`
	CanSubmit     bool              `json:"canSubmit"`
	IsFirst       bool              `json:"isFirstSection"`
	IsLast        bool              `json:"isLastSection"`
	Moved         bool              `json:"moved,omitempty"`
	Closed        bool              `json:"closed,omitempty"`
}
