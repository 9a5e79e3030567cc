package model

import "time"

// CreatorType distinguishes surveys built by administrators from those built by researchers
type CreatorType string

const (
	CreatorAdmin CreatorType = "admin"
	CreatorUser  CreatorType = "user"
)

// Survey is a persistent questionnaire addressed publicly by its ShareableID
type Survey struct {
	ID          string    `json:"_id" bson:"_id,omitempty"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Sections    []Section `json:"sections" bson:"sections"`
	// Questions holds legacy flat surveys that predate sections
	Questions      []Question  `json:"questions,omitempty" bson:"questions,omitempty"`
	ShareableID    string      `json:"shareableId" bson:"shareableId"`
	CreatedBy      string      `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedByType  CreatorType `json:"createdByType,omitempty" bson:"createdByType,omitempty"`
	ScheduledDate  *time.Time  `json:"scheduledDate,omitempty" bson:"scheduledDate,omitempty"`
	ExpirationDate *time.Time  `json:"expirationDate,omitempty" bson:"expirationDate,omitempty"`
	IsActive       *bool       `json:"isActive,omitempty" bson:"isActive,omitempty"`
	CreatedAt      time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// Active reports whether the survey accepts responses; unset means active
func (s *Survey) Active() bool {
	return s.IsActive == nil || *s.IsActive
}

// AllQuestions returns every question in section order, or the legacy flat list
func (s *Survey) AllQuestions() []Question {
	if len(s.Sections) == 0 {
		return s.Questions
	}
	var all []Question
	for _, sec := range s.Sections {
		all = append(all, sec.Questions...)
	}
	return all
}

// Section is an ordered group of questions, the unit of stepwise navigation
type Section struct {
	ID          string     `json:"id" bson:"id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	Questions   []Question `json:"questions" bson:"questions"`
	Order       int        `json:"order" bson:"order"`
}

// SurveySummary is the public listing entry for a survey
type SurveySummary struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ShareableID   string    `json:"shareableId"`
	QuestionCount int       `json:"questionCount"`
	ResponseCount int64     `json:"responseCount"`
	HasAudio      bool      `json:"hasAudio"`
	HasFiles      bool      `json:"hasFiles"`
	CreatedAt     time.Time `json:"createdAt"`
}
