package model

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// QuestionType defines the kind of a question
type QuestionType string

const (
	QuestionShortAnswer    QuestionType = "short-answer"
	QuestionLongAnswer     QuestionType = "long-answer"
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionLikert         QuestionType = "likert-scale"
	QuestionDateTime       QuestionType = "date-time"
	QuestionAudio          QuestionType = "audio"
	QuestionFileUpload     QuestionType = "file-upload"
)

// Valid reports whether t is one of the seven known kinds
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionShortAnswer, QuestionLongAnswer, QuestionMultipleChoice, QuestionLikert,
		QuestionDateTime, QuestionAudio, QuestionFileUpload:
		return true
	}
	return false
}

// HasAttachment reports whether answers of this kind carry a stored binary
func (t QuestionType) HasAttachment() bool {
	return t == QuestionAudio || t == QuestionFileUpload
}

// Operator compares a dependency's answer against ShowWhen
type Operator string

const (
	OperatorEquals    Operator = "equals"
	OperatorContains  Operator = "contains"
	OperatorNotEquals Operator = "not_equals"
)

// Question is a single typed question inside a section
type Question struct {
	ID               string            `json:"id" bson:"id"`
	Type             QuestionType      `json:"type" bson:"type"`
	Prompt           string            `json:"question" bson:"question"`
	Options          []string          `json:"options,omitempty" bson:"options,omitempty"`
	Required         bool              `json:"required" bson:"required"`
	ConditionalLogic *ConditionalLogic `json:"conditionalLogic,omitempty" bson:"conditionalLogic,omitempty"`

	AudioSettings          *AudioSettings          `json:"audioSettings,omitempty" bson:"audioSettings,omitempty"`
	FileSettings           *FileSettings           `json:"fileSettings,omitempty" bson:"fileSettings,omitempty"`
	DateTimeSettings       *DateTimeSettings       `json:"dateTimeSettings,omitempty" bson:"dateTimeSettings,omitempty"`
	MultipleChoiceSettings *MultipleChoiceSettings `json:"multipleChoiceSettings,omitempty" bson:"multipleChoiceSettings,omitempty"`
	LikertSettings         *LikertSettings         `json:"likertSettings,omitempty" bson:"likertSettings,omitempty"`
}

// AllowsMultiple reports whether a multiple-choice question accepts several selections
func (q *Question) AllowsMultiple() bool {
	return q.Type == QuestionMultipleChoice && q.MultipleChoiceSettings != nil && q.MultipleChoiceSettings.AllowMultipleAnswers
}

// ScaleSize returns the likert scale size, defaulting to 5
func (q *Question) ScaleSize() int {
	if q.LikertSettings == nil || q.LikertSettings.ScaleSize == 0 {
		return 5
	}
	return q.LikertSettings.ScaleSize
}

// ScaleType returns the likert scale type, defaulting to agreement
func (q *Question) ScaleType() string {
	if q.LikertSettings == nil || q.LikertSettings.ScaleType == "" {
		return "agreement"
	}
	return q.LikertSettings.ScaleType
}

// ConditionalLogic makes a question's visibility depend on an earlier answer
type ConditionalLogic struct {
	DependsOn string   `json:"dependsOn" bson:"dependsOn"`
	ShowWhen  ShowWhen `json:"showWhen" bson:"showWhen"`
	Operator  Operator `json:"operator,omitempty" bson:"operator,omitempty"`
}

type AudioSettings struct {
	CanReRecord        bool `json:"canReRecord" bson:"canReRecord"`
	MaxDurationMinutes int  `json:"maxDurationMinutes" bson:"maxDurationMinutes"`
}

type FileSettings struct {
	AllowedExtensions []string `json:"allowedExtensions,omitempty" bson:"allowedExtensions,omitempty"`
	MaxFileSizeMB     int      `json:"maxFileSizeMB" bson:"maxFileSizeMB"`
}

type DateTimeSettings struct {
	IncludeDate bool   `json:"includeDate" bson:"includeDate"`
	IncludeTime bool   `json:"includeTime" bson:"includeTime"`
	MinDate     string `json:"minDate,omitempty" bson:"minDate,omitempty"`
	MaxDate     string `json:"maxDate,omitempty" bson:"maxDate,omitempty"`
}

type MultipleChoiceSettings struct {
	AllowMultipleAnswers bool `json:"allowMultipleAnswers" bson:"allowMultipleAnswers"`
	RandomizeOrder       bool `json:"randomizeOrder" bson:"randomizeOrder"`
}

type LikertSettings struct {
	ScaleType    string   `json:"scaleType,omitempty" bson:"scaleType,omitempty"` // agreement, satisfaction, frequency, importance, quality, likelihood, custom
	ScaleSize    int      `json:"scaleSize,omitempty" bson:"scaleSize,omitempty"`
	LeftLabel    string   `json:"leftLabel,omitempty" bson:"leftLabel,omitempty"`
	RightLabel   string   `json:"rightLabel,omitempty" bson:"rightLabel,omitempty"`
	CenterLabel  string   `json:"centerLabel,omitempty" bson:"centerLabel,omitempty"`
	CustomLabels []string `json:"customLabels,omitempty" bson:"customLabels,omitempty"`
	ShowNumbers  bool     `json:"showNumbers" bson:"showNumbers"`
	ShowNeutral  bool     `json:"showNeutral" bson:"showNeutral"`
}

// ShowWhen is either a single trigger value or a set of them.
// It is stored as a plain string or an array of strings.
type ShowWhen struct {
	values []string
	set    bool
}

// ShowWhenValue builds a single-valued trigger
func ShowWhenValue(v string) ShowWhen {
	return ShowWhen{values: []string{v}}
}

// ShowWhenAny builds a set-valued trigger
func ShowWhenAny(vs ...string) ShowWhen {
	return ShowWhen{values: append([]string{}, vs...), set: true}
}

// IsSet reports whether the trigger holds a set of values
func (w ShowWhen) IsSet() bool { return w.set }

// Values returns the trigger values; a single-valued trigger yields one element
func (w ShowWhen) Values() []string { return w.values }

// Value returns the single trigger value, or "" for a set
func (w ShowWhen) Value() string {
	if w.set || len(w.values) == 0 {
		return ""
	}
	return w.values[0]
}

// IsZero reports whether no trigger was configured
func (w ShowWhen) IsZero() bool { return len(w.values) == 0 }

func (w ShowWhen) MarshalJSON() ([]byte, error) {
	if w.set {
		return json.Marshal(w.values)
	}
	return json.Marshal(w.Value())
}

func (w *ShowWhen) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*w = ShowWhenValue(s)
		return nil
	}
	var vs []string
	if err := json.Unmarshal(data, &vs); err != nil {
		return fmt.Errorf("showWhen must be a string or an array of strings")
	}
	if vs == nil {
		*w = ShowWhen{}
		return nil
	}
	*w = ShowWhenAny(vs...)
	return nil
}

func (w ShowWhen) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if w.set {
		return bson.MarshalValue(append([]string{}, w.values...))
	}
	return bson.MarshalValue(w.Value())
}

func (w *ShowWhen) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*w = ShowWhenValue(raw.StringValue())
	case bsontype.Array:
		var vs []string
		if err := raw.Unmarshal(&vs); err != nil {
			return err
		}
		*w = ShowWhenAny(vs...)
	case bsontype.Null, bsontype.Undefined:
		*w = ShowWhen{}
	default:
		return fmt.Errorf("showWhen: unexpected bson type %s", t)
	}
	return nil
}
