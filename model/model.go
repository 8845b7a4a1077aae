package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type SurveyStatus string

const (
	StatusDraft     SurveyStatus = "draft"
	StatusActive    SurveyStatus = "active"
	StatusCompleted SurveyStatus = "completed"
)

func (s SurveyStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted:
		return true
	}
	return false
}

type Survey struct {
	ID          string        `json:"id,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      SurveyStatus  `json:"status,omitempty"`
	Questions   []Question    `json:"questions"`
	Params      []SurveyParam `json:"params,omitempty"`
	CreatedAt   time.Time     `json:"createdAt,omitempty"`
	UpdatedAt   time.Time     `json:"updatedAt,omitempty"`
}

type QuestionType string

const (
	QuestionText     QuestionType = "text"
	QuestionRadio    QuestionType = "radio"
	QuestionCheckbox QuestionType = "checkbox"
)

// Question is a tagged union over {text, radio, checkbox}.
// Options and AllowOther only apply to the radio and checkbox variants.
// Consumers must switch over Type and treat unknown tags as an error.
type Question struct {
	ID         string       `json:"id"`
	Type       QuestionType `json:"type"`
	Label      string       `json:"label"`
	Required   bool         `json:"required,omitempty"`
	Options    []string     `json:"options,omitempty"`
	AllowOther bool         `json:"allowOther,omitempty"`
}

// EnsureQuestionIDs assigns an opaque identifier to every question that
// came in without one. IDs key the answer mapping, so they must be stable
// from creation on.
func EnsureQuestionIDs(questions []Question) {
	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = "q_" + uuid.NewString()[:8]
		}
	}
}

// SurveyParam describes one dimension of distribution metadata.
// It holds no values itself: concrete values live in a DataEntry
// or arrive as raw query parameters on the respondent URL.
type SurveyParam struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
}

// DataEntry is a named, reusable set of parameter values for distribution,
// addressed by its opaque id in respondent URLs (?entry=<id>).
type DataEntry struct {
	ID            string            `json:"id,omitempty"`
	SurveyID      string            `json:"surveyId,omitempty"`
	Label         string            `json:"label,omitempty"`
	Values        map[string]string `json:"values"`
	ResponseCount int               `json:"responseCount"`
	CreatedAt     time.Time         `json:"createdAt,omitempty"`
}

type Response struct {
	ID          string                 `json:"id,omitempty"`
	SurveyID    string                 `json:"surveyId,omitempty"`
	Answers     map[string]AnswerValue `json:"answers"`
	Params      map[string]string      `json:"params,omitempty"`
	DataEntryID string                 `json:"dataEntryId,omitempty"`
	CreatedAt   time.Time              `json:"createdAt,omitempty"`
}

// Submission is the respondent-facing payload of POST /api/surveys/{id}/responses.
type Submission struct {
	Answers         map[string]AnswerValue `json:"answers"`
	Params          map[string]string      `json:"params,omitempty"`
	DataEntryID     string                 `json:"dataEntryId,omitempty"`
	SendCopy        bool                   `json:"sendCopy,omitempty"`
	RespondentEmail string                 `json:"respondentEmail,omitempty"`
}

// AnswerValue is either a single string (text, radio) or a list of strings
// (checkbox). The wire shape is the value itself, not a wrapper object.
type AnswerValue struct {
	One  string
	Many []string
}

// List reports whether the value came in as a list.
func (v AnswerValue) List() bool {
	return v.Many != nil
}

func (v AnswerValue) Empty() bool {
	if v.Many != nil {
		return len(v.Many) == 0
	}
	return v.One == ""
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.Many != nil {
		return json.Marshal(v.Many)
	}
	return json.Marshal(v.One)
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		v.One = ""
		return json.Unmarshal(data, &v.Many)
	}
	v.Many = nil
	return json.Unmarshal(data, &v.One)
}
