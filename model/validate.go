package model

import (
	"fmt"
	"sort"
	"strings"
)

const maxDescriptionLength = 10_000

// ValidationError reports malformed payload content, keyed by field path.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = k + ": " + e.Fields[k]
	}
	return "invalid payload: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = fmt.Sprintf(format, args...)
}

func (e *ValidationError) or() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ValidateSurvey checks a survey payload before any write is attempted.
func ValidateSurvey(s Survey) error {
	ve := &ValidationError{}

	if strings.TrimSpace(s.Title) == "" {
		ve.add("title", "must not be empty")
	}
	if len(s.Description) > maxDescriptionLength {
		ve.add("description", "must not exceed %d characters", maxDescriptionLength)
	}
	if s.Status != "" && !s.Status.Valid() {
		ve.add("status", "must be one of draft, active, completed")
	}

	questionIds := map[string]bool{}
	for i, q := range s.Questions {
		field := fmt.Sprintf("questions[%d]", i)

		if q.ID == "" {
			ve.add(field+".id", "must not be empty")
		} else if questionIds[q.ID] {
			ve.add(field+".id", "duplicate question id %q", q.ID)
		}
		questionIds[q.ID] = true

		if strings.TrimSpace(q.Label) == "" {
			ve.add(field+".label", "must not be empty")
		}

		switch q.Type {
		case QuestionText:
			if len(q.Options) > 0 {
				ve.add(field+".options", "not allowed on text questions")
			}
		case QuestionRadio, QuestionCheckbox:
			if len(q.Options) == 0 {
				ve.add(field+".options", "must have at least one option")
			}
			seen := map[string]bool{}
			for _, opt := range q.Options {
				if opt == "" {
					ve.add(field+".options", "options must not be empty strings")
				} else if seen[opt] {
					ve.add(field+".options", "duplicate option %q", opt)
				}
				seen[opt] = true
			}
		default:
			ve.add(field+".type", "unknown question type %q", q.Type)
		}
	}

	paramKeys := map[string]bool{}
	for i, p := range s.Params {
		field := fmt.Sprintf("params[%d]", i)
		if p.Key == "" {
			ve.add(field+".key", "must not be empty")
		} else if paramKeys[p.Key] {
			ve.add(field+".key", "duplicate param key %q", p.Key)
		}
		paramKeys[p.Key] = true
	}

	return ve.or()
}

// ValidateSubmission checks a respondent payload against the survey's
// question definitions. Entry existence and the entry-required gate need
// the datastore and are checked by the handler, not here.
func ValidateSubmission(questions []Question, sub Submission) error {
	ve := &ValidationError{}

	byId := map[string]Question{}
	for _, q := range questions {
		byId[q.ID] = q
	}

	for id, value := range sub.Answers {
		q, ok := byId[id]
		if !ok {
			ve.add("answers."+id, "unknown question id")
			continue
		}

		switch q.Type {
		case QuestionText, QuestionRadio:
			if value.List() {
				ve.add("answers."+id, "expected a single value")
			}
		case QuestionCheckbox:
			if !value.List() {
				ve.add("answers."+id, "expected a list of values")
			}
		default:
			ve.add("answers."+id, "unknown question type %q", q.Type)
		}
	}

	for _, q := range questions {
		if !q.Required {
			continue
		}
		if value, ok := sub.Answers[q.ID]; !ok || value.Empty() {
			ve.add("answers."+q.ID, "answer is required")
		}
	}

	// Strict boundary contract: a submission either carries a non-empty
	// params mapping, or no params key at all.
	if sub.Params != nil && len(sub.Params) == 0 {
		ve.add("params", "must not be an empty object")
	}
	if len(sub.Params) > 0 && sub.DataEntryID != "" {
		ve.add("params", "must not be combined with dataEntryId")
	}

	if sub.SendCopy && sub.RespondentEmail == "" {
		ve.add("respondentEmail", "required when sendCopy is set")
	}
	if sub.RespondentEmail != "" && !strings.Contains(sub.RespondentEmail, "@") {
		ve.add("respondentEmail", "must be an email address")
	}

	return ve.or()
}

// ValidateEntryValues checks data-entry values against the declared params.
func ValidateEntryValues(params []SurveyParam, values map[string]string) error {
	ve := &ValidationError{}

	declared := map[string]bool{}
	for _, p := range params {
		declared[p.Key] = true
	}
	for key := range values {
		if !declared[key] {
			ve.add("values."+key, "not a declared survey param")
		}
	}

	return ve.or()
}
