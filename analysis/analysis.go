// Package analysis holds the pure read-side semantics shared by every
// admin display surface: parameter resolution, per-question tallies, and
// parameter-based filtering.
package analysis

import (
	"github.com/mkondo/parasurvey/model"
)

// ResolveParams returns the effective parameter values of a response.
// Directly captured params win; otherwise values come from the referenced
// data entry; otherwise the mapping is empty. Responses predating direct
// params capture only carry the entry back-reference, so both shapes stay
// supported indefinitely.
func ResolveParams(resp model.Response, entries []model.DataEntry) map[string]string {
	if len(resp.Params) > 0 {
		return resp.Params
	}
	if resp.DataEntryID != "" {
		for _, e := range entries {
			if e.ID == resp.DataEntryID {
				if e.Values == nil {
					break
				}
				return e.Values
			}
		}
	}
	return map[string]string{}
}

type OptionCount struct {
	Option string `json:"option"`
	Count  int    `json:"count"`
}

// Tally counts answers per declared option, in declared option order.
// Every option appears, even at zero. Values not among the declared
// options (e.g. stale options from an older question revision, or
// free-text "other" answers) are ignored. Only meaningful for radio and
// checkbox questions; callers dispatch on the question type.
func Tally(q model.Question, responses []model.Response) []OptionCount {
	counts := make([]OptionCount, len(q.Options))
	index := make(map[string]int, len(q.Options))
	for i, opt := range q.Options {
		counts[i] = OptionCount{Option: opt}
		index[opt] = i
	}

	for _, resp := range responses {
		value, ok := resp.Answers[q.ID]
		if !ok {
			continue
		}

		switch q.Type {
		case model.QuestionRadio:
			if value.List() {
				continue
			}
			if i, ok := index[value.One]; ok {
				counts[i].Count++
			}
		case model.QuestionCheckbox:
			seen := map[string]bool{}
			for _, v := range value.Many {
				if seen[v] {
					continue
				}
				seen[v] = true
				if i, ok := index[v]; ok {
					counts[i].Count++
				}
			}
		}
	}

	return counts
}

// TextAnswers collects every non-empty free-text answer in response order.
// Responses lacking an answer for the question are skipped.
func TextAnswers(q model.Question, responses []model.Response) []string {
	answers := []string{}
	for _, resp := range responses {
		value, ok := resp.Answers[q.ID]
		if !ok || value.List() || value.One == "" {
			continue
		}
		answers = append(answers, value.One)
	}
	return answers
}

// Filter restricts responses to those whose resolved params match every
// selected value. An empty selection keeps everything; selections combine
// with logical AND.
func Filter(responses []model.Response, entries []model.DataEntry, selected map[string]string) []model.Response {
	if len(selected) == 0 {
		return responses
	}

	filtered := []model.Response{}
	for _, resp := range responses {
		resolved := ResolveParams(resp, entries)
		match := true
		for key, want := range selected {
			if resolved[key] != want {
				match = false
				break
			}
		}
		if match {
			filtered = append(filtered, resp)
		}
	}
	return filtered
}

// FilterValues derives the candidate filter values per param from the
// distinct, non-empty values across the survey's data entries, in entry
// order. Free-text response params are deliberately not a source.
func FilterValues(params []model.SurveyParam, entries []model.DataEntry) map[string][]string {
	candidates := make(map[string][]string, len(params))
	for _, p := range params {
		seen := map[string]bool{}
		values := []string{}
		for _, e := range entries {
			v := e.Values[p.Key]
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			values = append(values, v)
		}
		candidates[p.Key] = values
	}
	return candidates
}

type ParamValue struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// DisplayParams selects the values shown to a respondent: declared order,
// visible params only, and only where a concrete value is present.
func DisplayParams(params []model.SurveyParam, values map[string]string) []ParamValue {
	display := []ParamValue{}
	for _, p := range params {
		if !p.Visible {
			continue
		}
		v := values[p.Key]
		if v == "" {
			continue
		}
		display = append(display, ParamValue{Key: p.Key, Label: p.Label, Value: v})
	}
	return display
}
