package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mkondo/parasurvey/analysis"
	"github.com/mkondo/parasurvey/app"
	"github.com/mkondo/parasurvey/httpx"
	"github.com/mkondo/parasurvey/model"
)

type responseRow struct {
	ID             string                       `json:"id"`
	Answers        map[string]model.AnswerValue `json:"answers"`
	Params         map[string]string            `json:"params,omitempty"`
	DataEntryID    string                       `json:"dataEntryId,omitempty"`
	ResolvedParams map[string]string            `json:"resolvedParams"`
	CreatedAt      time.Time                    `json:"createdAt"`
}

func GetSurveyResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		_, err := fetchSurvey(r.Context(), app, surveyId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_responses.survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses.get_survey", err)
			return
		}

		entries, err := fetchDataEntries(r.Context(), app, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses.entries", err)
			return
		}

		responses, err := fetchResponses(r.Context(), app, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}

		rows := make([]responseRow, len(responses))
		for i, resp := range responses {
			rows[i] = responseRow{
				ID:             resp.ID,
				Answers:        resp.Answers,
				Params:         resp.Params,
				DataEntryID:    resp.DataEntryID,
				ResolvedParams: analysis.ResolveParams(resp, entries),
				CreatedAt:      resp.CreatedAt,
			}
		}

		render.JSON(w, r, map[string]any{
			"responses": rows,
		})
	}
}

type questionReport struct {
	ID      string                 `json:"id"`
	Label   string                 `json:"label"`
	Type    model.QuestionType     `json:"type"`
	Options []analysis.OptionCount `json:"options,omitempty"`
	Answers []string               `json:"answers,omitempty"`
}

// GetSurveyReport renders the admin analysis view: per-question tallies
// and free-text listings over the response set, optionally restricted by
// param-value filters given as query parameters named by param key.
func GetSurveyReport(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		survey, err := fetchSurvey(r.Context(), app, surveyId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_report.survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_report.get_survey", err)
			return
		}

		entries, err := fetchDataEntries(r.Context(), app, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_report.entries", err)
			return
		}

		responses, err := fetchResponses(r.Context(), app, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_report.responses", err)
			return
		}

		// absent query param means "all" for that dimension
		selected := map[string]string{}
		for _, p := range survey.Params {
			if v := r.URL.Query().Get(p.Key); v != "" {
				selected[p.Key] = v
			}
		}
		filtered := analysis.Filter(responses, entries, selected)

		questions := make([]questionReport, len(survey.Questions))
		for i, q := range survey.Questions {
			report := questionReport{ID: q.ID, Label: q.Label, Type: q.Type}

			switch q.Type {
			case model.QuestionText:
				report.Answers = analysis.TextAnswers(q, filtered)
			case model.QuestionRadio, model.QuestionCheckbox:
				report.Options = analysis.Tally(q, filtered)
			default:
				httpx.LogInternalError(w, "get_report.question_type",
					errors.New("unknown question type "+string(q.Type)))
				return
			}
			questions[i] = report
		}

		render.JSON(w, r, map[string]any{
			"total":        len(responses),
			"count":        len(filtered),
			"filterValues": analysis.FilterValues(survey.Params, entries),
			"questions":    questions,
		})
	}
}
