package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/mkondo/parasurvey/analysis"
	"github.com/mkondo/parasurvey/app"
	"github.com/mkondo/parasurvey/httpx"
	"github.com/mkondo/parasurvey/log"
	"github.com/mkondo/parasurvey/mail"
	"github.com/mkondo/parasurvey/model"
)

// publicSurvey is the respondent-facing view of an active survey, with
// distribution params already resolved for this visit.
type publicSurvey struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description,omitempty"`
	Questions     []model.Question      `json:"questions,omitempty"`
	Params        []model.SurveyParam   `json:"params,omitempty"`
	EntryRequired bool                  `json:"entryRequired,omitempty"`
	Entry         *publicEntry          `json:"entry,omitempty"`
	Values        []analysis.ParamValue `json:"values"`
}

type publicEntry struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

func PublicGetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		survey, err := fetchSurvey(r.Context(), app, surveyId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}
		// draft and completed surveys are indistinguishable from absent ones
		if survey.Status != model.StatusActive {
			httpx.LogNotFound(w, "get_survey.status", surveyId)
			return
		}

		entries, err := fetchDataEntries(r.Context(), app, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey.entries", err)
			return
		}

		body := publicSurvey{
			ID:          survey.ID,
			Title:       survey.Title,
			Description: survey.Description,
			Questions:   survey.Questions,
			Params:      survey.Params,
			Values:      []analysis.ParamValue{},
		}

		if len(entries) > 0 {
			// data-entry addressing
			entryId := r.URL.Query().Get("entry")
			if entryId == "" {
				body.EntryRequired = true
				body.Questions = nil
				render.JSON(w, r, body)
				return
			}

			entry := findEntry(entries, entryId)
			if entry == nil {
				httpx.LogNotFound(w, "get_survey.entry", entryId)
				return
			}

			body.Entry = &publicEntry{ID: entry.ID, Label: entry.Label}
			body.Values = analysis.DisplayParams(survey.Params, entry.Values)
		} else {
			// raw query-parameter addressing; missing values are fine
			values := map[string]string{}
			for _, p := range survey.Params {
				if v := r.URL.Query().Get(p.Key); v != "" {
					values[p.Key] = v
				}
			}
			body.Values = analysis.DisplayParams(survey.Params, values)
		}

		render.JSON(w, r, body)
	}
}

func PublicSubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		survey, err := fetchSurvey(r.Context(), app, surveyId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "submit", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.submit.get_survey", err)
			return
		}
		// point-in-time status check, same 404 as a missing survey
		if survey.Status != model.StatusActive {
			httpx.LogNotFound(w, "submit.status", surveyId)
			return
		}

		sub := model.Submission{}
		err = render.DecodeJSON(r.Body, &sub)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := model.ValidateSubmission(survey.Questions, sub); err != nil {
			httpx.LogValidationError(w, r, "submit.validate", err)
			return
		}

		entries, err := fetchDataEntries(r.Context(), app, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.submit.entries", err)
			return
		}

		if len(entries) > 0 {
			if sub.DataEntryID == "" {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "submit.entry_required",
					"this survey requires a distribution entry link")
				return
			}
			// scoped to this survey's entries: a foreign entry id is a 404
			if findEntry(entries, sub.DataEntryID) == nil {
				httpx.LogNotFound(w, "submit.entry", sub.DataEntryID)
				return
			}
		} else if sub.DataEntryID != "" {
			httpx.LogNotFound(w, "submit.entry", sub.DataEntryID)
			return
		}

		answersJson, err := json.Marshal(sub.Answers)
		if err != nil {
			httpx.LogInternalError(w, "db.submit.encode_answers", err)
			return
		}

		var paramsJson sql.NullString
		if len(sub.Params) > 0 {
			encoded, err := json.Marshal(sub.Params)
			if err != nil {
				httpx.LogInternalError(w, "db.submit.encode_params", err)
				return
			}
			paramsJson = sql.NullString{String: string(encoded), Valid: true}
		}

		var entryId sql.NullString
		if sub.DataEntryID != "" {
			entryId = sql.NullString{String: sub.DataEntryID, Valid: true}
		}

		_, err = app.ExecContext(r.Context(), `
			INSERT INTO response (id, survey_id, answers, params, data_entry_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(),
			surveyId,
			string(answersJson),
			paramsJson,
			entryId,
			time.Now().UTC(),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}

		// best effort, failures must not affect the submission outcome
		if sub.SendCopy {
			go sendCopy(app.Mailer, survey, sub)
		}

		render.JSON(w, r, map[string]any{
			"success":  true,
			"surveyId": surveyId,
		})
	}
}

func sendCopy(sender mail.Sender, survey model.Survey, sub model.Submission) {
	subject, body := mail.SubmissionCopy(survey, sub)
	if err := sender.Send(sub.RespondentEmail, subject, body); err != nil {
		log.Errorf("mail.send_copy: %s", err)
	}
}
