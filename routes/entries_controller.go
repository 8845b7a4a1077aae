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
	"github.com/mkondo/parasurvey/app"
	"github.com/mkondo/parasurvey/httpx"
	"github.com/mkondo/parasurvey/log"
	"github.com/mkondo/parasurvey/model"
)

type entryPayload struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

func CreateDataEntry(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		survey, err := fetchSurvey(r.Context(), app, surveyId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "create_entry.survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.create_entry.get_survey", err)
			return
		}

		payload := entryPayload{}
		err = render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if payload.Values == nil {
			payload.Values = map[string]string{}
		}

		if err := model.ValidateEntryValues(survey.Params, payload.Values); err != nil {
			httpx.LogValidationError(w, r, "create_entry.validate", err)
			return
		}

		valuesJson, err := json.Marshal(payload.Values)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_entry.encode", err)
			return
		}

		entryId := uuid.NewString()
		_, err = app.ExecContext(r.Context(), `
			INSERT INTO data_entry (id, survey_id, label, param_values, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			entryId,
			surveyId,
			payload.Label,
			string(valuesJson),
			time.Now().UTC(),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_entry", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": entryId,
		})
	}
}

func UpdateDataEntry(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")
		entryId := chi.URLParam(r, "entryId")

		survey, err := fetchSurvey(r.Context(), app, surveyId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "update_entry.survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.update_entry.get_survey", err)
			return
		}

		payload := entryPayload{}
		err = render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if payload.Values == nil {
			payload.Values = map[string]string{}
		}

		if err := model.ValidateEntryValues(survey.Params, payload.Values); err != nil {
			httpx.LogValidationError(w, r, "update_entry.validate", err)
			return
		}

		valuesJson, err := json.Marshal(payload.Values)
		if err != nil {
			httpx.LogInternalError(w, "db.update_entry.encode", err)
			return
		}

		// scoped to the survey so a foreign entry id reads as absent
		res, err := app.ExecContext(r.Context(), `
			UPDATE data_entry
			SET label = ?, param_values = ?
			WHERE id = ? AND survey_id = ?`,
			payload.Label,
			string(valuesJson),
			entryId,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_entry", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_entry.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_entry", entryId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteDataEntry(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")
		entryId := chi.URLParam(r, "entryId")

		var responseCount int
		err := app.QueryRowContext(r.Context(), `
			SELECT COUNT(*) FROM response
			WHERE data_entry_id = ?`,
			entryId,
		).Scan(&responseCount)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_entry.count", err)
			return
		}
		// referential integrity for analysis: tagged responses resolve
		// their params through this entry
		if responseCount > 0 {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "delete_entry.referenced",
				"entry has %d responses and cannot be deleted", responseCount)
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM data_entry
			WHERE id = ? AND survey_id = ?`,
			entryId,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_entry", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_entry.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_entry", entryId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
