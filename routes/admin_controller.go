package routes

import (
	"bytes"
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

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey := model.Survey{}
		err := render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if survey.Status == "" {
			survey.Status = model.StatusDraft
		}
		model.EnsureQuestionIDs(survey.Questions)

		if err := model.ValidateSurvey(survey); err != nil {
			httpx.LogValidationError(w, r, "create_survey.validate", err)
			return
		}

		questionsJson, paramsJson, err := encodeSurveyContent(survey)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey.encode", err)
			return
		}

		surveyId := uuid.NewString()
		now := time.Now().UTC()
		_, err = app.ExecContext(r.Context(), `
			INSERT INTO survey (id, title, description, status, questions, params, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			surveyId,
			survey.Title,
			survey.Description,
			survey.Status,
			questionsJson,
			paramsJson,
			now,
			now,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": surveyId,
		})
	}
}

type surveyListItem struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Status    model.SurveyStatus `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, title, status, created_at
			FROM survey
			ORDER BY created_at DESC, id DESC`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}
		defer rows.Close()

		surveys := []surveyListItem{}
		for rows.Next() {
			s := surveyListItem{}
			err = rows.Scan(&s.ID, &s.Title, &s.Status, &s.CreatedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_surveys.scan", err)
				return
			}
			surveys = append(surveys, s)
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

type adminSurvey struct {
	model.Survey
	DataEntries []model.DataEntry `json:"dataEntries"`
}

func GetSurveyById(app app.App) http.HandlerFunc {
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

		entries, err := fetchDataEntries(r.Context(), app, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey.entries", err)
			return
		}

		render.JSON(w, r, adminSurvey{Survey: survey, DataEntries: entries})
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		existing, err := fetchSurvey(r.Context(), app, surveyId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "update_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.get", err)
			return
		}

		survey := model.Survey{}
		err = render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if survey.Status == "" {
			survey.Status = existing.Status
		}
		model.EnsureQuestionIDs(survey.Questions)

		if err := model.ValidateSurvey(survey); err != nil {
			httpx.LogValidationError(w, r, "update_survey.validate", err)
			return
		}

		// question structure is frozen once the survey left draft, else
		// stored answers would no longer match their question schema
		if existing.Status != model.StatusDraft && !sameQuestions(existing.Questions, survey.Questions) {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "update_survey.questions_locked",
				"questions can only be edited while the survey is a draft")
			return
		}

		questionsJson, paramsJson, err := encodeSurveyContent(survey)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.encode", err)
			return
		}

		// last write wins, concurrent admin edits are not conflict-detected
		_, err = app.ExecContext(r.Context(), `
			UPDATE survey
			SET
				title = ?,
				description = ?,
				status = ?,
				questions = ?,
				params = ?,
				updated_at = ?
			WHERE id = ?`,
			survey.Title,
			survey.Description,
			survey.Status,
			questionsJson,
			paramsJson,
			time.Now().UTC(),
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type statusUpdate struct {
	Status model.SurveyStatus `json:"status"`
}

func UpdateSurveyStatus(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		update := statusUpdate{}
		err := render.DecodeJSON(r.Body, &update)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		// transitions are unordered: any status may become any other
		if !update.Status.Valid() {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "update_status.validate",
				"status must be one of draft, active, completed")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE survey
			SET status = ?, updated_at = ?
			WHERE id = ?`,
			update.Status,
			time.Now().UTC(),
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_status", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_status.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_status", surveyId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		survey, err := fetchSurvey(r.Context(), app, surveyId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "delete_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.get", err)
			return
		}

		// completed surveys are immutable, including against deletion
		if survey.Status == model.StatusCompleted {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "delete_survey.completed",
				"completed surveys cannot be deleted")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM response
			WHERE survey_id = ?`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.responses", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM data_entry
			WHERE survey_id = ?`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.entries", err)
			return
		}

		res, err := tx.ExecContext(r.Context(), `
			DELETE FROM survey WHERE id = ?`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_survey", surveyId)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func encodeSurveyContent(survey model.Survey) (questions, params string, err error) {
	if survey.Questions == nil {
		survey.Questions = []model.Question{}
	}
	questionsJson, err := json.Marshal(survey.Questions)
	if err != nil {
		return "", "", err
	}
	if survey.Params == nil {
		survey.Params = []model.SurveyParam{}
	}
	paramsJson, err := json.Marshal(survey.Params)
	if err != nil {
		return "", "", err
	}
	return string(questionsJson), string(paramsJson), nil
}

func sameQuestions(a, b []model.Question) bool {
	aJson, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bJson, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(aJson, bJson)
}
