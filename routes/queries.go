package routes

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mkondo/parasurvey/app"
	"github.com/mkondo/parasurvey/model"
	"github.com/pkg/errors"
)

// Shared row access for the controllers. Data entries are always fetched
// nested under their survey, so an entry looked up in the returned slice
// can never belong to another survey.

func fetchSurvey(ctx context.Context, app app.App, id string) (model.Survey, error) {
	var s model.Survey
	var questions, params string

	err := app.QueryRowContext(ctx, `
		SELECT id, title, description, status, questions, params, created_at, updated_at
		FROM survey
		WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.Title, &s.Description, &s.Status, &questions, &params, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}

	if err := json.Unmarshal([]byte(questions), &s.Questions); err != nil {
		return s, errors.Wrap(err, "parse questions")
	}
	if err := json.Unmarshal([]byte(params), &s.Params); err != nil {
		return s, errors.Wrap(err, "parse params")
	}
	return s, nil
}

func fetchDataEntries(ctx context.Context, app app.App, surveyId string) ([]model.DataEntry, error) {
	rows, err := app.QueryContext(ctx, `
		SELECT
			e.id, e.survey_id, e.label, e.param_values, e.created_at,
			(SELECT COUNT(*) FROM response r WHERE r.data_entry_id = e.id)
		FROM data_entry e
		WHERE e.survey_id = ?
		ORDER BY e.created_at, e.id`,
		surveyId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.DataEntry{}
	for rows.Next() {
		var e model.DataEntry
		var values string
		err = rows.Scan(&e.ID, &e.SurveyID, &e.Label, &values, &e.CreatedAt, &e.ResponseCount)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(values), &e.Values); err != nil {
			return nil, errors.Wrap(err, "parse entry values")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func fetchResponses(ctx context.Context, app app.App, surveyId string) ([]model.Response, error) {
	rows, err := app.QueryContext(ctx, `
		SELECT id, survey_id, answers, params, data_entry_id, created_at
		FROM response
		WHERE survey_id = ?
		ORDER BY created_at, id`,
		surveyId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		var resp model.Response
		var answers string
		var params, entryId sql.NullString
		err = rows.Scan(&resp.ID, &resp.SurveyID, &answers, &params, &entryId, &resp.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &resp.Answers); err != nil {
			return nil, errors.Wrap(err, "parse answers")
		}
		if params.Valid {
			if err := json.Unmarshal([]byte(params.String), &resp.Params); err != nil {
				return nil, errors.Wrap(err, "parse response params")
			}
		}
		resp.DataEntryID = entryId.String
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

func findEntry(entries []model.DataEntry, id string) *model.DataEntry {
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i]
		}
	}
	return nil
}
