package routes

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkondo/parasurvey/model"
)

func TestCreateAndGetSurvey_RoundTrip(t *testing.T) {
	server, _ := newTestServer(t)

	survey := feedbackSurvey(model.StatusDraft)
	surveyId := createSurvey(t, server, survey)

	resp := doJSON(t, http.MethodGet, server.URL+"/admin/surveys/"+surveyId, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got adminSurvey
	decodeBody(t, resp, &got)

	require.Len(t, got.Questions, len(survey.Questions))
	for i, q := range survey.Questions {
		assert.Equal(t, q.ID, got.Questions[i].ID)
		assert.Equal(t, q.Type, got.Questions[i].Type)
		assert.Equal(t, q.Label, got.Questions[i].Label)
		assert.Equal(t, q.Options, got.Questions[i].Options)
	}
	assert.Equal(t, survey.Params, got.Params)
	assert.Equal(t, model.StatusDraft, got.Status)
	assert.NotNil(t, got.DataEntries)
}

func TestCreateSurvey_DefaultsToDraft(t *testing.T) {
	server, _ := newTestServer(t)

	survey := feedbackSurvey("")
	surveyId := createSurvey(t, server, survey)

	resp := doJSON(t, http.MethodGet, server.URL+"/admin/surveys/"+surveyId, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got adminSurvey
	decodeBody(t, resp, &got)
	assert.Equal(t, model.StatusDraft, got.Status)
}

func TestCreateSurvey_GeneratesMissingQuestionIds(t *testing.T) {
	server, _ := newTestServer(t)

	survey := model.Survey{
		Title: "No ids",
		Questions: []model.Question{
			{Type: model.QuestionText, Label: "One"},
			{Type: model.QuestionText, Label: "Two"},
		},
	}
	surveyId := createSurvey(t, server, survey)

	resp := doJSON(t, http.MethodGet, server.URL+"/admin/surveys/"+surveyId, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got adminSurvey
	decodeBody(t, resp, &got)
	require.Len(t, got.Questions, 2)
	assert.NotEmpty(t, got.Questions[0].ID)
	assert.NotEmpty(t, got.Questions[1].ID)
	assert.NotEqual(t, got.Questions[0].ID, got.Questions[1].ID)
}

func TestCreateSurvey_ValidationErrors(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/admin/surveys", model.Survey{
		Title: "",
		Questions: []model.Question{
			{ID: "q1", Type: "slider", Label: "Scale"},
		},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decodeBody(t, resp, &body)
	assert.Contains(t, body.Fields, "title")
	assert.Contains(t, body.Fields, "questions[0].type")
}

func TestListSurveys_NewestFirst(t *testing.T) {
	server, a := newTestServer(t)

	first := createSurvey(t, server, feedbackSurvey(model.StatusDraft))
	second := createSurvey(t, server, feedbackSurvey(model.StatusActive))

	// force distinct creation instants, sqlite keeps them in one insert burst otherwise
	_, err := a.Exec("UPDATE survey SET created_at = ? WHERE id = ?", time.Now().UTC().Add(-time.Hour), first)
	require.NoError(t, err)

	resp := doJSON(t, http.MethodGet, server.URL+"/admin/surveys", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Surveys []surveyListItem `json:"surveys"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Surveys, 2)
	assert.Equal(t, second, body.Surveys[0].ID)
	assert.Equal(t, first, body.Surveys[1].ID)
}

func TestUpdateSurvey_QuestionsLockedOutsideDraft(t *testing.T) {
	server, _ := newTestServer(t)
	survey := feedbackSurvey(model.StatusActive)
	surveyId := createSurvey(t, server, survey)

	// structural change: rejected
	edited := survey
	edited.Questions = append([]model.Question{}, survey.Questions...)
	edited.Questions[0].Options = []string{"great", "awful"}
	resp := doJSON(t, http.MethodPut, server.URL+"/admin/surveys/"+surveyId, edited)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// same questions, new title: fine
	renamed := survey
	renamed.Title = "Renamed feedback"
	resp = doJSON(t, http.MethodPut, server.URL+"/admin/surveys/"+surveyId, renamed)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	got := doJSON(t, http.MethodGet, server.URL+"/admin/surveys/"+surveyId, nil)
	var detail adminSurvey
	decodeBody(t, got, &detail)
	assert.Equal(t, "Renamed feedback", detail.Title)
}

func TestUpdateSurvey_QuestionsEditableWhileDraft(t *testing.T) {
	server, _ := newTestServer(t)
	survey := feedbackSurvey(model.StatusDraft)
	surveyId := createSurvey(t, server, survey)

	edited := survey
	edited.Questions = []model.Question{
		{ID: "only", Type: model.QuestionText, Label: "Only question"},
	}
	resp := doJSON(t, http.MethodPut, server.URL+"/admin/surveys/"+surveyId, edited)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	got := doJSON(t, http.MethodGet, server.URL+"/admin/surveys/"+surveyId, nil)
	var detail adminSurvey
	decodeBody(t, got, &detail)
	require.Len(t, detail.Questions, 1)
	assert.Equal(t, "only", detail.Questions[0].ID)
}

func TestUpdateSurveyStatus_Transitions(t *testing.T) {
	server, _ := newTestServer(t)
	surveyId := createSurvey(t, server, feedbackSurvey(model.StatusDraft))

	// transitions are unordered, including completed back to active
	for _, status := range []model.SurveyStatus{
		model.StatusCompleted,
		model.StatusActive,
		model.StatusDraft,
	} {
		resp := doJSON(t, http.MethodPatch, server.URL+"/admin/surveys/"+surveyId, map[string]any{
			"status": status,
		})
		require.Equal(t, http.StatusNoContent, resp.StatusCode, "transition to %s", status)
	}

	resp := doJSON(t, http.MethodPatch, server.URL+"/admin/surveys/"+surveyId, map[string]any{
		"status": "archived",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteSurvey(t *testing.T) {
	server, _ := newTestServer(t)

	draftId := createSurvey(t, server, feedbackSurvey(model.StatusDraft))
	resp := doJSON(t, http.MethodDelete, server.URL+"/admin/surveys/"+draftId, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/admin/surveys/"+draftId, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	completedId := createSurvey(t, server, feedbackSurvey(model.StatusCompleted))
	resp = doJSON(t, http.MethodDelete, server.URL+"/admin/surveys/"+completedId, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDeleteSurvey_CascadesResponsesAndEntries(t *testing.T) {
	server, a := newTestServer(t)
	surveyId := createSurvey(t, server, feedbackSurvey(model.StatusActive))
	entryId := createEntry(t, server, surveyId, "spring", map[string]string{"event": "Spring meetup"})

	resp := doJSON(t, http.MethodPost, server.URL+"/surveys/"+surveyId+"/responses", map[string]any{
		"answers":     validAnswers(),
		"dataEntryId": entryId,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, server.URL+"/admin/surveys/"+surveyId, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var count int
	require.NoError(t, a.QueryRow("SELECT COUNT(*) FROM response WHERE survey_id = ?", surveyId).Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, a.QueryRow("SELECT COUNT(*) FROM data_entry WHERE survey_id = ?", surveyId).Scan(&count))
	assert.Zero(t, count)
}

func TestDataEntry_UpdateAndDelete(t *testing.T) {
	server, _ := newTestServer(t)
	surveyId := createSurvey(t, server, feedbackSurvey(model.StatusActive))
	entryId := createEntry(t, server, surveyId, "spring", map[string]string{"event": "Spring meetup"})

	resp := doJSON(t, http.MethodPut, server.URL+"/admin/surveys/"+surveyId+"/entries/"+entryId, map[string]any{
		"label":  "spring v2",
		"values": map[string]string{"event": "Spring meetup v2"},
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// undeclared param key is a validation error
	resp = doJSON(t, http.MethodPut, server.URL+"/admin/surveys/"+surveyId+"/entries/"+entryId, map[string]any{
		"values": map[string]string{"venue": "Hall A"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, server.URL+"/admin/surveys/"+surveyId+"/entries/"+entryId, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, server.URL+"/admin/surveys/"+surveyId+"/entries/"+entryId, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDataEntry_DeleteBlockedWhileReferenced(t *testing.T) {
	server, _ := newTestServer(t)
	surveyId := createSurvey(t, server, feedbackSurvey(model.StatusActive))
	entryId := createEntry(t, server, surveyId, "spring", map[string]string{"event": "Spring meetup"})

	resp := doJSON(t, http.MethodPost, server.URL+"/surveys/"+surveyId+"/responses", map[string]any{
		"answers":     validAnswers(),
		"dataEntryId": entryId,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, server.URL+"/admin/surveys/"+surveyId+"/entries/"+entryId, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDataEntry_ResponseCountInDetail(t *testing.T) {
	server, _ := newTestServer(t)
	surveyId := createSurvey(t, server, feedbackSurvey(model.StatusActive))
	entryId := createEntry(t, server, surveyId, "spring", map[string]string{"event": "Spring meetup"})

	for i := 0; i < 2; i++ {
		resp := doJSON(t, http.MethodPost, server.URL+"/surveys/"+surveyId+"/responses", map[string]any{
			"answers":     validAnswers(),
			"dataEntryId": entryId,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := doJSON(t, http.MethodGet, server.URL+"/admin/surveys/"+surveyId, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail adminSurvey
	decodeBody(t, resp, &detail)
	require.Len(t, detail.DataEntries, 1)
	assert.Equal(t, 2, detail.DataEntries[0].ResponseCount)
}
