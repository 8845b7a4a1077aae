package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkondo/parasurvey/app"
	"github.com/mkondo/parasurvey/config"
	"github.com/mkondo/parasurvey/database"
	"github.com/mkondo/parasurvey/mail"
	"github.com/mkondo/parasurvey/model"
)

// newTestServer spins up the API router over a fresh sqlite database,
// with admin auth replaced by a pass-through middleware. The auth flow
// itself is the bearer server's concern, not what these tests cover.
func newTestServer(t *testing.T) (*httptest.Server, app.App) {
	t.Helper()

	cfg := config.Config{
		DBUrl:       filepath.Join(t.TempDir(), "test.sqlite"),
		TokenSecret: "test-secret",
		TokenTTL:    time.Minute,
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	a := app.App{
		DB:     db,
		Config: cfg,
		Mailer: mail.NewSender(cfg),
	}

	noAuth := func(next http.Handler) http.Handler { return next }
	server := httptest.NewServer(apiRouter(a, noAuth))
	t.Cleanup(server.Close)

	return server, a
}

func doJSON(t *testing.T, method, url string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func createSurvey(t *testing.T, server *httptest.Server, survey model.Survey) string {
	t.Helper()

	resp := doJSON(t, http.MethodPost, server.URL+"/admin/surveys", survey)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.ID)
	return created.ID
}

func createEntry(t *testing.T, server *httptest.Server, surveyId, label string, values map[string]string) string {
	t.Helper()

	resp := doJSON(t, http.MethodPost, server.URL+"/admin/surveys/"+surveyId+"/entries", map[string]any{
		"label":  label,
		"values": values,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.ID)
	return created.ID
}

func feedbackSurvey(status model.SurveyStatus) model.Survey {
	return model.Survey{
		Title:  "Session feedback",
		Status: status,
		Questions: []model.Question{
			{ID: "rating", Type: model.QuestionRadio, Label: "Rating", Required: true, Options: []string{"good", "ok", "bad"}},
			{ID: "topics", Type: model.QuestionCheckbox, Label: "Topics", Options: []string{"go", "sql", "http"}},
			{ID: "comment", Type: model.QuestionText, Label: "Comment"},
		},
		Params: []model.SurveyParam{
			{Key: "event", Label: "Event", Visible: true},
			{Key: "channel", Label: "Channel", Visible: false},
		},
	}
}
