package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mkondo/parasurvey/log"
	"github.com/mkondo/parasurvey/model"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text.
// Used uniformly for missing records and for records whose lifecycle state must not
// be leaked to respondents.
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	w.WriteHeader(http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

// Will log a validation failure and send a 400 response with a
// machine-readable field breakdown.
func LogValidationError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Debugf("%s: %s", code, err)

	body := map[string]any{"error": "validation failed"}
	if ve, ok := err.(*model.ValidationError); ok {
		body["fields"] = ve.Fields
	}

	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, body)
}
