package web

// errors.go turns handler failures into responses.
//
// The technical error is logged with the request id; the client only sees the
// core.MapError message, action and code, shaped for the caller:
//   - HTMX requests get the ErrorAlert fragment
//   - API and JSON requests get ErrorResponse
//   - everything else gets plain text

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/dftlab/internal/core"
	"github.com/JonMunkholm/dftlab/internal/logging"
	"github.com/JonMunkholm/dftlab/internal/web/templates"
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a pipeline error.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrEmptyOrInvalidInput), errors.Is(err, core.ErrInvalidToken):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnknownMode),
		errors.Is(err, core.ErrInvalidPrecision),
		errors.Is(err, core.ErrInvalidSizeLabel),
		errors.Is(err, errNoFile),
		errors.Is(err, errInvalidField):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNothingToExport), errors.Is(err, core.ErrStaleIngest):
		return http.StatusConflict
	case errors.Is(err, core.ErrUnknownTransform):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyIngests):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped user message.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	log := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		log.Error("request error", args...)
	} else {
		log.Warn("request error", args...)
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(statusCode)
		templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w)
	case wantsJSON(r):
		writeJSON(w, statusCode, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", statusCode)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client prefers JSON. API routes default to it.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
