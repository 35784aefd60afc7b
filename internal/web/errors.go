package web

// errors.go turns handler errors into responses.
//
// Every error is logged server-side with its request ID, then mapped via
// core.MapError to a {message, action, code} the client can show. API
// routes get JSON; the dashboard gets a plain-text page.

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/form1099/internal/core"
	"github.com/JonMunkholm/form1099/internal/export"
	"github.com/JonMunkholm/form1099/internal/logging"
)

// errInvalidRequest marks request-shape problems (bad JSON, bad query).
var errInvalidRequest = errors.New("invalid request")

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, fmt.Sprintf(format, args...))
}

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  []core.FieldError `json:"fields,omitempty"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var verr *core.ValidationError
	var uerr *core.UnknownFormTypeError
	switch {
	case errors.As(err, &verr), errors.As(err, &uerr), errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, export.ErrTooManyExports):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes a user-facing error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}

	if !wantsJSON(r) {
		http.Error(w, core.FormatUserError(err), status)
		return
	}

	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Errors
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// wantsJSON reports whether the client expects a JSON error body.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
