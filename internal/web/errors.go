package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged server-side with the request id, then returned to the
// client as JSON carrying the user message, a suggested action and a support
// code from core.Describe. The HTTP status is derived from the error type so
// handlers never pick one by hand.

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/prospect-crm/internal/core"
	"github.com/JonMunkholm/prospect-crm/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user-facing message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.Describe(err)

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
		logger.Warn("request error", attrs...)
	}

	if errors.Is(err, core.ErrCommitBusy) {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// writeError writes an error for a malformed request that never reached the
// service, such as an unreadable body or a missing parameter.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Warn("rejected request",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"reason", message,
	)
	writeJSON(w, status, ErrorResponse{
		Error:   message,
		Message: message,
		Code:    "HTTP" + strconv.Itoa(status),
	})
}

// statusFor maps a pipeline or store error to an HTTP status.
func statusFor(err error) int {
	var (
		parseErr *core.ParseError
		mapErr   *core.MapError
		batchErr *core.InvalidBatchError
	)
	switch {
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &parseErr),
		errors.As(err, &mapErr),
		errors.As(err, &batchErr),
		errors.Is(err, core.ErrMappingNameRequired),
		errors.Is(err, core.ErrNoExportFields),
		errors.Is(err, core.ErrUnknownStatus),
		errors.Is(err, core.ErrInvalidSalePrice):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrEmptyBatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrImportNotFound),
		errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrAlreadyRolledBack):
		return http.StatusConflict
	case errors.Is(err, core.ErrCommitBusy):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
