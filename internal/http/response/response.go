// Package response writes JSON responses for the non-huma routes.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/galleryapp/gallery-server/internal/errors"
	"github.com/galleryapp/gallery-server/internal/store"
)

// Status values used in StatusMessage.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// StatusMessage is the body of AJAX endpoints: {"status": ..., "message": ...}.
type StatusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JSON writes v as JSON with the given status code.
func JSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// Success writes {"status":"success","message":msg} with 200.
func Success(w http.ResponseWriter, msg string, logger *slog.Logger) {
	JSON(w, http.StatusOK, StatusMessage{Status: StatusSuccess, Message: msg}, logger)
}

// Error writes {"status":"error","message":msg} with status.
func Error(w http.ResponseWriter, status int, msg string, logger *slog.Logger) {
	JSON(w, status, StatusMessage{Status: StatusError, Message: msg}, logger)
}

// BadRequest writes a 400 error.
func BadRequest(w http.ResponseWriter, msg string, logger *slog.Logger) {
	Error(w, http.StatusBadRequest, msg, logger)
}

// NotFound writes a 404 error.
func NotFound(w http.ResponseWriter, msg string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, msg, logger)
}

// HandleError maps err to a status code and writes it. Domain and store errors
// keep their message. Anything else is a 500 whose text is only exposed when
// debug is set; it is always logged.
func HandleError(w http.ResponseWriter, err error, debug bool, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) && domainErr.Code != domainerrors.CodeInternal {
		Error(w, domainErr.HTTPStatus(), domainErr.Message, logger)
		return
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		Error(w, storeErr.HTTPCode(), storeErr.Message, logger)
		return
	}

	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	msg := "internal server error"
	if debug {
		msg = err.Error()
	}
	Error(w, http.StatusInternalServerError, msg, logger)
}
