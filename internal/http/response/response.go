// Package response writes the JSON envelopes served by the status endpoint.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rakaly/rakaly-uploader/internal/errors"
)

// Envelope provides a consistent JSON response structure.
type Envelope struct {
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`
}

// JSON writes data wrapped in an Envelope with the given status code.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	write(w, status, Envelope{Success: status < 400, Data: data}, logger)
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Error writes an error response with the given status code.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	write(w, status, Envelope{Error: message}, logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, message, logger)
}

// HandleError maps a domain error code to an HTTP status. Unknown errors
// become 500 and are logged.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case errors.CodeValidation:
			Error(w, http.StatusBadRequest, domainErr.Error(), logger)
			return
		case errors.CodeNotFound:
			NotFound(w, domainErr.Error(), logger)
			return
		case errors.CodeUnsupported:
			Error(w, http.StatusNotImplemented, domainErr.Error(), logger)
			return
		}
	}

	if logger != nil {
		logger.Error("unhandled error", "error", err)
	}
	Error(w, http.StatusInternalServerError, "internal server error", logger)
}

func write(w http.ResponseWriter, status int, envelope Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(envelope); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}
