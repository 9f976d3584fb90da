package response

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakaly/rakaly-uploader/internal/errors"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, map[string]int{"succeeded": 3}, discard())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, map[string]any{"succeeded": float64(3)}, env.Data)
	assert.Empty(t, env.Error)
}

func TestJSON_ErrorStatusIsNotSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNotFound, "x", discard())

	assert.False(t, decode(t, w).Success)
}

func TestNotFound(t *testing.T) {
	w := httptest.NewRecorder()

	NotFound(w, "no such route", discard())

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "no such route", env.Error)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", errors.New(errors.CodeValidation, "bad input"), http.StatusBadRequest, "bad input"},
		{"not found", errors.Newf(errors.CodeNotFound, "no upload recorded for %s", "/saves/a.eu4"), http.StatusNotFound, "no upload recorded for /saves/a.eu4"},
		{"unsupported", errors.Unsupportedf("not on %s", "plan9"), http.StatusNotImplemented, "not on plan9"},
		{"upload errors stay internal", errors.New(errors.CodeUpload, "boom"), http.StatusInternalServerError, "internal server error"},
		{"unknown", assert.AnError, http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, discard())

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantMsg, decode(t, w).Error)
		})
	}
}
