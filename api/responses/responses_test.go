package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
	"github.com/gwon477/dmarket/pkg/logger"
)

func TestWriteSuccessWrapsData(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"hello": "world"})

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, "world", body.Data.(map[string]any)["hello"])
}

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    pkgerrors.Code
		message string
	}{
		{"not found", pkgerrors.NotFound("return"), http.StatusNotFound, pkgerrors.CodeNotFound, ""},
		{"invalid argument", pkgerrors.InvalidArgument("percent out of range"), http.StatusBadRequest, pkgerrors.CodeValidation, "percent out of range"},
		{"invalid state", pkgerrors.InvalidState("refund already completed"), http.StatusUnprocessableEntity, pkgerrors.CodeStateConflict, "refund already completed"},
		{"conflict", pkgerrors.Conflict("stale"), http.StatusConflict, pkgerrors.CodeConflict, "stale"},
		{"untyped", errors.New("pq: connection reset"), http.StatusInternalServerError, pkgerrors.CodeInternal, "internal server error"},
		{"dependency hides cause", pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp"), "load return"), http.StatusServiceUnavailable, pkgerrors.CodeDependency, "dependency unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(context.Background(), logger.Nop(), w, tt.err)

			require.Equal(t, tt.status, w.Code)
			var body ErrorEnvelope
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			require.Equal(t, string(tt.code), body.Error.Code)
			if tt.message != "" {
				require.Equal(t, tt.message, body.Error.Message)
			}
		})
	}
}

func TestWriteErrorIncludesAllowedDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{"percent": "must be at most 100"})
	WriteError(context.Background(), nil, w, err)

	var body ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, map[string]any{"percent": "must be at most 100"}, body.Error.Details)
}
