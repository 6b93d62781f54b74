package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/chatdemo-server/internal/model"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "validation", err: fmt.Errorf("%w: please fill in all fields", model.ErrValidation), wantStatus: http.StatusBadRequest, wantMsg: "validation error: please fill in all fields"},
		{name: "captcha", err: model.ErrCaptchaMismatch, wantStatus: http.StatusUnprocessableEntity, wantMsg: "invalid verification code"},
		{name: "credentials", err: model.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantMsg: "invalid email or password"},
		{name: "forbidden", err: fmt.Errorf("%w: nope", model.ErrForbidden), wantStatus: http.StatusForbidden, wantMsg: "forbidden: nope"},
		{name: "not found", err: fmt.Errorf("failed to get group: %w", model.ErrNotFound), wantStatus: http.StatusNotFound, wantMsg: "failed to get group: not found"},
		{name: "state", err: model.ErrInvalidState, wantStatus: http.StatusConflict, wantMsg: model.ErrInvalidState.Error()},
		{name: "internal", err: errors.New("db exploded"), wantStatus: http.StatusInternalServerError, wantMsg: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantMsg, body.Error)
		})
	}
}
