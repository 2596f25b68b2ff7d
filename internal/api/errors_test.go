package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/minutes-api/internal/api/shared"
	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/phrazzld/minutes-api/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.NewValidationError("transcript", "is required", nil), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("submit: %w", domain.NewValidationError("x", "bad", nil)), http.StatusBadRequest},
		{"empty body", shared.ErrEmptyBody, http.StatusBadRequest},
		{"job not found", service.ErrJobNotFound, http.StatusNotFound},
		{"task not found", service.ErrTaskNotFound, http.StatusNotFound},
		{"terminal task", service.ErrTaskTerminal, http.StatusConflict},
		{"scheduler", fmt.Errorf("%w: stopped", service.ErrSchedulerUnavailable), http.StatusServiceUnavailable},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "transcript is required",
		GetSafeErrorMessage(domain.NewValidationError("transcript", "is required", nil)))
	assert.Equal(t, "An unexpected error occurred",
		GetSafeErrorMessage(errors.New("dial tcp postgres://u:p@db:5432 failed")))
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := validator.New().Struct(&SubmitTranscriptRequest{})
	var ve validator.ValidationErrors
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, "Invalid transcript: required field", SanitizeValidationError(ve))
	assert.Equal(t, "Validation error", SanitizeValidationError(nil))
}
