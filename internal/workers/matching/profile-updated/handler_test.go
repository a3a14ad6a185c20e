package profileupdated

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/common/logger"
	"compatibility-workers/internal/models"
)

type fakeService struct {
	result *models.ProfileUpdateResult
	err    error
	fields []string
}

func (f *fakeService) OnProfileUpdated(_ context.Context, _ string, changed []string) (*models.ProfileUpdateResult, error) {
	f.fields = changed
	return f.result, f.err
}

func createTestHandler(t *testing.T, svc UpdateService) *Handler {
	return NewHandler(LoadConfig(), svc, nil, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name   string
		input  *Input
		result *models.ProfileUpdateResult
		want   *Output
	}{
		{
			name:  "significant change",
			input: &Input{UserID: "u1", ChangedFields: []string{"location.city", "bio"}},
			result: &models.ProfileUpdateResult{
				SignificantFields: []string{"location"},
				Invalidated:       3,
				RecomputeQueued:   true,
			},
			want: &Output{Invalidated: 3, RecomputeQueued: true, SignificantFields: []string{"location"}},
		},
		{
			name:   "nothing significant",
			input:  &Input{UserID: "u1", ChangedFields: []string{"bio"}},
			result: &models.ProfileUpdateResult{},
			want:   &Output{SignificantFields: []string{}},
		},
		{
			name:  "queue unavailable",
			input: &Input{UserID: "u1", ChangedFields: []string{"interests"}},
			result: &models.ProfileUpdateResult{
				SignificantFields: []string{"interests"},
				Invalidated:       1,
			},
			want: &Output{Invalidated: 1, SignificantFields: []string{"interests"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{result: tt.result}
			out, err := createTestHandler(t, svc).Execute(context.Background(), tt.input)

			require.NoError(t, err)
			assert.Equal(t, tt.input.ChangedFields, svc.fields)
			assert.Equal(t, tt.want, out)
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidInput(t *testing.T) {
	svc := &fakeService{err: apperrors.NewInvalidInputError("userId is required")}

	_, err := createTestHandler(t, svc).Execute(context.Background(), &Input{})

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))
}
