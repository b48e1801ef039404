package validation

import (
	"testing"

	"quizforge/internal/domain"
	"quizforge/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGenerateQuizRequest(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		err := ValidateGenerateQuizRequest(&dto.GenerateQuizRequest{
			Notes:       "Some study notes.",
			MaxMCQ:      8,
			MaxShort:    4,
			Temperature: 0.2,
		})
		assert.NoError(t, err)
	})

	t.Run("ZeroKnobsValid", func(t *testing.T) {
		err := ValidateGenerateQuizRequest(&dto.GenerateQuizRequest{Notes: "notes"})
		assert.NoError(t, err)
	})

	t.Run("MissingNotes", func(t *testing.T) {
		err := ValidateGenerateQuizRequest(&dto.GenerateQuizRequest{Notes: "   "})
		require.Error(t, err)
		var errs domain.ValidationErrors
		require.ErrorAs(t, err, &errs)
		require.Len(t, errs, 1)
		assert.Equal(t, "notes", errs[0].Field)
	})

	t.Run("OutOfRangeKnobs", func(t *testing.T) {
		err := ValidateGenerateQuizRequest(&dto.GenerateQuizRequest{
			Notes:       "notes",
			MaxMCQ:      51,
			MaxShort:    -1,
			Temperature: 2.5,
		})
		require.Error(t, err)
		var errs domain.ValidationErrors
		require.ErrorAs(t, err, &errs)
		assert.Len(t, errs, 3)
	})
}

func TestValidateListLimit(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		expected int
		wantErr  bool
	}{
		{name: "ZeroUsesDefault", limit: 0, expected: 20},
		{name: "WithinRange", limit: 5, expected: 5},
		{name: "ClampedToMax", limit: 500, expected: 100},
		{name: "NegativeRejected", limit: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, err := ValidateListLimit(tt.limit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, limit)
		})
	}
}
