package validation

import (
	"strings"

	"quizforge/internal/domain"
	"quizforge/internal/dto"
)

const (
	maxMCQLimit    = 50
	maxShortLimit  = 50
	maxTemperature = 2.0
)

// ValidateGenerateQuizRequest checks a generation request before any work is
// scheduled. Zero-valued knobs are valid and mean "use the default".
func ValidateGenerateQuizRequest(req *dto.GenerateQuizRequest) error {
	var errs domain.ValidationErrors

	if strings.TrimSpace(req.Notes) == "" {
		errs = append(errs, domain.NewMissingFieldError("notes"))
	}
	if req.MaxMCQ < 0 || req.MaxMCQ > maxMCQLimit {
		errs = append(errs, domain.NewOutOfRangeError("maxMcq", req.MaxMCQ, 0, maxMCQLimit))
	}
	if req.MaxShort < 0 || req.MaxShort > maxShortLimit {
		errs = append(errs, domain.NewOutOfRangeError("maxShort", req.MaxShort, 0, maxShortLimit))
	}
	if req.Temperature < 0 || req.Temperature > maxTemperature {
		errs = append(errs, domain.ValidationError{
			Field:   "temperature",
			Message: "must be between 0 and 2",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateListLimit normalizes a list page size. Zero means the default,
// anything above the cap is clamped.
func ValidateListLimit(limit int) (int, error) {
	const (
		defaultLimit = 20
		maxLimit     = 100
	)
	if limit < 0 {
		return 0, domain.ValidationErrors{domain.NewOutOfRangeError("limit", limit, 0, maxLimit)}
	}
	if limit == 0 {
		return defaultLimit, nil
	}
	if limit > maxLimit {
		return maxLimit, nil
	}
	return limit, nil
}
