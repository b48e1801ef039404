package middleware

import (
	"errors"

	"quizforge/internal/domain"
	"quizforge/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse is the uniform error body returned by the API.
type ErrorResponse struct {
	Code    string                   `json:"code"`
	Message string                   `json:"message"`
	Details []domain.ValidationError `json:"details,omitempty"`
}

// ErrorHandler converts domain errors into HTTP responses. It is installed
// as the fiber app-level error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var validationErrs domain.ValidationErrors
	if errors.As(err, &validationErrs) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Code:    string(domain.CodeValidation),
			Message: "request validation failed",
			Details: validationErrs,
		})
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		status := statusForCode(domainErr.Code)
		if status >= fiber.StatusInternalServerError {
			logger.Get().Error("Request failed",
				zap.String("path", c.Path()),
				zap.String("code", string(domainErr.Code)),
				zap.Error(err))
		}
		return c.Status(status).JSON(ErrorResponse{
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Code:    string(domain.CodeInternal),
			Message: fiberErr.Message,
		})
	}

	logger.Get().Error("Unhandled error",
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Code:    string(domain.CodeInternal),
		Message: "internal server error",
	})
}

func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.CodeInvalidInput, domain.CodeValidation, domain.CodeMissingField,
		domain.CodeInvalidFormat, domain.CodeOutOfRange:
		return fiber.StatusBadRequest
	case domain.CodeNotFound, domain.CodeJobNotFound:
		return fiber.StatusNotFound
	case domain.CodeGenerationTimeout:
		return fiber.StatusGatewayTimeout
	case domain.CodeGenerationRateLimited:
		return fiber.StatusTooManyRequests
	case domain.CodeGenerationUnavailable, domain.CodeGenerationMalformed,
		domain.CodeStrategyFailed:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
