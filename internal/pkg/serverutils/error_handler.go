package serverutils

import (
	"errors"
	"log"

	"doc-assistant-be/pkg/chunker"
	"doc-assistant-be/pkg/extract"
	"doc-assistant-be/pkg/llm"
	"doc-assistant-be/pkg/vectorindex"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors bubbling out of controllers into
// the standard response envelope with a status matching the failure class.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var verr *ValidationError
		if errors.As(err, &verr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse("Validation failed", verr.Fields))
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return ctx.Status(ferr.Code).JSON(ErrorResponse(ferr.Message, nil))
		}

		switch {
		case errors.Is(err, extract.ErrUnsupportedFormat):
			return ctx.Status(fiber.StatusUnsupportedMediaType).JSON(ErrorResponse(err.Error(), nil))
		case errors.Is(err, extract.ErrExtraction), errors.Is(err, chunker.ErrInvalidConfig):
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(err.Error(), nil))
		case errors.Is(err, vectorindex.ErrUnavailable):
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse("Retrieval backend unavailable", nil))
		case errors.Is(err, llm.ErrQuotaExceeded):
			return ctx.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse("Generation quota exceeded", nil))
		case errors.Is(err, llm.ErrUnavailable):
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse("Generation backend unavailable", nil))
		}

		log.Printf("[ERROR] Unhandled error: %v", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("Internal server error", nil))
	}
}
