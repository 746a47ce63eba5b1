package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/reconciliation-bot/internal/logger"
	"github.com/insightdelivered/reconciliation-bot/internal/models"
	"github.com/insightdelivered/reconciliation-bot/internal/pipeline"
)

// StatusFor maps an error to an HTTP status: 400 for unusable requests,
// 422 for documents that parsed but yielded nothing usable, 500 otherwise.
func StatusFor(err error) int {
	var br *badRequest
	var fe *fiber.Error
	switch {
	case errors.As(err, &br), errors.Is(err, models.ErrUnsupported):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrSchema), errors.Is(err, models.ErrExhausted):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &fe):
		return fe.Code
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *fiber.Ctx, err error, debug bool) error {
	status := StatusFor(err)
	msg := err.Error()
	var br *badRequest
	if !errors.As(err, &br) {
		msg = pipeline.UserMessage(err, debug)
	}

	log := logger.FromContext(c.UserContext())
	ev := log.Warn()
	if status >= fiber.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).Int("status", status).Msg("request failed")

	return c.Status(status).JSON(ErrorResponse{Success: false, Error: msg})
}

// ErrorHandler renders errors that escape handlers, including fiber's own
// (404, 413), in the API's JSON shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	msg := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		msg = fe.Message
	}
	return c.Status(status).JSON(ErrorResponse{Success: false, Error: msg})
}
