package handlers

import (
	"errors"

	"fileforge/internal/database"
	"fileforge/internal/handlers/middleware"
	"fileforge/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

// Response is the envelope of every API reply.
type Response struct {
	StatusCode int                      `json:"statusCode"`
	Success    bool                     `json:"success"`
	Message    string                   `json:"message"`
	Data       any                      `json:"data"`
	Meta       *database.PaginationMeta `json:"meta,omitempty"`
}

func sendResponse(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		StatusCode: status,
		Success:    status < fiber.StatusBadRequest,
		Message:    message,
		Data:       data,
	})
}

func sendPaginated(c *fiber.Ctx, message string, data any, meta database.PaginationMeta) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		StatusCode: fiber.StatusOK,
		Success:    true,
		Message:    message,
		Data:       data,
		Meta:       &meta,
	})
}

func statusFromError(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.Is(err, types.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, types.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, types.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, types.ErrStorage):
		return fiber.StatusBadGateway
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// sendError maps err onto the envelope. Unclassified errors are logged and
// reported without detail.
func sendError(c *fiber.Ctx, log logger.Logger, err error, message string) error {
	status := statusFromError(err)

	if status >= fiber.StatusInternalServerError {
		_ = log.Err(message, err, "path", c.Path())
		if status == fiber.StatusInternalServerError {
			return sendResponse(c, status, message, nil)
		}
	} else {
		log.Warn(message, "path", c.Path(), "error", err)
	}

	return sendResponse(c, status, err.Error(), nil)
}

// ErrorHandler renders errors that escape a handler, such as unknown routes,
// with the same envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := statusFromError(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		_ = logger.New("handlers").
			Function("ErrorHandler").
			Err("unhandled error", err, "path", c.Path(), "traceID", middleware.TraceIDFrom(c))
		message = "Internal server error"
	}
	return sendResponse(c, status, message, nil)
}
