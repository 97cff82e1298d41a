package middleware

import (
	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	TraceIDHeader = "X-Trace-ID"

	traceIDLocal     = "traceID"
	maxTraceIDLength = 64
)

// TraceID carries the caller's X-Trace-ID through the request, replacing it
// with a fresh UUIDv7 when it is missing or not a plain token. The id is
// echoed on the response and attached to the user context for
// logger.TraceFromContext.
func (m *Middleware) TraceID() fiber.Handler {
	log := m.log.Function("TraceID")

	return func(c *fiber.Ctx) error {
		traceID := c.Get(TraceIDHeader)
		if !validTraceID(traceID) {
			if traceID != "" {
				log.Debug("replacing malformed trace id", "length", len(traceID), "path", c.Path())
			}
			traceID = newTraceID()
		}

		c.Set(TraceIDHeader, traceID)
		c.Locals(traceIDLocal, traceID)
		c.SetUserContext(logger.ContextWithTraceID(c.UserContext(), traceID))

		return c.Next()
	}
}

// TraceIDFrom returns the id assigned by TraceID, or "" outside of it.
func TraceIDFrom(c *fiber.Ctx) string {
	traceID, _ := c.Locals(traceIDLocal).(string)
	return traceID
}

func validTraceID(traceID string) bool {
	if traceID == "" || len(traceID) > maxTraceIDLength {
		return false
	}

	for _, r := range traceID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

func newTraceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
