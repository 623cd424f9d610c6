// Package requestcontext decorates each request's user context with
// cross-cutting metadata (request id, client ip) before the handlers run.
package requestcontext

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/gatepass-network/boxoffice/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
)

// Option extends the request context. Returning an error aborts the
// request before it reaches a handler.
type Option func(ctx context.Context, c *fiber.Ctx) (context.Context, error)

// statusError is an option failure that maps to a specific HTTP status
// instead of a generic 500.
type statusError struct {
	status  int
	message string
}

func (e statusError) Error() string { return e.message }

type errorResponse struct {
	Error string `json:"error"`
}

// New builds a fiber middleware that threads the request's user context
// through every option in order.
func New(opts ...Option) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		for _, opt := range opts {
			next, err := opt(ctx, c)
			if err != nil {
				var se statusError
				if errors.As(err, &se) {
					return c.Status(se.status).JSON(errorResponse{Error: se.message})
				}
				logger.ErrorContext(ctx, "request context setup failed", err,
					slogx.String("module", "requestcontext"),
				)
				return c.Status(http.StatusInternalServerError).JSON(errorResponse{Error: "internal server error"})
			}
			ctx = next
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}
