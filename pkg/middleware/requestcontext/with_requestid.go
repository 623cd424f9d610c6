package requestcontext

import (
	"context"

	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	fiberutils "github.com/gofiber/fiber/v2/utils"
)

type requestIDKey struct{}

// WithRequestID tags each request with an id, reusing the inbound
// X-Request-ID header when present and generating one otherwise. The id
// is echoed on the response, stored in the request context and attached
// to the context logger.
func WithRequestID() Option {
	return func(ctx context.Context, c *fiber.Ctx) (context.Context, error) {
		id, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
		if id == "" {
			id = c.Get(requestid.ConfigDefault.Header)
			if id == "" {
				id = fiberutils.UUID()
			}
			c.Set(requestid.ConfigDefault.Header, id)
			c.Locals(requestid.ConfigDefault.ContextKey, id)
		}
		ctx = context.WithValue(ctx, requestIDKey{}, id)
		return logger.WithContext(ctx, "requestId", id), nil
	}
}

// GetRequestID returns the request id set by WithRequestID, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
