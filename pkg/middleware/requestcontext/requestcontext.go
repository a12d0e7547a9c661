// Package requestcontext enriches the request's user context with
// per-request values (request id, client ip) before handlers run.
package requestcontext

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/mintvault/series-ledger/pkg/logger"
)

type Response struct {
	Result any    `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Option derives a new user context from the request. Returning a
// requestcontextError rejects the request with that status and message.
type Option func(ctx context.Context, c *fiber.Ctx) (context.Context, error)

func New(opts ...Option) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		for i, opt := range opts {
			next, err := opt(ctx, c)
			if err != nil {
				rErr := requestcontextError{}
				if errors.As(err, &rErr) {
					return c.Status(rErr.status).JSON(Response{Error: rErr.message})
				}
				logger.ErrorContext(ctx, "failed to extract request context",
					slog.Any("error", err),
					slog.String("event", "requestcontext/error"),
					slog.Int("optionIndex", i),
				)
				return c.Status(http.StatusInternalServerError).JSON(Response{Error: "internal server error"})
			}
			ctx = next
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}
