// Package requestlogger logs every completed request with request and
// response attribute groups.
package requestlogger

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/mintvault/series-ledger/pkg/logger"
	"github.com/mintvault/series-ledger/pkg/middleware/requestcontext"
)

type Config struct {
	WithRequestHeader    bool     `mapstructure:"request_header"`
	Disable              bool     `mapstructure:"disable"` // Suppress INFO-level request logs
	HiddenRequestHeaders []string `mapstructure:"hidden_request_headers"`
}

func New(config Config) fiber.Handler {
	hidden := make(map[string]struct{}, len(config.HiddenRequestHeaders))
	for _, header := range config.HiddenRequestHeaders {
		hidden[strings.TrimSpace(strings.ToLower(header))] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)
		status := c.Response().StatusCode()

		requestGroup := []slog.Attr{
			slog.Time("time", start),
			slog.String("method", c.Method()),
			slog.String("host", c.Hostname()),
			slog.String("path", c.Path()),
			slog.String("route", c.Route().Path),
			slog.String("ip", requestcontext.GetClientIP(c.UserContext())),
			slog.String("remoteIP", c.Context().RemoteIP().String()),
			slog.Any("x-forwarded-for", c.IPs()),
			slog.String("user-agent", string(c.Context().UserAgent())),
			slog.Any("params", c.AllParams()),
			slog.Any("query", c.Queries()),
			slog.Int("length", len(c.Body())),
		}
		if config.WithRequestHeader {
			kv := make([]any, 0, len(c.GetReqHeaders()))
			for k, v := range c.GetReqHeaders() {
				if _, found := hidden[strings.ToLower(k)]; found {
					continue
				}
				kv = append(kv, slog.Any(k, v))
			}
			requestGroup = append(requestGroup, slog.Group("header", kv...))
		}

		attrs := []slog.Attr{
			{Key: "request", Value: slog.GroupValue(requestGroup...)},
			{Key: "response", Value: slog.GroupValue(
				slog.Time("time", start.Add(latency)),
				slog.Int("status", status),
				slog.Int("length", len(c.Response().Body())),
			)},
			slog.String("event", "api_request"),
			slog.Int64("latency", latency.Milliseconds()),
			slog.String("latencyHuman", latency.String()),
		}

		level := slog.LevelInfo
		if err != nil || status >= http.StatusInternalServerError {
			level = slog.LevelError
			logErr := err
			if logErr == nil {
				logErr = fiber.NewError(status)
			}
			attrs = append(attrs, slog.Any("error", logErr))
		}
		if config.Disable && level == slog.LevelInfo {
			return errors.WithStack(err)
		}

		ctx := c.UserContext()
		logger.FromContext(ctx).LogAttrs(ctx, level, "Request Completed", attrs...)
		return errors.WithStack(err)
	}
}
