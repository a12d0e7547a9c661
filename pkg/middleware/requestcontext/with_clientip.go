package requestcontext

import (
	"context"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/mintvault/series-ledger/pkg/logger"
)

type clientIPKey struct{}

type WithClientIPConfig struct {
	// [Optional] TrustedHeader is a header name for getting client IP.
	// (e.g. X-Real-IP, CF-Connecting-IP, etc.) Takes priority over the
	// X-Forwarded-For header.
	TrustedHeader string `mapstructure:"trusted_header"`

	// EnableRejectMalformedRequest return 403 Forbidden if the request is from
	// proxies, but the client IP can't be extracted.
	EnableRejectMalformedRequest bool `mapstructure:"enable_reject_malformed_request"`
}

// WithClientIP stores the resolved client IP in the request context.
//
// If the request passed through proxies, the first IP from the
// `X-Forwarded-For` header is used by default.
func WithClientIP(config WithClientIPConfig) Option {
	return func(ctx context.Context, c *fiber.Ctx) (context.Context, error) {
		if config.TrustedHeader != "" {
			headerIP := c.Get(config.TrustedHeader)
			if ip := net.ParseIP(headerIP); ip != nil {
				return context.WithValue(ctx, clientIPKey{}, headerIP), nil
			}
		}

		rawIPs := c.IPs()

		// request is directly from the client, use the remote IP address
		if len(rawIPs) == 0 {
			return context.WithValue(ctx, clientIPKey{}, c.IP()), nil
		}

		for _, raw := range rawIPs {
			if ip := net.ParseIP(raw); ip != nil {
				return context.WithValue(ctx, clientIPKey{}, ip.String()), nil
			}
		}

		if config.EnableRejectMalformedRequest {
			logger.WarnContext(ctx, "IP Spoofing detected, returning 403 Forbidden",
				slog.String("event", "requestcontext/ip_spoofing_detected"),
				slog.String("ip", c.IP()),
				slog.Any("ips", rawIPs),
			)
			return nil, newError(fiber.StatusForbidden, "not allowed to access")
		}

		return context.WithValue(ctx, clientIPKey{}, rawIPs[0]), nil
	}
}

// GetClientIP get clientIP from context. If not found, return empty string
//
// Warning: Request context should be setup before using this function
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}
