package requestcontext

import (
	"context"
	"net"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/gatepass-network/boxoffice/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
)

type clientIPKey struct{}

// WithClientIPConfig controls how the client IP is recovered when the
// server sits behind proxies.
type WithClientIPConfig struct {
	// TrustedProxiesIP lists the CIDR ranges of every proxy between this
	// server and the internet. When set, the client IP is the last entry
	// in X-Forwarded-For that does not belong to one of these ranges.
	// A partial list lets a client spoof its IP, so list them all.
	TrustedProxiesIP []string `env:"TRUSTED_PROXIES_IP" mapstructure:"trusted_proxies_ip"`

	// TrustedHeader names a header that carries the verified client IP,
	// e.g. CF-Connecting-IP. Takes precedence over everything else.
	TrustedHeader string `env:"TRUSTED_HEADER" mapstructure:"trusted_proxies_header"`

	// EnableRejectMalformedRequest rejects proxied requests whose client
	// IP cannot be established instead of trusting X-Forwarded-For.
	EnableRejectMalformedRequest bool `env:"ENABLE_REJECT_MALFORMED_REQUEST" envDefault:"false" mapstructure:"enable_reject_malformed_request"`
}

// WithClientIP resolves the real client IP, guarding against spoofed
// X-Forwarded-For chains, and stores it in the request context.
func WithClientIP(config WithClientIPConfig) Option {
	var trusted []*net.IPNet
	if len(config.TrustedProxiesIP) > 0 {
		var err error
		trusted, err = parseCIDRs(config.TrustedProxiesIP)
		if err != nil {
			logger.Panic("invalid trusted proxy ranges", slogx.Error(err))
		}
	}

	return func(ctx context.Context, c *fiber.Ctx) (context.Context, error) {
		if config.TrustedHeader != "" {
			if ip := net.ParseIP(c.Get(config.TrustedHeader)); ip != nil {
				return context.WithValue(ctx, clientIPKey{}, ip.String()), nil
			}
		}

		forwarded := c.IPs()
		if len(forwarded) == 0 {
			// direct connection
			return context.WithValue(ctx, clientIPKey{}, c.IP()), nil
		}

		if len(trusted) > 0 {
			// walk the chain from the nearest hop back to the first
			// address that was not appended by one of our proxies
			for i := len(forwarded) - 1; i >= 0; i-- {
				ip := net.ParseIP(forwarded[i])
				if ip == nil || !containsIP(trusted, ip) {
					return context.WithValue(ctx, clientIPKey{}, forwarded[i]), nil
				}
			}
			// every hop is ours, the origin is the first entry
			return context.WithValue(ctx, clientIPKey{}, forwarded[0]), nil
		}

		if config.EnableRejectMalformedRequest {
			logger.WarnContext(ctx, "cannot establish client ip, rejecting request",
				slogx.String("module", "requestcontext"),
				slogx.String("remoteIp", c.IP()),
				slogx.Any("xForwardedFor", forwarded),
			)
			return nil, statusError{status: fiber.StatusForbidden, message: "not allowed to access"}
		}
		return context.WithValue(ctx, clientIPKey{}, forwarded[0]), nil
	}
}

// GetClientIP returns the client IP set by WithClientIP, or "".
func GetClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

func parseCIDRs(ranges []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(ranges))
	for _, r := range ranges {
		_, ipnet, err := net.ParseCIDR(r)
		if err != nil {
			return nil, errors.Wrapf(err, "parse CIDR %q", r)
		}
		nets = append(nets, ipnet)
	}
	return nets, nil
}

func containsIP(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
