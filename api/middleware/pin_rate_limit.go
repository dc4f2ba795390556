package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/lowvoltmgr/lowvolt-backend/api/responses"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// PinRateLimitPolicy defines the throttling parameters for PIN-confirmed endpoints.
type PinRateLimitPolicy struct {
	name     string
	window   time.Duration
	ipLimit  int
	pinLimit int
}

// NewPinRateLimitPolicy builds a policy with the supplied window and limits.
func NewPinRateLimitPolicy(name string, window time.Duration, ipLimit, pinLimit int) PinRateLimitPolicy {
	return PinRateLimitPolicy{
		name:     strings.ToLower(strings.TrimSpace(name)),
		window:   window,
		ipLimit:  ipLimit,
		pinLimit: pinLimit,
	}
}

func (p PinRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.pinLimit > 0)
}

func (p PinRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "pin"
	}
	return p.name
}

func (p PinRateLimitPolicy) ipScope(ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("ip:%s:%s", p.normalizedName(), ip)
}

func (p PinRateLimitPolicy) pinScope(hash string) string {
	if hash == "" {
		return ""
	}
	return fmt.Sprintf("pin:%s:%s", p.normalizedName(), hash)
}

// PinRateLimit enforces per-IP and per-PIN counters for destructive endpoints.
// Attempted PINs are only ever handled as hashes outside the request path.
func PinRateLimit(policy PinRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			if policy.ipLimit > 0 {
				if scope := policy.ipScope(ip); scope != "" {
					if allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.ipLimit), policy.window); err != nil {
						responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					} else if !allowed {
						respondRateLimited(ctx, logg, w, policy, "ip", ip, "", count, policy.ipLimit)
						return
					}
				}
			}

			var body []byte
			if policy.pinLimit > 0 {
				var err error
				body, err = io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				pin := strings.TrimSpace(extractPIN(body))
				if pin != "" {
					hash := hashValue(pin)
					if scope := policy.pinScope(hash); scope != "" {
						if allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.pinLimit), policy.window); err != nil {
							responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
							return
						} else if !allowed {
							respondRateLimited(ctx, logg, w, policy, "pin", "", hash, count, policy.pinLimit)
							return
						}
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy PinRateLimitPolicy, scope, ip, pinHash string, count int64, limit int) {
	if logg != nil {
		fields := map[string]any{
			"scope":          scope,
			"policy":         policy.normalizedName(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(policy.window.Seconds()),
		}
		if ip != "" {
			fields["ip"] = ip
		}
		if pinHash != "" {
			fields["pin_hash"] = pinHash
		}
		logCtx := logg.WithFields(ctx, fields)
		logg.Warn(logCtx, "pin.rate_limit.blocked")
	}
	err := pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded")
	responses.WriteError(ctx, nil, w, err)
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractPIN(payload []byte) string {
	var body struct {
		PIN string `json:"pin"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.PIN
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
