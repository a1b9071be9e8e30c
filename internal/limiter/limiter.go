package limiter

import (
	"context"
	"errors"

	"github.com/23skdu/adfiller/internal/metrics"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Config holds rate limiter configuration
type Config struct {
	RPS   int // 0 disables limiting
	Burst int // 0 means use RPS
}

// RateLimiter wraps a token bucket shared by all Fill callers.
type RateLimiter struct {
	limiter *rate.Limiter
	enabled bool
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg Config) *RateLimiter {
	if cfg.RPS <= 0 {
		return &RateLimiter{enabled: false}
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RPS
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), burst),
		enabled: true,
	}
}

// Enabled reports whether requests are being limited.
func (l *RateLimiter) Enabled() bool {
	return l.enabled
}

// UnaryInterceptor waits for a token, bounded by the request deadline.
func (l *RateLimiter) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !l.enabled {
			return handler(ctx, req)
		}

		if err := l.limiter.Wait(ctx); err != nil {
			metrics.RateLimitRequestsTotal.WithLabelValues("throttled").Inc()
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, status.FromContextError(err).Err()
			}
			// Wait fails fast when the deadline is closer than the next token.
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}

		metrics.RateLimitRequestsTotal.WithLabelValues("allowed").Inc()
		return handler(ctx, req)
	}
}
