// Package server exposes the query engine as the filler.Filler gRPC
// service.
package server

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/23skdu/adfiller/internal/limiter"
	"github.com/23skdu/adfiller/internal/metrics"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// DefaultRequestTimeout bounds a single Fill call.
const DefaultRequestTimeout = 10 * time.Second

// Config holds transport settings that sit in front of the engine.
type Config struct {
	// AuthToken is the expected bearer token; empty disables the check.
	AuthToken      string
	RequestTimeout time.Duration
	Limiter        limiter.Config
}

// New builds a grpc.Server serving Filler with auth, timeout, rate limit and
// metrics interceptors. opts are appended after the interceptor chain.
func New(cfg Config, engine Filler, logger zerolog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	interceptors := []grpc.UnaryServerInterceptor{
		metricsInterceptor(),
		timeoutInterceptor(cfg.RequestTimeout),
		authInterceptor(cfg.AuthToken),
	}
	if rl := limiter.NewRateLimiter(cfg.Limiter); rl.Enabled() {
		interceptors = append(interceptors, rl.UnaryInterceptor())
	}

	serverOpts := append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(interceptors...)}, opts...)
	s := grpc.NewServer(serverOpts...)
	RegisterFillerServer(s, NewService(engine, logger))
	return s
}

func metricsInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		metrics.FillDurationSeconds.Observe(time.Since(start).Seconds())
		metrics.FillRequestsTotal.WithLabelValues(status.Code(err).String()).Inc()
		return resp, err
	}
}

func timeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return handler(ctx, req)
	}
}

func authInterceptor(token string) grpc.UnaryServerInterceptor {
	expected := []byte("Bearer " + token)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if token == "" {
			return handler(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		for _, v := range md.Get("authorization") {
			if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(v)), expected) == 1 {
				return handler(ctx, req)
			}
		}
		return nil, status.Error(codes.Unauthenticated, "no valid auth token")
	}
}
