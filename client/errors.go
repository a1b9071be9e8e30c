package client

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrUnauthenticated means the server rejected the bearer token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrRateLimited means the server's limiter refused the call.
	ErrRateLimited = errors.New("rate limited")
	// ErrTimeout means the call ran past its deadline.
	ErrTimeout = errors.New("timeout")
)

// classify maps well-known gRPC codes onto sentinels while keeping the
// original status reachable through errors.As.
func classify(err error) error {
	var sentinel error
	switch status.Code(err) {
	case codes.Unauthenticated:
		sentinel = ErrUnauthenticated
	case codes.ResourceExhausted:
		sentinel = ErrRateLimited
	case codes.DeadlineExceeded:
		sentinel = ErrTimeout
	default:
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
