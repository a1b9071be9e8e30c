// Package client is a Go client for the filler gRPC service.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/23skdu/adfiller/internal/server"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Client calls Fill on one server.
type Client struct {
	conn    *grpc.ClientConn
	owned   bool
	token   string
	timeout time.Duration
}

// Option configures a Client.
type Option func(*options)

type options struct {
	token    string
	timeout  time.Duration
	dialOpts []grpc.DialOption
}

// WithToken sends "Bearer <token>" on every call.
func WithToken(token string) Option {
	return func(o *options) { o.token = token }
}

// WithTimeout bounds each call when the caller's context has no deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithDialOptions appends gRPC dial options; the default is an insecure
// transport.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dialOpts = append(o.dialOpts, opts...) }
}

func buildOptions(opts []Option) options {
	o := options{timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New dials addr. The connection is established lazily on the first call.
func New(addr string, opts ...Option) (*Client, error) {
	o := buildOptions(opts)
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, o.dialOpts...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &Client{conn: conn, owned: true, token: o.token, timeout: o.timeout}, nil
}

// NewWithConn wraps an existing connection. Close does not close it.
func NewWithConn(conn *grpc.ClientConn, opts ...Option) *Client {
	o := buildOptions(opts)
	return &Client{conn: conn, token: o.token, timeout: o.timeout}
}

// Close closes the connection if New opened it.
func (c *Client) Close() error {
	if !c.owned {
		return nil
	}
	return c.conn.Close()
}

// Fill returns the ids of every ad eligible for all categories at the
// server's current hour.
func (c *Client) Fill(ctx context.Context, categories ...uint32) ([]string, error) {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}

	resp := new(server.FillResponse)
	err := c.conn.Invoke(ctx, server.FillMethod, &server.FillRequest{Categories: categories}, resp,
		grpc.CallContentSubtype(server.CodecName))
	if err != nil {
		return nil, classify(err)
	}

	ids := make([]string, len(resp.Ads))
	for i, ad := range resp.Ads {
		ids[i] = ad.ID
	}
	return ids, nil
}
