// Package catalog adapts Redis to the watcher: the catalog lives as one
// JSON value under a fixed key, and keyspace notifications on that key
// signal changes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/23skdu/adfiller/internal/watcher"
	"github.com/redis/go-redis/v9"
)

// DefaultKey holds the JSON array of every ad.
const DefaultKey = "ads:all"

// ErrMissing is returned by Fetch when the catalog key does not exist.
var ErrMissing = errors.New("catalog key not found")

// Redis reads the catalog and its change notifications from one server.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key}
}

// Open parses a redis:// URL and returns a catalog backed by it.
func Open(url, key string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedis(redis.NewClient(opts), key), nil
}

// Fetch returns the raw catalog payload.
func (r *Redis) Fetch(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrMissing, r.key)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.key, err)
	}
	return data, nil
}

// Subscribe opens a pattern subscription and waits for the server to
// confirm it, so a returned subscription is known to be live.
func (r *Redis) Subscribe(ctx context.Context, pattern string) (watcher.Subscription, error) {
	ps := r.client.PSubscribe(ctx, pattern)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("psubscribe %s: %w", pattern, err)
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	s := &subscription{
		ps:     ps,
		events: make(chan watcher.Event),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.pump(streamCtx)
	return s, nil
}

// EnableKeyspaceEvents turns on keyspace notifications for string commands
// on the server. Servers that reject CONFIG need "K$" set out of band.
func (r *Redis) EnableKeyspaceEvents(ctx context.Context) error {
	if err := r.client.ConfigSet(ctx, "notify-keyspace-events", "K$").Err(); err != nil {
		return fmt.Errorf("enable keyspace events: %w", err)
	}
	return nil
}

// Ping checks that the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client's connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// subscription relays pattern messages until the connection fails or Close
// is called. Any receive error ends the stream; the watcher decides when to
// subscribe again.
type subscription struct {
	ps     *redis.PubSub
	events chan watcher.Event
	err    error

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func (s *subscription) pump(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	for {
		msg, err := s.ps.ReceiveMessage(ctx)
		if err != nil {
			s.err = err
			return
		}
		ev := watcher.Event{
			Pattern: msg.Pattern,
			Channel: msg.Channel,
			Payload: msg.Payload,
		}
		select {
		case s.events <- ev:
		case <-ctx.Done():
			s.err = ctx.Err()
			return
		}
	}
}

// Events implements watcher.Subscription.
func (s *subscription) Events() <-chan watcher.Event {
	return s.events
}

// Err reports why the stream ended. Only valid once Events is closed.
func (s *subscription) Err() error {
	return s.err
}

// Close implements watcher.Subscription.
func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.closeErr = s.ps.Close()
		<-s.done
	})
	return s.closeErr
}
