// Package watcher keeps the published inventory in step with the catalog
// store. It bootstraps one snapshot synchronously, then subscribes to the
// store's change notifications and re-extracts the whole catalog whenever a
// value is set.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	ferrors "github.com/23skdu/adfiller/internal/errors"
	"github.com/23skdu/adfiller/internal/inventory"
	"github.com/23skdu/adfiller/internal/metrics"
	"github.com/23skdu/adfiller/internal/resilience"
	"github.com/rs/zerolog"
)

const (
	// DefaultPattern is the keyspace notification pattern for catalog keys.
	DefaultPattern = "__keyspace@0__:ads:*"
	// DefaultRetryInterval is the fixed wait between reconnect attempts.
	DefaultRetryInterval = 5 * time.Second
	// SetPayload is the only notification payload that triggers a refresh.
	SetPayload = "set"
)

// ErrProtocolViolation is returned by Watch when a notification arrives for
// a pattern the watcher never subscribed to.
var ErrProtocolViolation = errors.New("notification outside subscribed pattern")

// Event is one pattern-matched notification.
type Event struct {
	Pattern string
	Channel string
	Payload string
}

// Subscription is an open notification stream. Events is closed when the
// stream ends; Err then reports why.
type Subscription interface {
	Events() <-chan Event
	Err() error
	Close() error
}

// Subscriber opens pattern subscriptions against the notification feed.
type Subscriber interface {
	Subscribe(ctx context.Context, pattern string) (Subscription, error)
}

// Source fetches the raw catalog payload in one shot.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Rebuilder builds and publishes a snapshot from a full item list.
type Rebuilder interface {
	Rebuild(items []*inventory.Item) (*inventory.Snapshot, error)
}

// Config holds watcher settings.
type Config struct {
	Pattern       string
	RetryInterval time.Duration
}

// Watcher is the reconciliation loop.
type Watcher struct {
	pattern string
	retry   time.Duration

	source     Source
	subscriber Subscriber
	store      Rebuilder
	logger     zerolog.Logger

	state atomic.Int32
}

// New returns a Watcher. Zero config fields fall back to the defaults.
func New(cfg Config, source Source, subscriber Subscriber, store Rebuilder, logger zerolog.Logger) *Watcher {
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	w := &Watcher{
		pattern:    cfg.Pattern,
		retry:      cfg.RetryInterval,
		source:     source,
		subscriber: subscriber,
		store:      store,
		logger:     logger.With().Str("component", "watcher").Logger(),
	}
	w.setState(StateBootstrap)
	return w
}

// State reports where the reconciliation loop currently is.
func (w *Watcher) State() State {
	return State(w.state.Load())
}

func (w *Watcher) setState(s State) {
	w.state.Store(int32(s))
	metrics.WatcherState.Set(float64(s))
}

// Run bootstraps the inventory and then watches for changes until ctx is
// cancelled or a protocol violation ends the loop.
func (w *Watcher) Run(ctx context.Context) error {
	w.Bootstrap(ctx)
	return w.Watch(ctx)
}

// Bootstrap performs one synchronous extract-and-publish cycle. Failure is
// logged and leaves the empty snapshot in place.
func (w *Watcher) Bootstrap(ctx context.Context) {
	w.setState(StateBootstrap)
	_ = w.Extract(ctx)
	w.logger.Info().Msg("watcher initialized")
}

// Watch runs the connect/consume state machine. It returns nil once ctx is
// cancelled and ErrProtocolViolation if the feed misbehaves.
func (w *Watcher) Watch(ctx context.Context) error {
	defer w.setState(StateStopped)

	for {
		sub, err := w.connect(ctx)
		if err != nil {
			return nil
		}

		err = w.consume(ctx, sub)
		if cerr := sub.Close(); cerr != nil {
			w.logger.Debug().Err(cerr).Msg("closing subscription")
		}
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}

		w.logger.Info().Err(sub.Err()).Msg("subscriber's been dropped, a new one will be established")
		w.setState(StateConnecting)
		if err := resilience.Sleep(ctx, w.retry); err != nil {
			return nil
		}
	}
}

// connect subscribes with a fixed wait between attempts and no limit on
// their number. It only fails when ctx is done.
func (w *Watcher) connect(ctx context.Context) (Subscription, error) {
	w.setState(StateConnecting)

	policy := resilience.FixedInterval(w.retry, func(attempt int, err error) {
		metrics.WatcherReconnectsTotal.Inc()
		w.logger.Error().
			Err(ferrors.Wrap(err, ferrors.ErrorTypeTransient, "subscribe", "subscription failed")).
			Int("attempt", attempt).
			Dur("retry_in", w.retry).
			Msg("subscribe to catalog notifications failed")
	})

	sub, err := resilience.Retry(ctx, policy, func(ctx context.Context) (Subscription, error) {
		return w.subscriber.Subscribe(ctx, w.pattern)
	})
	if err != nil {
		return nil, err
	}

	w.setState(StateSubscribed)
	w.logger.Info().Str("pattern", w.pattern).Msg("subscribed to catalog notifications")
	return sub, nil
}

// consume handles events one at a time. It returns nil when the stream
// ends.
func (w *Watcher) consume(ctx context.Context, sub Subscription) error {
	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := w.handle(ctx, ev); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev Event) error {
	if ev.Pattern != w.pattern {
		metrics.WatcherNotificationsTotal.WithLabelValues("violation").Inc()
		err := ferrors.Wrap(ErrProtocolViolation, ferrors.ErrorTypeProtocol, "watch",
			fmt.Sprintf("pattern %q channel %q", ev.Pattern, ev.Channel))
		w.logger.Error().
			Err(err).
			Str("expected", w.pattern).
			Str("pattern", ev.Pattern).
			Str("channel", ev.Channel).
			Msg("stopping watcher")
		return err
	}

	if ev.Payload != SetPayload {
		metrics.WatcherNotificationsTotal.WithLabelValues("ignored").Inc()
		w.logger.Debug().Str("channel", ev.Channel).Str("payload", ev.Payload).Msg("ignoring notification")
		return nil
	}

	metrics.WatcherNotificationsTotal.WithLabelValues("reconcile").Inc()
	_ = w.Extract(ctx)
	return nil
}

// Extract fetches the full catalog, rebuilds the index and publishes it.
// Every failure is logged and leaves the live snapshot untouched; the error
// is returned for callers that want to inspect it.
func (w *Watcher) Extract(ctx context.Context) error {
	start := time.Now()

	payload, err := w.source.Fetch(ctx)
	if err != nil {
		return w.extractFailed("fetch_error",
			ferrors.Wrap(err, ferrors.ErrorTypeTransient, "extract", "catalog fetch failed"))
	}

	items, err := inventory.DecodeItems(payload)
	if err != nil {
		return w.extractFailed("decode_error",
			ferrors.Wrap(err, ferrors.ErrorTypeMalformed, "extract", "catalog payload malformed"))
	}

	if _, err := w.store.Rebuild(items); err != nil {
		errType := ferrors.ErrorTypeTransient
		if errors.Is(err, inventory.ErrCatalogTooLarge) {
			errType = ferrors.ErrorTypeCapacity
		}
		return w.extractFailed("rebuild_error",
			ferrors.Wrap(err, errType, "extract", "inventory rebuild failed"))
	}

	metrics.ExtractionsTotal.WithLabelValues("ok").Inc()
	w.logger.Debug().Int("bytes", len(payload)).Dur("took", time.Since(start)).Msg("catalog extracted")
	return nil
}

func (w *Watcher) extractFailed(status string, err error) error {
	metrics.ExtractionsTotal.WithLabelValues(status).Inc()
	w.logger.Error().
		Err(err).
		Str("kind", string(ferrors.TypeOf(err))).
		Msg("catalog extraction failed, keeping current inventory")
	return err
}
