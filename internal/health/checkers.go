package health

import (
	"context"
	"time"

	"github.com/23skdu/adfiller/internal/inventory"
	"github.com/23skdu/adfiller/internal/watcher"
)

// SnapshotSource exposes the published inventory.
type SnapshotSource interface {
	Load() *inventory.Snapshot
}

// InventoryChecker reports degraded until a catalog has been published.
type InventoryChecker struct {
	store SnapshotSource
}

func NewInventoryChecker(store SnapshotSource) *InventoryChecker {
	return &InventoryChecker{store: store}
}

func (c *InventoryChecker) Name() string { return "inventory" }

func (c *InventoryChecker) Check(context.Context) *ComponentHealth {
	snap := c.store.Load()
	h := &ComponentHealth{
		Name:        c.Name(),
		Status:      StatusHealthy,
		LastChecked: time.Now(),
		Metadata: map[string]any{
			"version": snap.Version,
			"items":   snap.Len(),
		},
	}
	if snap.Version == 0 {
		h.Status = StatusDegraded
		h.Message = "no catalog published yet"
		return h
	}
	h.Metadata["age"] = time.Since(snap.BuiltAt).Round(time.Second).String()
	return h
}

// StateSource exposes the watcher's state machine.
type StateSource interface {
	State() watcher.State
}

// WatcherChecker maps watcher states to health: subscribed is healthy,
// bootstrapping or reconnecting is degraded, stopped is unhealthy.
type WatcherChecker struct {
	watcher StateSource
}

func NewWatcherChecker(w StateSource) *WatcherChecker {
	return &WatcherChecker{watcher: w}
}

func (c *WatcherChecker) Name() string { return "watcher" }

func (c *WatcherChecker) Check(context.Context) *ComponentHealth {
	state := c.watcher.State()
	h := &ComponentHealth{
		Name:        c.Name(),
		Status:      StatusHealthy,
		Message:     state.String(),
		LastChecked: time.Now(),
	}
	switch state {
	case watcher.StateSubscribed:
	case watcher.StateStopped:
		h.Status = StatusUnhealthy
	default:
		h.Status = StatusDegraded
	}
	return h
}

// Pinger is anything that can prove its backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker pings the catalog store. An unreachable store only degrades
// the service since the last published inventory keeps serving.
type StoreChecker struct {
	store   Pinger
	timeout time.Duration
}

func NewStoreChecker(store Pinger, timeout time.Duration) *StoreChecker {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &StoreChecker{store: store, timeout: timeout}
}

func (c *StoreChecker) Name() string { return "catalog_store" }

func (c *StoreChecker) Check(ctx context.Context) *ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.store.Ping(ctx)
	h := &ComponentHealth{
		Name:        c.Name(),
		Status:      StatusHealthy,
		LastChecked: time.Now(),
		Metadata: map[string]any{
			"response_time_ms": time.Since(start).Milliseconds(),
		},
	}
	if err != nil {
		h.Status = StatusDegraded
		h.Message = err.Error()
	}
	return h
}
