package health

import (
	"context"
	"net/http"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Name        string         `json:"name"`
	Status      HealthStatus   `json:"status"`
	Message     string         `json:"message,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// SystemHealth represents the overall system health
type SystemHealth struct {
	Status        HealthStatus                `json:"status"`
	Timestamp     time.Time                   `json:"timestamp"`
	Uptime        string                      `json:"uptime"`
	Version       string                      `json:"version"`
	Components    map[string]*ComponentHealth `json:"components"`
	GoVersion     string                      `json:"go_version"`
	NumGoroutines int                         `json:"num_goroutines"`
	CheckCount    int64                       `json:"check_count"`
}

// HealthChecker defines the interface for component health checks
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) *ComponentHealth
}

var (
	checkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adfiller_health_check_duration_seconds",
			Help:    "Duration of health checks",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"component"},
	)
	componentStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "adfiller_component_health_status",
			Help: "Current component health status (1=healthy, 0.5=degraded, 0=unhealthy)",
		},
		[]string{"component"},
	)
)

// HealthManager runs registered checkers and aggregates their results.
type HealthManager struct {
	startTime    time.Time
	version      string
	logger       zerolog.Logger
	checkCounter atomic.Int64

	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

// NewHealthManager creates a new health manager
func NewHealthManager(version string, logger zerolog.Logger) *HealthManager {
	return &HealthManager{
		startTime: time.Now(),
		version:   version,
		checkers:  make(map[string]HealthChecker),
		logger:    logger.With().Str("component", "health").Logger(),
	}
}

// RegisterChecker registers a health checker
func (hm *HealthManager) RegisterChecker(checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checkers[checker.Name()] = checker
	hm.logger.Debug().Str("checker", checker.Name()).Msg("registered health checker")
}

// CheckHealth runs every checker. The overall status is the worst
// component status.
func (hm *HealthManager) CheckHealth(ctx context.Context) *SystemHealth {
	count := hm.checkCounter.Add(1)

	hm.mu.RLock()
	names := make([]string, 0, len(hm.checkers))
	for name := range hm.checkers {
		names = append(names, name)
	}
	checkers := make(map[string]HealthChecker, len(hm.checkers))
	for name, c := range hm.checkers {
		checkers[name] = c
	}
	hm.mu.RUnlock()
	slices.Sort(names)

	health := &SystemHealth{
		Status:        StatusHealthy,
		Timestamp:     time.Now(),
		Uptime:        time.Since(hm.startTime).Round(time.Second).String(),
		Version:       hm.version,
		Components:    make(map[string]*ComponentHealth, len(names)),
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		CheckCount:    count,
	}

	for _, name := range names {
		start := time.Now()
		ch := checkers[name].Check(ctx)
		checkDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		componentStatus.WithLabelValues(name).Set(statusValue(ch.Status))

		health.Components[name] = ch
		switch {
		case ch.Status == StatusUnhealthy:
			health.Status = StatusUnhealthy
		case ch.Status == StatusDegraded && health.Status == StatusHealthy:
			health.Status = StatusDegraded
		}
	}

	if health.Status != StatusHealthy {
		hm.logger.Warn().Str("overall_status", string(health.Status)).Msg("health check not healthy")
	}
	return health
}

func statusValue(s HealthStatus) float64 {
	switch s {
	case StatusHealthy:
		return 1.0
	case StatusDegraded:
		return 0.5
	default:
		return 0.0
	}
}

// HTTPHandler serves CheckHealth as JSON; unhealthy maps to 503.
func (hm *HealthManager) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := hm.CheckHealth(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if health.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(health); err != nil {
			hm.logger.Error().Err(err).Msg("encode health response")
		}
	})
}
