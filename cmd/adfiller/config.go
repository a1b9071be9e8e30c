package main

import (
	"errors"
	"time"

	"google.golang.org/grpc/keepalive"
)

// Config is read from ADFILLER_* environment variables, optionally seeded
// from a .env file.
type Config struct {
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:"127.0.0.1:3000"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:"127.0.0.1:9090"`

	RedisURL             string        `envconfig:"REDIS_URL" default:"redis://127.0.0.1:6379/0"`
	CatalogKey           string        `envconfig:"CATALOG_KEY" default:"ads:all"`
	KeyspacePattern      string        `envconfig:"KEYSPACE_PATTERN" default:"__keyspace@0__:ads:*"`
	EnableKeyspaceEvents bool          `envconfig:"ENABLE_KEYSPACE_EVENTS" default:"false"`
	RetryInterval        time.Duration `envconfig:"RETRY_INTERVAL" default:"5s"`

	// Categories is the known category universe, comma separated.
	Categories   []uint32      `envconfig:"CATEGORIES"`
	TickInterval time.Duration `envconfig:"TICK_INTERVAL" default:"5s"`

	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	AuthToken       string        `envconfig:"AUTH_TOKEN"`
	RateLimitRPS    int           `envconfig:"RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst  int           `envconfig:"RATE_LIMIT_BURST" default:"0"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	KeepAliveTime                time.Duration `envconfig:"KEEPALIVE_TIME" default:"30s"`
	KeepAliveTimeout             time.Duration `envconfig:"KEEPALIVE_TIMEOUT" default:"10s"`
	KeepAliveMinTime             time.Duration `envconfig:"KEEPALIVE_MIN_TIME" default:"10s"`
	KeepAlivePermitWithoutStream bool          `envconfig:"KEEPALIVE_PERMIT_WITHOUT_STREAM" default:"true"`

	GRPCMaxRecvMsgSize        int    `envconfig:"GRPC_MAX_RECV_MSG_SIZE" default:"4194304"`
	GRPCMaxSendMsgSize        int    `envconfig:"GRPC_MAX_SEND_MSG_SIZE" default:"16777216"`
	GRPCInitialWindowSize     int32  `envconfig:"GRPC_INITIAL_WINDOW_SIZE" default:"1048576"`
	GRPCInitialConnWindowSize int32  `envconfig:"GRPC_INITIAL_CONN_WINDOW_SIZE" default:"1048576"`
	GRPCMaxConcurrentStreams  uint32 `envconfig:"GRPC_MAX_CONCURRENT_STREAMS" default:"250"`
}

// Config validation errors
var (
	ErrInvalidListenAddr      = errors.New("listen_addr cannot be empty")
	ErrInvalidMetricsAddr     = errors.New("metrics_addr cannot be empty")
	ErrInvalidRedisURL        = errors.New("redis_url cannot be empty")
	ErrInvalidCatalogKey      = errors.New("catalog_key cannot be empty")
	ErrInvalidPattern         = errors.New("keyspace_pattern cannot be empty")
	ErrInvalidRetryInterval   = errors.New("retry_interval must be positive")
	ErrInvalidTickInterval    = errors.New("tick_interval must be positive")
	ErrInvalidRequestTimeout  = errors.New("request_timeout must be positive")
	ErrInvalidRateLimit       = errors.New("rate_limit_rps and rate_limit_burst must not be negative")
	ErrInvalidLogFormat       = errors.New("log_format must be 'json', 'console' or 'text'")
	ErrInvalidLogLevel        = errors.New("log_level must be debug, info, warn, or error")
	ErrInvalidKeepAliveTime   = errors.New("keepalive_time must be positive")
	ErrInvalidShutdownTimeout = errors.New("shutdown_timeout must be positive")
)

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	switch {
	case cfg.ListenAddr == "":
		return ErrInvalidListenAddr
	case cfg.MetricsAddr == "":
		return ErrInvalidMetricsAddr
	case cfg.RedisURL == "":
		return ErrInvalidRedisURL
	case cfg.CatalogKey == "":
		return ErrInvalidCatalogKey
	case cfg.KeyspacePattern == "":
		return ErrInvalidPattern
	case cfg.RetryInterval <= 0:
		return ErrInvalidRetryInterval
	case cfg.TickInterval <= 0:
		return ErrInvalidTickInterval
	case cfg.RequestTimeout <= 0:
		return ErrInvalidRequestTimeout
	case cfg.ShutdownTimeout <= 0:
		return ErrInvalidShutdownTimeout
	case cfg.RateLimitRPS < 0 || cfg.RateLimitBurst < 0:
		return ErrInvalidRateLimit
	case cfg.LogFormat != "json" && cfg.LogFormat != "console" && cfg.LogFormat != "text":
		return ErrInvalidLogFormat
	case cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" && cfg.LogLevel != "error":
		return ErrInvalidLogLevel
	case cfg.KeepAliveTime <= 0:
		return ErrInvalidKeepAliveTime
	}
	return cfg.ValidateGRPCConfig()
}

// BuildKeepaliveParams creates gRPC keepalive server parameters from config
func BuildKeepaliveParams(cfg *Config) keepalive.ServerParameters {
	return keepalive.ServerParameters{
		Time:    cfg.KeepAliveTime,
		Timeout: cfg.KeepAliveTimeout,
	}
}

// BuildKeepalivePolicy creates gRPC keepalive enforcement policy from config
func BuildKeepalivePolicy(cfg *Config) keepalive.EnforcementPolicy {
	return keepalive.EnforcementPolicy{
		MinTime:             cfg.KeepAliveMinTime,
		PermitWithoutStream: cfg.KeepAlivePermitWithoutStream,
	}
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		ListenAddr:                   "127.0.0.1:3000",
		MetricsAddr:                  "127.0.0.1:9090",
		RedisURL:                     "redis://127.0.0.1:6379/0",
		CatalogKey:                   "ads:all",
		KeyspacePattern:              "__keyspace@0__:ads:*",
		RetryInterval:                5 * time.Second,
		TickInterval:                 5 * time.Second,
		RequestTimeout:               10 * time.Second,
		ShutdownTimeout:              10 * time.Second,
		LogFormat:                    "json",
		LogLevel:                     "info",
		KeepAliveTime:                30 * time.Second,
		KeepAliveTimeout:             10 * time.Second,
		KeepAliveMinTime:             10 * time.Second,
		KeepAlivePermitWithoutStream: true,
		GRPCMaxRecvMsgSize:           4 << 20,
		GRPCMaxSendMsgSize:           16 << 20,
		GRPCInitialWindowSize:        1 << 20,
		GRPCInitialConnWindowSize:    1 << 20,
		GRPCMaxConcurrentStreams:     250,
	}
}
