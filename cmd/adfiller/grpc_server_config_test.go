package main

import (
	"testing"

	"github.com/kelseyhightower/envconfig"
)

// TestGRPCServerConfigEnvVars verifies environment variable parsing for gRPC server options
func TestGRPCServerConfigEnvVars(t *testing.T) {
	t.Setenv("ADFILLER_GRPC_MAX_RECV_MSG_SIZE", "33554432")
	t.Setenv("ADFILLER_GRPC_MAX_SEND_MSG_SIZE", "16777216")
	t.Setenv("ADFILLER_GRPC_INITIAL_WINDOW_SIZE", "2097152")
	t.Setenv("ADFILLER_GRPC_INITIAL_CONN_WINDOW_SIZE", "4194304")
	t.Setenv("ADFILLER_GRPC_MAX_CONCURRENT_STREAMS", "500")

	var cfg Config
	if err := envconfig.Process("ADFILLER", &cfg); err != nil {
		t.Fatalf("Failed to process config: %v", err)
	}

	if cfg.GRPCMaxRecvMsgSize != 33554432 {
		t.Errorf("GRPCMaxRecvMsgSize = %d, want 33554432", cfg.GRPCMaxRecvMsgSize)
	}
	if cfg.GRPCMaxSendMsgSize != 16777216 {
		t.Errorf("GRPCMaxSendMsgSize = %d, want 16777216", cfg.GRPCMaxSendMsgSize)
	}
	if cfg.GRPCInitialWindowSize != 2097152 {
		t.Errorf("GRPCInitialWindowSize = %d, want 2097152", cfg.GRPCInitialWindowSize)
	}
	if cfg.GRPCInitialConnWindowSize != 4194304 {
		t.Errorf("GRPCInitialConnWindowSize = %d, want 4194304", cfg.GRPCInitialConnWindowSize)
	}
	if cfg.GRPCMaxConcurrentStreams != 500 {
		t.Errorf("GRPCMaxConcurrentStreams = %d, want 500", cfg.GRPCMaxConcurrentStreams)
	}
}

// TestGRPCServerConfigDefaults verifies default values match DefaultConfig
func TestGRPCServerConfigDefaults(t *testing.T) {
	var cfg Config
	if err := envconfig.Process("ADFILLER", &cfg); err != nil {
		t.Fatalf("Failed to process config: %v", err)
	}

	want := DefaultConfig()
	if cfg.GRPCMaxRecvMsgSize != want.GRPCMaxRecvMsgSize {
		t.Errorf("GRPCMaxRecvMsgSize default = %d, want %d", cfg.GRPCMaxRecvMsgSize, want.GRPCMaxRecvMsgSize)
	}
	if cfg.GRPCMaxSendMsgSize != want.GRPCMaxSendMsgSize {
		t.Errorf("GRPCMaxSendMsgSize default = %d, want %d", cfg.GRPCMaxSendMsgSize, want.GRPCMaxSendMsgSize)
	}
	if cfg.GRPCInitialWindowSize != want.GRPCInitialWindowSize {
		t.Errorf("GRPCInitialWindowSize default = %d, want %d", cfg.GRPCInitialWindowSize, want.GRPCInitialWindowSize)
	}
	if cfg.GRPCMaxConcurrentStreams != want.GRPCMaxConcurrentStreams {
		t.Errorf("GRPCMaxConcurrentStreams default = %d, want %d", cfg.GRPCMaxConcurrentStreams, want.GRPCMaxConcurrentStreams)
	}
	if cfg.KeepAliveTime != want.KeepAliveTime {
		t.Errorf("KeepAliveTime default = %v, want %v", cfg.KeepAliveTime, want.KeepAliveTime)
	}
}

func TestBuildGRPCServerOptions(t *testing.T) {
	cfg := DefaultConfig()
	opts := cfg.BuildGRPCServerOptions()
	if len(opts) != 7 {
		t.Errorf("BuildGRPCServerOptions() returned %d options, want 7", len(opts))
	}
}

func TestValidateGRPCConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero streams", func(c *Config) { c.GRPCMaxConcurrentStreams = 0 }, true},
		{"negative window", func(c *Config) { c.GRPCInitialWindowSize = -1 }, true},
		{"negative conn window", func(c *Config) { c.GRPCInitialConnWindowSize = -1 }, true},
		{"negative recv", func(c *Config) { c.GRPCMaxRecvMsgSize = -1 }, true},
		{"negative send", func(c *Config) { c.GRPCMaxSendMsgSize = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.ValidateGRPCConfig(); (err != nil) != tt.wantErr {
				t.Errorf("ValidateGRPCConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
