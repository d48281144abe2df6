package config

import (
	"strings"
	"testing"
)

func TestVerify_DefaultIsValid(t *testing.T) {
	if err := Verify(Default()); err != nil {
		t.Fatalf("Verify(Default()) = %v", err)
	}
}

func TestVerify_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantMsg string
	}{
		{
			name:    "missing listen addr",
			mutate:  func(c *ServerConfig) { c.Server.ListenAddr = "" },
			wantMsg: "listen_addr",
		},
		{
			name:    "listen addr without port",
			mutate:  func(c *ServerConfig) { c.Server.ListenAddr = "localhost" },
			wantMsg: "listen_addr",
		},
		{
			name:    "negative max conns",
			mutate:  func(c *ServerConfig) { c.Server.MaxConns = -1 },
			wantMsg: "max_conns",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *ServerConfig) { c.Server.RateLimit = -5 },
			wantMsg: "rate_limit",
		},
		{
			name:    "missing snapshot path",
			mutate:  func(c *ServerConfig) { c.Storage.SnapshotPath = "" },
			wantMsg: "snapshot_path",
		},
		{
			name:    "negative snapshot interval",
			mutate:  func(c *ServerConfig) { c.Storage.SnapshotInterval = -1 },
			wantMsg: "snapshot_interval",
		},
		{
			name:    "zero sweep interval",
			mutate:  func(c *ServerConfig) { c.Expiry.SweepInterval = 0 },
			wantMsg: "sweep_interval",
		},
		{
			name:    "zero sweep sample size",
			mutate:  func(c *ServerConfig) { c.Expiry.SweepSampleSize = 0 },
			wantMsg: "sweep_sample_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify accepted invalid config")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}
