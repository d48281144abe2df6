package config

import (
	"errors"
	"net"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if cfg.Server.ListenAddr == "" {
		return errors.New("server.listen_addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Server.ListenAddr); err != nil {
		return errors.New("server.listen_addr is not host:port: " + err.Error())
	}
	if cfg.Server.MaxConns < 0 {
		return errors.New("server.max_conns must not be negative")
	}
	if cfg.Server.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}

	if cfg.Storage.SnapshotPath == "" {
		return errors.New("storage.snapshot_path is required")
	}
	if cfg.Storage.SnapshotInterval < 0 {
		return errors.New("storage.snapshot_interval must not be negative")
	}

	if cfg.Expiry.SweepInterval <= 0 {
		return errors.New("expiry.sweep_interval must be positive")
	}
	if cfg.Expiry.SweepSampleSize <= 0 {
		return errors.New("expiry.sweep_sample_size must be positive")
	}

	return nil
}
