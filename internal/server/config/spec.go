// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for keva-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Expiry  ExpirySection  `koanf:"expiry"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the TCP listener and connection limits.
type ServerSection struct {
	// ListenAddr is the TCP bind address for the wire protocol.
	ListenAddr string `koanf:"listen_addr"`

	// MaxConns caps concurrent client connections. New connections past
	// the cap are rejected with an error reply; existing sessions are
	// unaffected. 0 disables the cap.
	MaxConns int `koanf:"max_conns"`

	// ReadTimeout bounds reading one command once its first byte arrived.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing one reply.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout bounds the wait for the next command.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// RateLimit is the maximum number of commands per second per client
	// IP. 0 disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// StorageSection configures snapshot persistence.
type StorageSection struct {
	// SnapshotPath is the canonical snapshot file. An absent file on
	// first run means an empty starting dataset.
	SnapshotPath string `koanf:"snapshot_path"`

	// SnapshotInterval triggers periodic dumps. 0 means dumps happen
	// only via SAVE/BGSAVE and at shutdown.
	SnapshotInterval time.Duration `koanf:"snapshot_interval"`
}

// ExpirySection configures the active expiration sweep.
type ExpirySection struct {
	SweepInterval   time.Duration `koanf:"sweep_interval"`
	SweepSampleSize int           `koanf:"sweep_sample_size"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	// Addr serves /metrics when non-empty.
	Addr string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
