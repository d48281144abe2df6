package config

import "time"

// Default configuration values.
const (
	DefaultListenAddr = "127.0.0.1:6379"
	DefaultMaxConns   = 1024

	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 5 * time.Minute

	DefaultSnapshotPath = "./keva.snap"

	DefaultSweepInterval   = 100 * time.Millisecond
	DefaultSweepSampleSize = 20

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			ListenAddr:   DefaultListenAddr,
			MaxConns:     DefaultMaxConns,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
		},
		Storage: StorageSection{
			SnapshotPath: DefaultSnapshotPath,
		},
		Expiry: ExpirySection{
			SweepInterval:   DefaultSweepInterval,
			SweepSampleSize: DefaultSweepSampleSize,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
