// Package main provides the entry point for keva-server.
//
// The server is the keva service process that provides:
//
//   - Redis-compatible wire protocol over TCP
//   - Per-key expiration with lazy and active eviction
//   - Snapshot persistence with restore on startup
//   - Optional Prometheus metrics endpoint
//
// Usage:
//
//	keva-server [flags]
//	keva-server --config /path/to/config.yaml
//
// The server loads configuration, restores the latest snapshot if one
// exists, and starts listening.
package main
