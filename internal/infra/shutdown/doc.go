// Package shutdown provides graceful shutdown for keva.
//
// This package handles process termination signals:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Timeout-based forced shutdown
//   - Cleanup hook registration, run in reverse order
package shutdown
