// Package logging provides a minimal logging interface and adapters for twinmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the class catalog, sessions and both runtimes use for diagnostics. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter and TwinLogger wrapping Go's structured logging
//   - ZerologAdapter for applications already standardized on zerolog
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	mesh := twinmesh.New(func(o *twinmesh.Options) { o.Logger = logger })
//
// Key/value args follow the slog convention: alternating keys and values.
package logging
