// Package log provides serialflo's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Records are routed through log/slog via
// a bridge handler that feeds our own formatter and outputs, so every
// component prints the same shape whether it logs through the facade or a
// library writes to the standard logger.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("drain"), log.Str("key", "orderA"))
//	l.Info("drain finished", log.Int("processed", 3))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (level, text or json
// format, console/file/null outputs, redacted keys).
//
// # Interop
//
// RedirectStdLog sends the standard library logger through a Logger. The
// Redis driver's internal logger is redirected by the redisstore package.
package log
