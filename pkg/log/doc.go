// Package log provides flosweep's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Internally it is backed by the standard
// library slog via a custom handler that routes records through this
// package's formatters and outputs.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("expiry"), log.Str("topic", "orders"))
//	l.Info("sweep started", log.Int64("backlog", 120))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config: text or JSON
// formatting, console or file output, key redaction and per-message
// sampling.
//
// # Interop
//
// ToStdLogger and RedirectStdLog adapt the facade for libraries that
// write through the standard library's *log.Logger.
package log
