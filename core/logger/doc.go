// Package logger provides slog attribute helpers shared across the library.
//
// Helpers use the empty Attr pattern for nil safety, so call sites never need
// explicit nil checks:
//
//	log.Warn("logout notification failed", logger.Error(err))
//
// A nil error or empty identifier produces an empty attribute that slog
// silently drops.
package logger
