// Package segevent emits structured observability events for the segment
// layer, using the standard library's log/slog.
//
// Only allocation success/failure, frees, and shield transitions log
// anything. SegOf never touches this package; SetGrey and SetSummary
// call into it only when they raise or lower a shield, and those events
// are logged at Debug level, which the default Info-level logger drops.
package segevent

import (
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetLogger overrides the package-level logger, e.g. to capture events in
// tests or redirect them to JSON output for the CLI's --json mode.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// AllocOK logs a successful segment allocation.
func AllocOK(className string, base uintptr, size uintptr) {
	logger.Info("segment allocated", "class", className, "base", base, "size", size)
}

// AllocFail logs a failed segment allocation.
func AllocFail(className string, size uintptr, err error) {
	logger.Warn("segment allocation failed", "class", className, "size", size, "error", err)
}

// Freed logs a segment being returned to the arena.
func Freed(className string, base uintptr, size uintptr) {
	logger.Info("segment freed", "class", className, "base", base, "size", size)
}

// ShieldRaised logs a shield raise.
func ShieldRaised(base uintptr, mode string) {
	logger.Debug("shield raised", "base", base, "mode", mode)
}

// ShieldLowered logs a shield lower.
func ShieldLowered(base uintptr, mode string) {
	logger.Debug("shield lowered", "base", base, "mode", mode)
}
