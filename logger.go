package lensed

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// live devices receive logger updates.
var (
	devicesMu sync.Mutex
	devices   = make(map[*Device]struct{})
)

// SetLogger configures the logger for lensed and its device backends.
// By default, lensed produces no log output. Pass nil to restore silence.
//
// Log levels used by lensed:
//   - [slog.LevelDebug]: diagnostics (device notifications, build log,
//     buffer sizes, work-group plan)
//   - [slog.LevelInfo]: lifecycle events (device selected, search started
//     and finished)
//   - [slog.LevelWarn]: non-fatal issues (log sink close errors)
//
// Example:
//
//	lensed.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	devicesMu.Lock()
	defer devicesMu.Unlock()
	for d := range devices {
		propagateLogger(d, l)
	}
}

// Logger returns the current logger used by lensed.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to the device's backend if it
// implements loggerSetter.
func propagateLogger(d *Device, l *slog.Logger) {
	if ls, ok := d.Device.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

func trackDevice(d *Device) {
	devicesMu.Lock()
	defer devicesMu.Unlock()
	devices[d] = struct{}{}
	propagateLogger(d, Logger())
}

func untrackDevice(d *Device) {
	devicesMu.Lock()
	defer devicesMu.Unlock()
	delete(devices, d)
}
