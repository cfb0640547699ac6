//go:build unix

// Package capture redirects the process standard output at the file
// descriptor level, so output written by foreign code that bypasses
// os.Stdout is captured as well.
package capture

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Redirect is an active stdout redirection.
type Redirect struct {
	saved int
}

// Stdout points file descriptor 1 at f until Restore is called.
func Stdout(f *os.File) (*Redirect, error) {
	_ = os.Stdout.Sync()
	saved, err := unix.Dup(unix.Stdout)
	if err != nil {
		return nil, fmt.Errorf("capture: save stdout: %w", err)
	}
	if err := dupTo(int(f.Fd()), unix.Stdout); err != nil {
		_ = unix.Close(saved)
		return nil, fmt.Errorf("capture: redirect stdout: %w", err)
	}
	return &Redirect{saved: saved}, nil
}

// Restore points file descriptor 1 back at the original stdout. Calling
// Restore more than once is a no-op.
func (r *Redirect) Restore() error {
	if r == nil || r.saved < 0 {
		return nil
	}
	_ = os.Stdout.Sync()
	err := dupTo(r.saved, unix.Stdout)
	_ = unix.Close(r.saved)
	r.saved = -1
	if err != nil {
		return fmt.Errorf("capture: restore stdout: %w", err)
	}
	return nil
}
