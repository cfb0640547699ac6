//go:build !unix

// Package capture redirects the process standard output at the file
// descriptor level. On this platform redirection is not supported and
// output goes to the original stdout.
package capture

import "os"

// Redirect is an active stdout redirection.
type Redirect struct{}

// Stdout is a no-op on this platform.
func Stdout(*os.File) (*Redirect, error) { return &Redirect{}, nil }

// Restore is a no-op on this platform.
func (*Redirect) Restore() error { return nil }
