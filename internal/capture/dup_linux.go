//go:build linux

package capture

import "golang.org/x/sys/unix"

// dupTo makes newfd a copy of oldfd. Linux on arm64 and riscv64 has no
// dup2 system call.
func dupTo(oldfd, newfd int) error {
	return unix.Dup3(oldfd, newfd, 0)
}
