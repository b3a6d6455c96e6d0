//go:build !windows

package process

import (
	"errors"
	"syscall"
)

// Alive reports whether a process with the given PID exists.
// Signal 0 performs the permission and existence checks without delivering
// anything; EPERM still means the process exists.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
