//go:build windows

package process

import "os"

// Alive reports whether a process with the given PID exists.
// FindProcess opens a handle on Windows and fails for unknown PIDs.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}
