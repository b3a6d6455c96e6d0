package process

import "time"

// pollInterval is how often WaitExit checks the process.
const pollInterval = 50 * time.Millisecond

// WaitExit blocks until pid is gone or grace elapses.
// Reports whether the process exited in time.
func WaitExit(pid int, grace time.Duration) bool {
	if pid <= 0 {
		return true
	}
	deadline := time.Now().Add(grace)
	for Alive(pid) {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
	return true
}
