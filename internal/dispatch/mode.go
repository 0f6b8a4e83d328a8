package dispatch

import "sync/atomic"

// Mode is the process-wide chat-mode flag. The zero value is inactive.
//
// Reads and writes are atomic, but a handler that read the flag before another
// handler changed it keeps acting on the old value.
type Mode struct {
	active atomic.Bool
}

// Active reports whether chat mode is on.
func (m *Mode) Active() bool {
	return m.active.Load()
}

// Set stores the flag and returns the previous value.
func (m *Mode) Set(active bool) bool {
	return m.active.Swap(active)
}
