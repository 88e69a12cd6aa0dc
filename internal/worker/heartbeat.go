package worker

import (
	"sync/atomic"
	"time"
)

// Heartbeat records the unix timestamp of a worker's last successful tick,
// so the health endpoint can report readiness that depends on background
// worker liveness rather than just the HTTP process being up.
type Heartbeat struct {
	last atomic.Int64
}

// Touch records now as the time of a successful tick.
func (h *Heartbeat) Touch() {
	h.last.Store(time.Now().UTC().Unix())
}

// LastTick returns the last recorded tick time, or the zero Time if Touch
// has never been called.
func (h *Heartbeat) LastTick() time.Time {
	sec := h.last.Load()
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
