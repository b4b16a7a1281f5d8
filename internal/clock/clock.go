package clock

import (
	"sync"
	"time"
)

// Millis is a millisecond timestamp since boot. It wraps after ~49.7 days;
// compare timestamps only through Since.
type Millis uint32

// Since returns the elapsed time from earlier to m. Unsigned subtraction keeps
// the result correct across a single wraparound.
func (m Millis) Since(earlier Millis) Millis {
	return m - earlier
}

// Clock reports the current monotonic time.
type Clock interface {
	Now() Millis
}

// Host is a Clock backed by the process monotonic clock.
type Host struct {
	start time.Time
}

func NewHost() *Host {
	return &Host{start: time.Now()}
}

func (h *Host) Now() Millis {
	return Millis(time.Since(h.start).Milliseconds())
}

// Manual is a Clock that only moves when told to. Used by the simulator and tests.
type Manual struct {
	mu  sync.Mutex
	now Millis
}

func NewManual(start Millis) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() Millis {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set jumps to an absolute time.
func (m *Manual) Set(t Millis) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (m *Manual) Advance(d Millis) Millis {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += d
	return m.now
}
