// Package touch de-glitches raw capacitance readings into a touched/untouched
// decision for one logical input.
package touch

import (
	"fmt"

	"github.com/coreman2200/funtimes-touchharp/internal/clock"
)

const (
	// BufferSize is how many samples are averaged.
	BufferSize = 10
	// DefaultThreshold is the averaged reading above which a channel counts as touched.
	DefaultThreshold uint32 = 5000
	// DefaultInterval is the minimum time between two samples of the same channel.
	DefaultInterval clock.Millis = 1
)

// Sampler reads one raw capacitance value from a physical sense pin.
type Sampler interface {
	Read(pin int) (uint32, error)
}

// Selector routes a multiplexer channel onto its shared sense pin.
type Selector interface {
	Select(ch uint8) error
}

// Config describes where a Channel reads from.
type Config struct {
	Pin int
	// Mux is nil for a directly wired pin; otherwise Line is selected on it
	// before every read.
	Mux       Selector
	Line      uint8
	Interval  clock.Millis
	Threshold uint32
}

// Channel keeps a ring buffer of the last BufferSize raw readings with an
// incrementally maintained sum, so both Refresh and Average are O(1).
type Channel struct {
	sampler   Sampler
	pin       int
	mux       Selector
	line      uint8
	interval  clock.Millis
	threshold uint32

	samples    [BufferSize]uint32
	sum        uint64
	index      int
	lastSample clock.Millis
}

func NewChannel(s Sampler, c Config) *Channel {
	return &Channel{
		sampler:   s,
		pin:       c.Pin,
		mux:       c.Mux,
		line:      c.Line,
		interval:  c.Interval,
		threshold: c.Threshold,
	}
}

// Refresh takes one sample if at least the sampling interval has passed since
// the previous one, and reports whether it did. A failed select or read stores
// nothing and leaves the sample time untouched, so the next call tries again.
func (c *Channel) Refresh(now clock.Millis) (bool, error) {
	if now.Since(c.lastSample) < c.interval {
		return false, nil
	}
	if c.mux != nil {
		if err := c.mux.Select(c.line); err != nil {
			return false, fmt.Errorf("touch: pin %d line %d: %w", c.pin, c.line, err)
		}
	}
	val, err := c.sampler.Read(c.pin)
	if err != nil {
		return false, fmt.Errorf("touch: read pin %d: %w", c.pin, err)
	}
	c.lastSample = now

	c.sum -= uint64(c.samples[c.index])
	c.samples[c.index] = val
	c.sum += uint64(val)
	c.index = (c.index + 1) % BufferSize
	return true, nil
}

// Average is the de-glitched reading.
func (c *Channel) Average() uint32 {
	return uint32(c.sum / BufferSize)
}

func (c *Channel) Touched() bool {
	return c.Average() > c.threshold
}

func (c *Channel) SetThreshold(t uint32) {
	c.threshold = t
}

func (c *Channel) Threshold() uint32 {
	return c.threshold
}

func (c *Channel) Pin() int {
	return c.pin
}

// Line returns the multiplexer channel and whether the pin is multiplexed at all.
func (c *Channel) Line() (uint8, bool) {
	return c.line, c.mux != nil
}

func (c *Channel) String() string {
	if c.mux != nil {
		return fmt.Sprintf("touch{pin:%d line:%d}", c.pin, c.line)
	}
	return fmt.Sprintf("touch{pin:%d}", c.pin)
}
