package mux

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Lines is the number of select lines on a 16:1 analog multiplexer.
const Lines = 4

// Selector drives the select lines of one or more analog multiplexers sharing
// the same select bus. Line 0 carries bit 0 of the channel index.
type Selector struct {
	lines [Lines]gpio.PinOut
}

func New(lines [Lines]gpio.PinOut) (*Selector, error) {
	for i, l := range lines {
		if l == nil {
			return nil, fmt.Errorf("mux: select line %d not set", i)
		}
	}
	return &Selector{lines: lines}, nil
}

// Open looks up the select lines by name in the gpio registry (e.g. "GPIO2").
func Open(names [Lines]string) (*Selector, error) {
	var lines [Lines]gpio.PinOut
	for i, n := range names {
		p := gpioreg.ByName(n)
		if p == nil {
			return nil, fmt.Errorf("mux: no gpio named %q for select line %d", n, i)
		}
		lines[i] = p
	}
	return New(lines)
}

// Select drives the select lines with the low four bits of ch. Higher bits are
// dropped, so indices past 15 wrap.
func (s *Selector) Select(ch uint8) error {
	for i, l := range s.lines {
		lvl := gpio.Level((ch>>uint(i))&0x01 == 1)
		if err := l.Out(lvl); err != nil {
			return fmt.Errorf("mux: select line %d: %w", i, err)
		}
	}
	return nil
}

func (s *Selector) String() string {
	return fmt.Sprintf("mux{%s,%s,%s,%s}", s.lines[0], s.lines[1], s.lines[2], s.lines[3])
}
