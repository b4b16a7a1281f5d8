// Package params reads the harp-wide control parameters once per loop
// iteration.
package params

import (
	"fmt"

	"periph.io/x/conn/v3/analog"

	"github.com/coreman2200/funtimes-touchharp/internal/clock"
)

// Params are applied to every string before a scan.
type Params struct {
	Threshold uint32
	Sustain   clock.Millis
}

// Source yields the current parameters.
type Source interface {
	Read() (Params, error)
}

// Fixed always returns the same parameters. Used when no pots are wired.
type Fixed Params

func (f Fixed) Read() (Params, error) { return Params(f), nil }

// Range is an inclusive output interval for a pot.
type Range struct {
	Min, Max int64
}

// ADC maps up to two potentiometers onto threshold and sustain. A nil pin
// leaves that parameter at its Fallback value.
type ADC struct {
	ThresholdPin analog.PinADC
	SustainPin   analog.PinADC
	Threshold    Range
	Sustain      Range
	Fallback     Params
}

func (a *ADC) Read() (Params, error) {
	p := a.Fallback
	if a.ThresholdPin != nil {
		th, err := readMapped(a.ThresholdPin, a.Threshold)
		if err != nil {
			return Params{}, fmt.Errorf("threshold pot: %w", err)
		}
		p.Threshold = uint32(th)
	}
	if a.SustainPin != nil {
		su, err := readMapped(a.SustainPin, a.Sustain)
		if err != nil {
			return Params{}, fmt.Errorf("sustain pot: %w", err)
		}
		p.Sustain = clock.Millis(su)
	}
	return p, nil
}

func readMapped(p analog.PinADC, out Range) (int64, error) {
	s, err := p.Read()
	if err != nil {
		return 0, err
	}
	lo, hi := p.Range()
	return Map(int64(s.Raw), int64(lo.Raw), int64(hi.Raw), out.Min, out.Max), nil
}

// Map rescales x linearly from [inLo, inHi] to [outLo, outHi], clamping to
// the output interval. A degenerate input range yields outLo.
func Map(x, inLo, inHi, outLo, outHi int64) int64 {
	if inHi == inLo {
		return outLo
	}
	y := outLo + (x-inLo)*(outHi-outLo)/(inHi-inLo)
	lo, hi := outLo, outHi
	if lo > hi {
		lo, hi = hi, lo
	}
	if y < lo {
		return lo
	}
	if y > hi {
		return hi
	}
	return y
}
