package harp

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-touchharp/internal/clock"
	"github.com/coreman2200/funtimes-touchharp/internal/scale"
	"github.com/coreman2200/funtimes-touchharp/internal/touch"
)

// Options are the harp-wide settings applied to every string at construction.
type Options struct {
	Sustain  clock.Millis
	Velocity uint8
	Channel  uint8
	Feedback Feedback
	// Slots maps string index to light slot; nil means slot i for string i.
	// Use NoSlot for strings without a light.
	Slots  []int
	Logger *zerolog.Logger
}

// Ensemble owns the strings of one harp and scans them in index order.
type Ensemble struct {
	strings []*String
	scale   scale.Table
}

// New binds channel i to scale pitch i. The channel and scale counts must match.
func New(tab scale.Table, channels []*touch.Channel, sink Sink, o Options) (*Ensemble, error) {
	if len(channels) == 0 {
		return nil, errors.New("harp: no strings")
	}
	if len(channels) != tab.Len() {
		return nil, fmt.Errorf("harp: %d strings but scale %s has %d notes", len(channels), tab.Name(), tab.Len())
	}
	if o.Slots != nil && len(o.Slots) != len(channels) {
		return nil, fmt.Errorf("harp: %d light slots for %d strings", len(o.Slots), len(channels))
	}
	if sink == nil {
		return nil, errors.New("harp: nil sound sink")
	}
	if o.Sustain == 0 {
		o.Sustain = DefaultSustain
	}
	if o.Velocity == 0 {
		o.Velocity = DefaultVelocity
	}

	e := &Ensemble{scale: tab, strings: make([]*String, len(channels))}
	for i, ch := range channels {
		slot := i
		if o.Slots != nil {
			slot = o.Slots[i]
		}
		e.strings[i] = NewString(ch, sink, StringConfig{
			Index:    i,
			Pitch:    tab.Pitch(i),
			Velocity: o.Velocity,
			Channel:  o.Channel,
			Sustain:  o.Sustain,
			Slot:     slot,
			Feedback: o.Feedback,
			Logger:   o.Logger,
		})
	}
	return e, nil
}

// ApplyGlobalParameters pushes sensitivity and sustain to every string.
func (e *Ensemble) ApplyGlobalParameters(threshold uint32, sustain clock.Millis) {
	for _, s := range e.strings {
		s.SetThreshold(threshold)
		s.SetSustain(sustain)
	}
}

// Scan updates every string once, in index order. A failing string does not
// stop the others; all failures are joined into the returned error.
func (e *Ensemble) Scan(now clock.Millis) error {
	var errs []error
	for i, s := range e.strings {
		if err := s.Update(now); err != nil {
			errs = append(errs, fmt.Errorf("string %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// AnyTouched reports whether at least one string is currently being touched.
func (e *Ensemble) AnyTouched() bool {
	for _, s := range e.strings {
		if s.ch.Touched() {
			return true
		}
	}
	return false
}

// Silence stops every sounding string.
func (e *Ensemble) Silence(now clock.Millis) {
	for _, s := range e.strings {
		s.Silence(now)
	}
}

func (e *Ensemble) Len() int           { return len(e.strings) }
func (e *Ensemble) At(i int) *String   { return e.strings[i] }
func (e *Ensemble) Scale() scale.Table { return e.scale }
