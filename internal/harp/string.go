// Package harp turns touch channels into plucked strings.
package harp

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-touchharp/internal/clock"
	"github.com/coreman2200/funtimes-touchharp/internal/touch"
)

const (
	DefaultSustain  clock.Millis = 2000
	DefaultVelocity uint8        = 100
	// NoSlot marks a string without a light.
	NoSlot = -1
)

// State of a string's pluck detector. The zero value is not a valid state.
type State uint8

const (
	Idle State = iota + 1
	Armed
	Sounding
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Sounding:
		return "sounding"
	default:
		return "invalid"
	}
}

// Sink receives note triggers. Calls are fire-and-forget.
type Sink interface {
	NoteOn(pitch, velocity, channel uint8)
	NoteOff(pitch, velocity, channel uint8)
}

// Feedback is the optional light attached to a string.
type Feedback interface {
	Attack(slot int, now clock.Millis)
	Release(slot int, now clock.Millis)
	// Decay advances the slot's fade; called on every update.
	Decay(slot int, now clock.Millis)
}

// StringConfig holds the per-string settings fixed at construction.
type StringConfig struct {
	Index    int
	Pitch    uint8
	Velocity uint8
	// Channel is the 0-based MIDI channel.
	Channel  uint8
	Sustain  clock.Millis
	Slot     int
	Feedback Feedback
	Logger   *zerolog.Logger
}

// String detects plucks on one touch channel: touching arms it, releasing
// sounds it, touching again damps it, and it rings out after Sustain.
type String struct {
	index    int
	ch       *touch.Channel
	state    State
	onTime   clock.Millis
	pitch    uint8
	velocity uint8
	channel  uint8
	sustain  clock.Millis

	sink Sink
	fb   Feedback
	slot int
	log  zerolog.Logger
}

func NewString(ch *touch.Channel, sink Sink, c StringConfig) *String {
	s := &String{
		index:    c.Index,
		ch:       ch,
		state:    Idle,
		pitch:    c.Pitch,
		velocity: c.Velocity,
		channel:  c.Channel,
		sustain:  c.Sustain,
		sink:     sink,
		fb:       c.Feedback,
		slot:     c.Slot,
		log:      log.Logger,
	}
	if c.Logger != nil {
		s.log = *c.Logger
	}
	if s.fb == nil {
		s.slot = NoSlot
	}
	return s
}

// Update samples the touch channel and applies at most one transition.
// A sampling error is returned after the transition is evaluated, so a
// flaky sensor never stops a sounding note from timing out.
func (s *String) Update(now clock.Millis) error {
	_, err := s.ch.Refresh(now)

	switch s.state {
	case Idle:
		if s.ch.Touched() {
			s.state = Armed
		}
	case Armed:
		if !s.ch.Touched() {
			s.noteOn(now)
			s.state = Sounding
			s.onTime = now
		}
	case Sounding:
		if s.ch.Touched() {
			// damp
			s.noteOff(now)
			s.state = Armed
			s.onTime = 0
		} else if now.Since(s.onTime) > s.sustain {
			s.noteOff(now)
			s.state = Idle
			s.onTime = 0
		}
	default:
		s.log.Warn().Int("string", s.index).Uint8("state", uint8(s.state)).Msg("string in unknown state; holding")
	}

	if s.slot != NoSlot {
		s.fb.Decay(s.slot, now)
	}
	return err
}

func (s *String) noteOn(now clock.Millis) {
	s.log.Debug().Int("string", s.index).Uint8("pitch", s.pitch).Msg("note on")
	s.sink.NoteOn(s.pitch, s.velocity, s.channel)
	if s.slot != NoSlot {
		s.fb.Attack(s.slot, now)
	}
}

func (s *String) noteOff(now clock.Millis) {
	s.log.Debug().Int("string", s.index).Uint8("pitch", s.pitch).Msg("note off")
	s.sink.NoteOff(s.pitch, s.velocity, s.channel)
	if s.slot != NoSlot {
		s.fb.Release(s.slot, now)
	}
}

// Silence ends a sounding note and returns the string to Idle.
func (s *String) Silence(now clock.Millis) {
	if s.state == Sounding {
		s.noteOff(now)
	}
	s.state = Idle
	s.onTime = 0
}

func (s *String) State() State { return s.state }

// OnTime reports when the current note started; ok is false unless Sounding.
func (s *String) OnTime() (t clock.Millis, ok bool) {
	return s.onTime, s.state == Sounding
}

func (s *String) Pitch() uint8              { return s.pitch }
func (s *String) Touch() *touch.Channel     { return s.ch }
func (s *String) Sustain() clock.Millis     { return s.sustain }
func (s *String) SetSustain(d clock.Millis) { s.sustain = d }
func (s *String) SetThreshold(t uint32)     { s.ch.SetThreshold(t) }
