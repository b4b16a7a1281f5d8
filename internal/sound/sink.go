// Package sound delivers note triggers to whatever makes the noise: a MIDI
// port, a serial MIDI line, a log, or a recorder.
package sound

import (
	"github.com/rs/zerolog"
)

// Sink receives fire-and-forget note triggers. Channel is 0-based.
type Sink interface {
	NoteOn(pitch, velocity, channel uint8)
	NoteOff(pitch, velocity, channel uint8)
}

// Log writes every trigger to a logger. Used when no MIDI output is available.
type Log struct {
	Logger zerolog.Logger
}

func (l *Log) NoteOn(pitch, velocity, channel uint8) {
	l.Logger.Info().Uint8("pitch", pitch).Uint8("vel", velocity).Uint8("ch", channel).Msg("note on")
}

func (l *Log) NoteOff(pitch, velocity, channel uint8) {
	l.Logger.Info().Uint8("pitch", pitch).Uint8("vel", velocity).Uint8("ch", channel).Msg("note off")
}

// Multi fans triggers out to every sink in order.
type Multi []Sink

func (m Multi) NoteOn(pitch, velocity, channel uint8) {
	for _, s := range m {
		s.NoteOn(pitch, velocity, channel)
	}
}

func (m Multi) NoteOff(pitch, velocity, channel uint8) {
	for _, s := range m {
		s.NoteOff(pitch, velocity, channel)
	}
}
