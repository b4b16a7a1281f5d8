package sound

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.bug.st/serial"
)

// DINBaud is the MIDI 1.0 serial bit rate.
const DINBaud = 31250

// Ports matching any of these patterns are never picked automatically.
var excludedPorts = []string{"Midi Through", "Through Port", "Dummy"}

// Sender transmits one encoded MIDI message.
type Sender func(msg midi.Message) error

// MIDI encodes triggers as channel voice messages and hands them to a Sender.
// Transport errors are logged and dropped.
type MIDI struct {
	name string
	send Sender
	log  zerolog.Logger
}

func NewMIDI(name string, send Sender) *MIDI {
	return &MIDI{name: name, send: send, log: log.Logger}
}

// WithLogger replaces the logger used for transport errors.
func (m *MIDI) WithLogger(l zerolog.Logger) *MIDI {
	m.log = l
	return m
}

func (m *MIDI) NoteOn(pitch, velocity, channel uint8) {
	m.emit(midi.NoteOn(channel, pitch, velocity))
}

func (m *MIDI) NoteOff(pitch, velocity, channel uint8) {
	m.emit(midi.NoteOffVelocity(channel, pitch, velocity))
}

func (m *MIDI) emit(msg midi.Message) {
	if err := m.send(msg); err != nil {
		m.log.Warn().Err(err).Str("port", m.name).Str("msg", msg.String()).Msg("midi send failed")
	}
}

func (m *MIDI) String() string { return m.name }

// OpenPort connects to the first rtmidi output whose name contains pattern,
// case-insensitively. An empty pattern takes the first port that is not a
// system through port.
func OpenPort(pattern string) (*MIDI, func(), error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, nil, fmt.Errorf("rtmididrv: %w", err)
	}
	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, nil, fmt.Errorf("list midi outputs: %w", err)
	}

	var names []string
	for _, out := range outs {
		name := out.String()
		names = append(names, name)
		if excluded(name) {
			continue
		}
		if pattern != "" && !containsCI(name, pattern) {
			continue
		}
		if err := out.Open(); err != nil {
			drv.Close()
			return nil, nil, fmt.Errorf("open %q: %w", name, err)
		}
		send, err := midi.SendTo(out)
		if err != nil {
			_ = out.Close()
			drv.Close()
			return nil, nil, fmt.Errorf("send to %q: %w", name, err)
		}
		closer := func() {
			_ = out.Close()
			drv.Close()
		}
		log.Info().Str("port", name).Msg("midi output connected")
		return NewMIDI(name, send), closer, nil
	}
	drv.Close()
	return nil, nil, fmt.Errorf("no midi output matching %q among [%s]", pattern, strings.Join(names, ", "))
}

// OpenSerial sends MIDI over a UART wired to a DIN-5 socket.
func OpenSerial(dev string) (*MIDI, func(), error) {
	p, err := serial.Open(dev, &serial.Mode{BaudRate: DINBaud})
	if err != nil {
		return nil, nil, fmt.Errorf("open serial %s: %w", dev, err)
	}
	send := func(msg midi.Message) error {
		_, err := p.Write(msg.Bytes())
		return err
	}
	log.Info().Str("device", dev).Int("baud", DINBaud).Msg("serial midi opened")
	return NewMIDI(dev, send), func() { _ = p.Close() }, nil
}

func excluded(name string) bool {
	for _, pat := range excludedPorts {
		if containsCI(name, pat) {
			return true
		}
	}
	return false
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
