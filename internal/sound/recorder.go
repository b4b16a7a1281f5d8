package sound

import (
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/coreman2200/funtimes-touchharp/internal/clock"
)

const (
	ticksPerQuarter = 960
	recordTempo     = 120.0
	msPerQuarter    = 60000 / recordTempo
)

// Event is one recorded trigger.
type Event struct {
	At       clock.Millis
	On       bool
	Pitch    uint8
	Velocity uint8
	Channel  uint8
}

// Recorder is a Sink that timestamps every trigger against a clock.
type Recorder struct {
	clk clock.Clock

	mu     sync.Mutex
	events []Event
}

func NewRecorder(clk clock.Clock) *Recorder {
	return &Recorder{clk: clk}
}

func (r *Recorder) NoteOn(pitch, velocity, channel uint8) {
	r.add(Event{At: r.clk.Now(), On: true, Pitch: pitch, Velocity: velocity, Channel: channel})
}

func (r *Recorder) NoteOff(pitch, velocity, channel uint8) {
	r.add(Event{At: r.clk.Now(), Pitch: pitch, Velocity: velocity, Channel: channel})
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func msToTicks(ms clock.Millis) uint32 {
	return uint32(float64(ms) * ticksPerQuarter / msPerQuarter)
}

// SMF lays the recording out as a single-track Standard MIDI File starting
// at the first event.
func (r *Recorder) SMF() (*smf.SMF, error) {
	events := r.Events()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(recordTempo))
	var last clock.Millis
	if len(events) > 0 {
		last = events[0].At
	}
	for _, e := range events {
		delta := msToTicks(e.At.Since(last))
		last = e.At
		if e.On {
			tr.Add(delta, midi.NoteOn(e.Channel, e.Pitch, e.Velocity))
		} else {
			tr.Add(delta, midi.NoteOffVelocity(e.Channel, e.Pitch, e.Velocity))
		}
	}
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		return nil, fmt.Errorf("smf track: %w", err)
	}
	return s, nil
}

// WriteSMF saves the recording as a .mid file.
func (r *Recorder) WriteSMF(path string) error {
	s, err := r.SMF()
	if err != nil {
		return err
	}
	if err := s.WriteFile(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
