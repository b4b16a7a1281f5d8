package sound

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"

	"github.com/coreman2200/funtimes-touchharp/internal/clock"
)

const (
	// DefaultSampleRate for offline renders.
	DefaultSampleRate = 44100
	ringDecay         = 0.996
	dampDecay         = 0.90
	renderGain        = 0.3
	renderTail        = 2000 // ms rendered past the last event
	silenceFloor      = 1e-4
)

// voice is a Karplus-Strong plucked string: a noise burst circulating
// through an averaging delay line.
type voice struct {
	line  []float32
	pos   int
	decay float32
	quiet int // consecutive samples below silenceFloor
}

func pitchHz(pitch uint8) float64 {
	return 440 * math.Pow(2, (float64(pitch)-69)/12)
}

func newVoice(pitch, velocity uint8, sampleRate int, rng *rand.Rand) *voice {
	n := int(float64(sampleRate) / pitchHz(pitch))
	if n < 2 {
		n = 2
	}
	amp := float32(velocity) / 127
	v := &voice{line: make([]float32, n), decay: ringDecay}
	for i := range v.line {
		v.line[i] = amp * (rng.Float32() - 0.5)
	}
	return v
}

func (v *voice) next() float32 {
	n := len(v.line)
	out := v.line[v.pos]
	v.line[v.pos] = v.decay * 0.5 * (out + v.line[(v.pos+1)%n])
	v.pos = (v.pos + 1) % n
	if out < silenceFloor && out > -silenceFloor {
		v.quiet++
	} else {
		v.quiet = 0
	}
	return out
}

// done reports whether a whole period of the delay line has been inaudible.
func (v *voice) done() bool {
	return v.quiet >= len(v.line)
}

// prune drops finished voices in place.
func prune(vs []*voice) []*voice {
	kept := vs[:0]
	for _, v := range vs {
		if !v.done() {
			kept = append(kept, v)
		}
	}
	for i := len(kept); i < len(vs); i++ {
		vs[i] = nil
	}
	return kept
}

// Render synthesises the recording as mono audio. Note-on plucks a fresh
// voice; note-off damps the voice on that pitch.
func (r *Recorder) Render(sampleRate int) []float32 {
	events := r.Events()
	if len(events) == 0 {
		return nil
	}
	start := events[0].At
	toFrame := func(t clock.Millis) int {
		return int(uint64(t.Since(start)) * uint64(sampleRate) / 1000)
	}
	total := toFrame(events[len(events)-1].At) + renderTail*sampleRate/1000
	out := make([]float32, total)

	rng := rand.New(rand.NewSource(1))
	voices := map[uint8]*voice{}
	var ringing []*voice
	next := 0
	for f := 0; f < total; f++ {
		for next < len(events) && toFrame(events[next].At) <= f {
			e := events[next]
			if e.On {
				v := newVoice(e.Pitch, e.Velocity, sampleRate, rng)
				voices[e.Pitch] = v
				ringing = append(ringing, v)
			} else if v, ok := voices[e.Pitch]; ok {
				v.decay = dampDecay
				delete(voices, e.Pitch)
			}
			next++
		}
		var sum float32
		finished := false
		for _, v := range ringing {
			sum += v.next()
			finished = finished || v.done()
		}
		if finished {
			ringing = prune(ringing)
		}
		out[f] = clamp1(sum * renderGain)
	}
	return out
}

func clamp1(x float32) float32 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// WriteWAV renders the recording to a 16-bit mono WAV file.
func (r *Recorder) WriteWAV(path string, sampleRate int) error {
	data := r.Render(sampleRate)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav encode: %w", err)
	}
	return enc.Close()
}
