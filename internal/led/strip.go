// Package led renders per-string light feedback: each plucked string flashes
// its slot at full brightness and fades it out linearly.
package led

import (
	"image"

	"periph.io/x/conn/v3/display"

	"github.com/coreman2200/funtimes-touchharp/internal/clock"
)

// DefaultFade is how long a slot takes to fade from full to dark.
const DefaultFade clock.Millis = 400

type slot struct {
	base     Color
	level    uint8
	attackAt clock.Millis
	lit      bool
	released bool
}

// Strip holds the colour state of every light slot between flushes.
type Strip struct {
	slots []slot
	fade  clock.Millis
}

// NewStrip spreads n slot colours evenly around the colour wheel.
func NewStrip(n int, fade clock.Millis) *Strip {
	if fade == 0 {
		fade = DefaultFade
	}
	s := &Strip{slots: make([]slot, n), fade: fade}
	for i := range s.slots {
		s.slots[i].base = Wheel(float64(i) / float64(n))
	}
	return s
}

func (s *Strip) valid(i int) bool {
	return i >= 0 && i < len(s.slots)
}

// Attack lights the slot at full intensity.
func (s *Strip) Attack(i int, now clock.Millis) {
	if !s.valid(i) {
		return
	}
	sl := &s.slots[i]
	sl.lit = true
	sl.released = false
	sl.attackAt = now
	sl.level = 0xFF
}

// Release lets the slot go dark for good once its fade completes.
func (s *Strip) Release(i int, now clock.Millis) {
	if !s.valid(i) {
		return
	}
	s.slots[i].released = true
}

// Decay recomputes the slot intensity from the time since its attack.
func (s *Strip) Decay(i int, now clock.Millis) {
	if !s.valid(i) || !s.slots[i].lit {
		return
	}
	sl := &s.slots[i]
	el := now.Since(sl.attackAt)
	if el >= s.fade {
		sl.level = 0
		if sl.released {
			sl.lit = false
		}
		return
	}
	sl.level = uint8(uint32(0xFF) * uint32(s.fade-el) / uint32(s.fade))
}

// Level is the current intensity of slot i, 0..255. Unknown slots are dark.
func (s *Strip) Level(i int) uint8 {
	if !s.valid(i) {
		return 0
	}
	return s.slots[i].level
}

func (s *Strip) SetColor(i int, c Color) {
	if !s.valid(i) {
		return
	}
	s.slots[i].base = c
}

func (s *Strip) Len() int { return len(s.slots) }

// Image renders the strip as a single row, one pixel per slot.
func (s *Strip) Image() *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, len(s.slots), 1))
	for x, sl := range s.slots {
		im.SetNRGBA(x, 0, sl.base.WithA(sl.level).NRGBA())
	}
	return im
}

// Flush pushes the current frame to the display.
func (s *Strip) Flush(d display.Drawer) error {
	return d.Draw(d.Bounds(), s.Image(), image.Point{})
}

// Clear darkens every slot and writes the dark frame out.
func (s *Strip) Clear(d display.Drawer) error {
	for i := range s.slots {
		s.slots[i].level = 0
		s.slots[i].lit = false
	}
	return s.Flush(d)
}
