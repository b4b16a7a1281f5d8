package led

import (
	"bytes"
	"image"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
	"periph.io/x/devices/v3/nrzled"

	"github.com/coreman2200/funtimes-touchharp/internal/clock"
)

var TestRGBIsExpectedColor = []struct {
	A, G, R, B uint8
	Expect     Color
}{
	{0xFF, 0x11, 0x22, 0x33, 0xFF112233},
	{0x00, 0x2A, 0x44, 0x34, 0x002A4434},
	{0xAB, 0x3B, 0x88, 0x35, 0xAB3B8835},
	{0x22, 0x4C, 0xAA, 0x36, 0x224CAA36},
}

func TestColorPacking(t *testing.T) {
	for k, v := range TestRGBIsExpectedColor {
		t.Run("Given ARGB"+strconv.Itoa(k), func(t *testing.T) {
			c := Color(0).WithA(v.A).WithR(v.R).WithG(v.G).WithB(v.B)
			assert.Equal(t, v.Expect, c)
			assert.Equal(t, v.R, c.R())
			assert.Equal(t, v.G, c.G())
			assert.Equal(t, v.B, c.B())
			assert.Equal(t, v.A, c.A())
		})
	}
}

func TestNRGBACapsBrightness(t *testing.T) {
	full := RGB(255, 255, 255).NRGBA()
	assert.Equal(t, MaxBrightness, full.R)

	off := RGB(255, 0, 0).WithA(0).NRGBA()
	assert.Equal(t, uint8(0), off.R)
	assert.Equal(t, uint8(255), off.A)
}

func TestWheelPrimaries(t *testing.T) {
	assert.Equal(t, RGB(255, 0, 0), Wheel(0))
	assert.Equal(t, RGB(0, 255, 0), Wheel(2.0/6))
	assert.Equal(t, RGB(0, 0, 255), Wheel(4.0/6))
}

func TestAttackFadesLinearly(t *testing.T) {
	s := NewStrip(2, 400)
	s.Attack(1, 1000)
	assert.Equal(t, uint8(0xFF), s.Level(1))
	assert.Equal(t, uint8(0), s.Level(0))

	s.Decay(1, 1100)
	assert.Equal(t, uint8(191), s.Level(1))
	s.Decay(1, 1200)
	assert.Equal(t, uint8(127), s.Level(1))
	s.Decay(1, 1400)
	assert.Equal(t, uint8(0), s.Level(1))
	s.Decay(1, 1600)
	assert.Equal(t, uint8(0), s.Level(1))
}

func TestReleaseKeepsSlotDark(t *testing.T) {
	s := NewStrip(1, 100)
	s.Attack(0, 0)
	s.Release(0, 20)
	s.Decay(0, 50)
	assert.Equal(t, uint8(127), s.Level(0))
	s.Decay(0, 100)
	assert.Equal(t, uint8(0), s.Level(0))
	assert.False(t, s.slots[0].lit)

	// a new attack relights it
	s.Attack(0, 200)
	assert.Equal(t, uint8(0xFF), s.Level(0))
}

func TestOutOfRangeSlotsIgnored(t *testing.T) {
	s := NewStrip(1, 100)
	assert.NotPanics(t, func() {
		s.Attack(5, 0)
		s.Release(-1, 0)
		s.Decay(9, 0)
		s.SetColor(3, RGB(1, 2, 3))
	})
	assert.Equal(t, uint8(0), s.Level(-1))
	assert.Equal(t, uint8(0), s.Level(1))
}

func TestImageReflectsLevels(t *testing.T) {
	s := NewStrip(3, 100)
	s.SetColor(0, RGB(255, 0, 0))
	s.Attack(0, 0)

	im := s.Image()
	assert.Equal(t, image.Rect(0, 0, 3, 1), im.Bounds())
	assert.Equal(t, MaxBrightness, im.NRGBAAt(0, 0).R)
	assert.Equal(t, uint8(0), im.NRGBAAt(1, 0).G)
}

func TestFlushThroughNRZ(t *testing.T) {
	buf := bytes.Buffer{}
	o := nrzled.Opts{NumPixels: 4, Channels: 3, Freq: 2500 * physic.KiloHertz}
	d, err := nrzled.NewSPI(spitest.NewRecordRaw(&buf), &o)
	require.NoError(t, err)
	buf.Reset()

	s := NewStrip(4, 100)
	require.NoError(t, s.Flush(d))
	dark := append([]byte{}, buf.Bytes()...)
	require.NotEmpty(t, dark)

	buf.Reset()
	s.Attack(2, clock.Millis(0))
	require.NoError(t, s.Flush(d))
	assert.NotEqual(t, dark, buf.Bytes())

	buf.Reset()
	require.NoError(t, s.Clear(d))
	assert.Equal(t, dark, buf.Bytes())
}

type trackedPort struct {
	*spitest.Playback
	closed int
}

func (p *trackedPort) Close() error {
	p.closed++
	return p.Playback.Close()
}

func TestOpenStripClosesPortWhenHaltFails(t *testing.T) {
	// No recorded I/O, so the blanking write in Halt fails.
	p := &trackedPort{Playback: &spitest.Playback{Playback: conntest.Playback{DontPanic: true}}}
	d, ok, err := openStrip(p, "SPI0.0", 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "halt")
	assert.Nil(t, d)
	assert.False(t, ok)
	assert.Equal(t, 1, p.closed)
}
