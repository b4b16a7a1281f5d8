package led

import (
	"image/color"
)

// MaxBrightness caps the alpha used when a colour is pushed to the strip.
const MaxBrightness uint8 = 200

const (
	alphaOffset uint8 = 0x18
	greenOffset uint8 = 0x10
	redOffset   uint8 = 0x08
	blueOffset  uint8 = 0x0
)

// Color is packed as 0xAAGGRRBB, the byte order the strip expects.
type Color uint32

func RGB(r, g, b uint8) Color {
	return Color(0).WithA(0xFF).WithR(r).WithG(g).WithB(b)
}

func setChannel(c Color, n uint8, off uint8) Color {
	mask := Color(0xFF) << off
	return (c &^ mask) | Color(n)<<off
}

func channel(c Color, off uint8) uint8 {
	return uint8((c >> off) & 0xFF)
}

func (c Color) WithR(r uint8) Color { return setChannel(c, r, redOffset) }
func (c Color) WithG(g uint8) Color { return setChannel(c, g, greenOffset) }
func (c Color) WithB(b uint8) Color { return setChannel(c, b, blueOffset) }
func (c Color) WithA(a uint8) Color { return setChannel(c, a, alphaOffset) }

func (c Color) R() uint8 { return channel(c, redOffset) }
func (c Color) G() uint8 { return channel(c, greenOffset) }
func (c Color) B() uint8 { return channel(c, blueOffset) }
func (c Color) A() uint8 { return channel(c, alphaOffset) }

// NRGBA premultiplies the channels by alpha, with alpha capped at MaxBrightness.
func (c Color) NRGBA() color.NRGBA {
	a := uint32(c.A())
	if a > uint32(MaxBrightness) {
		a = uint32(MaxBrightness)
	}
	return color.NRGBA{
		R: uint8(uint32(c.R()) * a / 255),
		G: uint8(uint32(c.G()) * a / 255),
		B: uint8(uint32(c.B()) * a / 255),
		A: 255,
	}
}

// Wheel maps h in [0,1) around the hue circle at full saturation.
func Wheel(h float64) Color {
	h *= 6
	switch {
	case h < 1.:
		return RGB(255, uint8(255*h), 0)
	case h < 2.:
		return RGB(uint8(255*(2-h)), 255, 0)
	case h < 3.:
		return RGB(0, 255, uint8(255*(h-2)))
	case h < 4.:
		return RGB(0, uint8(255*(4-h)), 255)
	case h < 5.:
		return RGB(uint8(255*(h-4)), 0, 255)
	default:
		return RGB(255, 0, uint8(255*(6-h)))
	}
}
