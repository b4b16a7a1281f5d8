package led

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
)

// RefreshRate is the WS2812 bit rate in kHz.
const RefreshRate physic.Frequency = 800

// OpenDrawer opens an nrzled strip of n pixels on the named SPI port ("" for
// the first one). When no SPI port is available it falls back to drawing on
// the console and reports false.
func OpenDrawer(port string, n int) (display.Drawer, bool, error) {
	p, err := spireg.Open(port)
	if err != nil {
		log.Warn().Err(err).Str("spi", port).Msg("no SPI port; drawing lights on the console")
		return Console(n), false, nil
	}

	return openStrip(p, port, n)
}

// openStrip takes ownership of p: it is closed on any failure.
func openStrip(p spi.PortCloser, port string, n int) (display.Drawer, bool, error) {
	opts := nrzled.Opts{
		NumPixels: n,
		Channels:  3,
		Freq:      ((RefreshRate * 3) + 100) * physic.KiloHertz,
	}
	d, err := nrzled.NewSPI(p, &opts)
	if err != nil {
		_ = p.Close()
		return nil, false, fmt.Errorf("nrzled on %s: %w", port, err)
	}
	if err := d.Halt(); err != nil {
		_ = p.Close()
		return nil, false, fmt.Errorf("nrzled halt: %w", err)
	}
	return d, true, nil
}

// Console draws the strip as coloured blocks on the terminal.
func Console(n int) display.Drawer {
	return screen.New(n)
}
