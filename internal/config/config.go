// Package config loads the harp's yaml configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-touchharp/internal/harp"
	"github.com/coreman2200/funtimes-touchharp/internal/scale"
	"github.com/coreman2200/funtimes-touchharp/internal/touch"
)

// ADCChannels is the number of single-ended inputs on an ADS1115.
const ADCChannels = 4

type String struct {
	Pin  int    `yaml:"pin"`           // ADC input 0..3
	Line *uint8 `yaml:"line,omitempty"` // mux channel; absent for a direct pin
	Slot *int   `yaml:"slot,omitempty"` // light slot; defaults to the string index
}

type Mux struct {
	Lines [4]string `yaml:"lines"` // gpio names, least significant first
}

type Scale struct {
	Name string `yaml:"name"`
	Root uint8  `yaml:"root"`
}

type Sampling struct {
	IntervalMs uint32 `yaml:"interval_ms"`
}

type Defaults struct {
	Threshold uint32 `yaml:"threshold"`
	SustainMs uint32 `yaml:"sustain_ms"`
}

// Params wires optional control pots. A nil pin keeps the default.
type Params struct {
	ThresholdPin *int   `yaml:"threshold_pin,omitempty"`
	SustainPin   *int   `yaml:"sustain_pin,omitempty"`
	ThresholdMin uint32 `yaml:"threshold_min"`
	ThresholdMax uint32 `yaml:"threshold_max"`
	SustainMinMs uint32 `yaml:"sustain_min_ms"`
	SustainMaxMs uint32 `yaml:"sustain_max_ms"`
}

type ADC struct {
	Bus     string `yaml:"bus"` // i2c bus name, "" for the first
	Address uint16 `yaml:"address"`
	MaxMv   int    `yaml:"max_mv"`
	RateHz  int    `yaml:"rate_hz"`
}

type LED struct {
	SPI    string `yaml:"spi"` // "" for the first port
	FadeMs uint32 `yaml:"fade_ms"`
}

type Sound struct {
	Driver   string `yaml:"driver"` // "midi" | "serial" | "log"
	Port     string `yaml:"port"`   // rtmidi output name pattern
	Serial   string `yaml:"serial"` // e.g. /dev/ttyAMA0
	Channel  uint8  `yaml:"channel"`
	Velocity uint8  `yaml:"velocity"`
}

type Config struct {
	Strings   []String `yaml:"strings"`
	Mux       Mux      `yaml:"mux"`
	Scale     Scale    `yaml:"scale"`
	Sampling  Sampling `yaml:"sampling"`
	Defaults  Defaults `yaml:"defaults"`
	Params    Params   `yaml:"params"`
	ADC       ADC      `yaml:"adc"`
	LED       LED      `yaml:"led"`
	Sound     Sound    `yaml:"sound"`
	StatusPin string   `yaml:"status_pin,omitempty"`
	PollMs    uint32   `yaml:"poll_ms"`
}

// Default is a 16-string pentatonic harp with every string on one mux
// behind ADC input 0.
func Default() *Config {
	c := &Config{
		Mux:      Mux{Lines: [4]string{"GPIO5", "GPIO6", "GPIO13", "GPIO19"}},
		Scale:    Scale{Name: scale.DefaultName, Root: scale.DefaultRoot},
		Sampling: Sampling{IntervalMs: uint32(touch.DefaultInterval)},
		Defaults: Defaults{Threshold: touch.DefaultThreshold, SustainMs: uint32(harp.DefaultSustain)},
		Params: Params{
			ThresholdMin: 1000,
			ThresholdMax: 20000,
			SustainMinMs: 100,
			SustainMaxMs: 5000,
		},
		ADC:       ADC{Address: 0x48, MaxMv: 4096, RateHz: 860},
		LED:       LED{FadeMs: 400},
		Sound:     Sound{Driver: "midi", Serial: "/dev/ttyAMA0", Channel: 1, Velocity: harp.DefaultVelocity},
		StatusPin: "GPIO26",
		PollMs:    1,
	}
	for i := 0; i < 16; i++ {
		line := uint8(i)
		c.Strings = append(c.Strings, String{Pin: 0, Line: &line})
	}
	return c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	c.Strings = nil
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate reports every problem found, not just the first.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Strings) == 0 {
		errs = append(errs, errors.New("no strings configured"))
	}
	for i, s := range c.Strings {
		if s.Pin < 0 || s.Pin >= ADCChannels {
			errs = append(errs, fmt.Errorf("strings[%d]: pin %d outside 0..%d", i, s.Pin, ADCChannels-1))
		}
		if s.Slot != nil && *s.Slot < 0 {
			errs = append(errs, fmt.Errorf("strings[%d]: negative slot %d", i, *s.Slot))
		}
	}
	n := len(c.Strings)
	if n == 0 {
		n = 1
	}
	if _, err := scale.New(c.Scale.Name, c.Scale.Root, n); err != nil {
		errs = append(errs, err)
	}
	pots := []struct {
		name string
		pin  *int
	}{
		{"threshold_pin", c.Params.ThresholdPin},
		{"sustain_pin", c.Params.SustainPin},
	}
	for _, p := range pots {
		if p.pin != nil && (*p.pin < 0 || *p.pin >= ADCChannels) {
			errs = append(errs, fmt.Errorf("params.%s %d outside 0..%d", p.name, *p.pin, ADCChannels-1))
		}
	}
	if c.Params.ThresholdMin > c.Params.ThresholdMax {
		errs = append(errs, fmt.Errorf("params: threshold_min %d > threshold_max %d", c.Params.ThresholdMin, c.Params.ThresholdMax))
	}
	if c.Params.SustainMinMs > c.Params.SustainMaxMs {
		errs = append(errs, fmt.Errorf("params: sustain_min_ms %d > sustain_max_ms %d", c.Params.SustainMinMs, c.Params.SustainMaxMs))
	}
	switch c.Sound.Driver {
	case "midi", "serial", "log":
	default:
		errs = append(errs, fmt.Errorf("sound.driver %q is not midi, serial or log", c.Sound.Driver))
	}
	if c.Sound.Velocity > 127 {
		errs = append(errs, fmt.Errorf("sound.velocity %d > 127", c.Sound.Velocity))
	}
	if c.Sound.Channel < 1 || c.Sound.Channel > 16 {
		errs = append(errs, fmt.Errorf("sound.channel %d outside 1..16", c.Sound.Channel))
	}
	return errors.Join(errs...)
}
