package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-touchharp/internal/clock"
	"github.com/coreman2200/funtimes-touchharp/internal/config"
	"github.com/coreman2200/funtimes-touchharp/internal/harp"
	"github.com/coreman2200/funtimes-touchharp/internal/led"
	"github.com/coreman2200/funtimes-touchharp/internal/mux"
	"github.com/coreman2200/funtimes-touchharp/internal/params"
	"github.com/coreman2200/funtimes-touchharp/internal/scale"
	"github.com/coreman2200/funtimes-touchharp/internal/sound"
	"github.com/coreman2200/funtimes-touchharp/internal/touch"
)

// Parts is the opened hardware a harp is assembled from.
type Parts struct {
	Clock   clock.Clock
	Sampler touch.Sampler
	Mux     touch.Selector // nil when no string is multiplexed
	Pots    map[int]analog.PinADC
	Sink    sound.Sink
	Display display.Drawer // nil for no lights
	Status  gpio.PinOut    // nil for no status lamp
}

// Assemble builds the loop described by cfg on top of already opened parts.
func Assemble(cfg *config.Config, p Parts) (*Loop, error) {
	tab, err := scale.New(cfg.Scale.Name, cfg.Scale.Root, len(cfg.Strings))
	if err != nil {
		return nil, err
	}

	chans := make([]*touch.Channel, len(cfg.Strings))
	slots := make([]int, len(cfg.Strings))
	for i, s := range cfg.Strings {
		tc := touch.Config{
			Pin:       s.Pin,
			Interval:  clock.Millis(cfg.Sampling.IntervalMs),
			Threshold: cfg.Defaults.Threshold,
		}
		if s.Line != nil {
			if p.Mux == nil {
				return nil, fmt.Errorf("string %d is on mux line %d but no mux is open", i, *s.Line)
			}
			tc.Mux, tc.Line = p.Mux, *s.Line
		}
		chans[i] = touch.NewChannel(p.Sampler, tc)

		slots[i] = i
		if s.Slot != nil {
			slots[i] = *s.Slot
		}
	}

	strip := led.NewStrip(slotCount(cfg), clock.Millis(cfg.LED.FadeMs))
	ens, err := harp.New(tab, chans, p.Sink, harp.Options{
		Sustain:  clock.Millis(cfg.Defaults.SustainMs),
		Velocity: cfg.Sound.Velocity,
		Channel:  cfg.Sound.Channel - 1,
		Feedback: strip,
		Slots:    slots,
	})
	if err != nil {
		return nil, err
	}

	l := NewLoop(p.Clock, ens, paramSource(cfg, p.Pots))
	l.Strip = strip
	l.Display = p.Display
	l.Status = p.Status
	if cfg.PollMs > 0 {
		l.Poll = time.Duration(cfg.PollMs) * time.Millisecond
	}
	return l, nil
}

func paramSource(cfg *config.Config, pots map[int]analog.PinADC) params.Source {
	fixed := params.Params{
		Threshold: cfg.Defaults.Threshold,
		Sustain:   clock.Millis(cfg.Defaults.SustainMs),
	}
	pick := func(n *int) analog.PinADC {
		if n == nil {
			return nil
		}
		return pots[*n]
	}
	th, su := pick(cfg.Params.ThresholdPin), pick(cfg.Params.SustainPin)
	if th == nil && su == nil {
		return params.Fixed(fixed)
	}
	return &params.ADC{
		ThresholdPin: th,
		SustainPin:   su,
		Threshold:    params.Range{Min: int64(cfg.Params.ThresholdMin), Max: int64(cfg.Params.ThresholdMax)},
		Sustain:      params.Range{Min: int64(cfg.Params.SustainMinMs), Max: int64(cfg.Params.SustainMaxMs)},
		Fallback:     fixed,
	}
}

var adcChannels = [config.ADCChannels]ads1x15.Channel{
	ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3,
}

// Open initialises the host and opens every device cfg names. With
// simOutputs the sound goes to the log and the lights to the console; sensing
// always uses the real ADC. The returned func releases everything.
func Open(cfg *config.Config, simOutputs bool) (Parts, func(), error) {
	var closers []func()
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (Parts, func(), error) {
		release()
		return Parts{}, nil, err
	}

	if _, err := host.Init(); err != nil {
		return fail(fmt.Errorf("host init: %w", err))
	}

	bus, err := i2creg.Open(cfg.ADC.Bus)
	if err != nil {
		return fail(fmt.Errorf("i2c %q: %w", cfg.ADC.Bus, err))
	}
	closers = append(closers, func() { _ = bus.Close() })

	adc, err := ads1x15.NewADS1115(bus, &ads1x15.Opts{I2cAddress: cfg.ADC.Address})
	if err != nil {
		return fail(fmt.Errorf("ads1115 at %#x: %w", cfg.ADC.Address, err))
	}
	closers = append(closers, func() { _ = adc.Halt() })

	maxV := physic.ElectricPotential(cfg.ADC.MaxMv) * physic.MilliVolt
	rate := physic.Frequency(cfg.ADC.RateHz) * physic.Hertz
	pins := map[int]analog.PinADC{}
	for _, n := range usedInputs(cfg) {
		pin, err := adc.PinForChannel(adcChannels[n], maxV, rate, ads1x15.SaveEnergy)
		if err != nil {
			return fail(fmt.Errorf("adc input %d: %w", n, err))
		}
		closers = append(closers, func() { _ = pin.Halt() })
		pins[n] = pin
	}

	p := Parts{
		Clock:   clock.NewHost(),
		Sampler: &touch.ADCSampler{Pins: pins},
		Pots:    pins,
	}

	if usesMux(cfg) {
		sel, err := mux.Open(cfg.Mux.Lines)
		if err != nil {
			return fail(err)
		}
		log.Info().Str("mux", sel.String()).Msg("mux select lines ready")
		p.Mux = sel
	}

	sink, closeSink := OpenSink(cfg.Sound, simOutputs)
	closers = append(closers, closeSink)
	p.Sink = sink

	slots := slotCount(cfg)
	if simOutputs {
		p.Display = led.Console(slots)
	} else {
		d, _, err := led.OpenDrawer(cfg.LED.SPI, slots)
		if err != nil {
			return fail(err)
		}
		p.Display = d
	}
	closers = append(closers, func() { _ = p.Display.Halt() })

	if cfg.StatusPin != "" {
		if pin := gpioreg.ByName(cfg.StatusPin); pin != nil {
			p.Status = pin
		} else {
			log.Warn().Str("pin", cfg.StatusPin).Msg("status pin not found; running without lamp")
		}
	}
	return p, release, nil
}

// Build opens the hardware and assembles the loop on it. The returned func
// releases the hardware; on error everything opened is already released.
func Build(cfg *config.Config, simOutputs bool) (*Loop, func(), error) {
	return build(cfg, func() (Parts, func(), error) { return Open(cfg, simOutputs) })
}

func build(cfg *config.Config, open func() (Parts, func(), error)) (*Loop, func(), error) {
	parts, release, err := open()
	if err != nil {
		return nil, nil, err
	}
	l, err := Assemble(cfg, parts)
	if err != nil {
		release()
		return nil, nil, err
	}
	return l, release, nil
}

// OpenSink picks the sound transport, falling back to the log when the
// configured one cannot be opened.
func OpenSink(s config.Sound, simOutputs bool) (sound.Sink, func()) {
	fallback := &sound.Log{Logger: log.With().Str("sink", "log").Logger()}
	driver := s.Driver
	if simOutputs {
		driver = "log"
	}

	var (
		m      *sound.MIDI
		closer func()
		err    error
	)
	switch driver {
	case "midi":
		m, closer, err = sound.OpenPort(s.Port)
	case "serial":
		m, closer, err = sound.OpenSerial(s.Serial)
	case "log":
		return fallback, func() {}
	default:
		err = errors.New("unknown driver")
	}
	if err != nil {
		log.Warn().Err(err).Str("driver", driver).Msg("sound output unavailable; logging notes instead")
		return fallback, func() {}
	}
	return m, closer
}

func usesMux(cfg *config.Config) bool {
	for _, s := range cfg.Strings {
		if s.Line != nil {
			return true
		}
	}
	return false
}

// usedInputs lists the ADC inputs referenced by strings or pots, ascending.
func usedInputs(cfg *config.Config) []int {
	var used [config.ADCChannels]bool
	for _, s := range cfg.Strings {
		used[s.Pin] = true
	}
	for _, n := range []*int{cfg.Params.ThresholdPin, cfg.Params.SustainPin} {
		if n != nil {
			used[*n] = true
		}
	}
	var out []int
	for i, u := range used {
		if u {
			out = append(out, i)
		}
	}
	return out
}

func slotCount(cfg *config.Config) int {
	n := 0
	for i, s := range cfg.Strings {
		slot := i
		if s.Slot != nil {
			slot = *s.Slot
		}
		if slot+1 > n {
			n = slot + 1
		}
	}
	return n
}
