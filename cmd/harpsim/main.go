// Command harpsim plays random plucks through the full harp pipeline on a
// simulated clock and writes the result as MIDI and WAV files.
package main

import (
	"flag"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-touchharp/internal/app"
	"github.com/coreman2200/funtimes-touchharp/internal/clock"
	"github.com/coreman2200/funtimes-touchharp/internal/config"
	"github.com/coreman2200/funtimes-touchharp/internal/led"
	"github.com/coreman2200/funtimes-touchharp/internal/sound"
)

// touchLevel is what a finger on a string reads as.
const touchLevel = 12000

type pluck struct {
	line  uint8
	start clock.Millis
	hold  clock.Millis
}

// board stands in for the ADC and mux: a line reads touchLevel while a pluck
// holds it.
type board struct {
	line    uint8
	touched map[uint8]bool
}

func (b *board) Select(ch uint8) error { b.line = ch & 0x0F; return nil }
func (b *board) Read(int) (uint32, error) {
	if b.touched[b.line] {
		return touchLevel, nil
	}
	return 0, nil
}

func script(rng *rand.Rand, n, strings int, dur clock.Millis) []pluck {
	ps := make([]pluck, n)
	for i := range ps {
		ps[i] = pluck{
			line:  uint8(rng.Intn(strings)),
			start: clock.Millis(rng.Int63n(int64(dur) * 3 / 4)),
			hold:  clock.Millis(20 + rng.Intn(80)),
		}
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].start < ps[j].start })
	return ps
}

func main() {
	var (
		configPath = flag.String("config", "", "optional config.yaml (strings, scale, timing)")
		dur        = flag.Uint("dur", 10000, "simulated duration in ms")
		plucks     = flag.Int("plucks", 24, "number of random plucks")
		seed       = flag.Int64("seed", 1, "random seed")
		midPath    = flag.String("mid", "harp.mid", "MIDI file output (empty to skip)")
		wavPath    = flag.String("wav", "harp.wav", "WAV file output (empty to skip)")
		rate       = flag.Int("rate", sound.DefaultSampleRate, "WAV sample rate")
		lights     = flag.Bool("lights", false, "draw the light strip on the console")
		verbose    = flag.Bool("v", false, "log every note")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("config")
		}
		cfg = c
	}
	// Every string hangs off the simulated mux, one line each.
	for i := range cfg.Strings {
		line := uint8(i)
		cfg.Strings[i].Line = &line
	}

	clk := clock.NewManual(1)
	rec := sound.NewRecorder(clk)
	var sink sound.Sink = rec
	if *verbose {
		sink = sound.Multi{rec, &sound.Log{Logger: log.Logger}}
	}
	b := &board{touched: map[uint8]bool{}}
	parts := app.Parts{Clock: clk, Sampler: b, Mux: b, Sink: sink}
	if *lights {
		parts.Display = led.Console(len(cfg.Strings))
	}

	loop, err := app.Assemble(cfg, parts)
	if err != nil {
		log.Fatal().Err(err).Msg("harp setup failed")
	}
	end := clock.Millis(*dur)
	ps := script(rand.New(rand.NewSource(*seed)), *plucks, len(cfg.Strings), end)
	log.Info().Int("plucks", len(ps)).Uint32("ms", uint32(end)).Str("scale", cfg.Scale.Name).Msg("simulating")

	for now := clk.Now(); now < end; now = clk.Advance(1) {
		for k := range b.touched {
			delete(b.touched, k)
		}
		for _, p := range ps {
			if now >= p.start && now < p.start+p.hold {
				b.touched[p.line] = true
			}
		}
		if err := loop.Step(now); err != nil {
			log.Warn().Err(err).Msg("step")
		}
	}
	loop.Harp.Silence(clk.Now())

	log.Info().Int("events", len(rec.Events())).Msg("done")
	if *midPath != "" {
		if err := rec.WriteSMF(*midPath); err != nil {
			log.Fatal().Err(err).Msg("midi")
		}
		log.Info().Str("path", *midPath).Msg("midi written")
	}
	if *wavPath != "" {
		if err := rec.WriteWAV(*wavPath, *rate); err != nil {
			log.Fatal().Err(err).Msg("wav")
		}
		log.Info().Str("path", *wavPath).Msg("wav written")
	}
}
