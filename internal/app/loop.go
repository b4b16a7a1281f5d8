// Package app runs the scan/dispatch loop and assembles it from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-touchharp/internal/clock"
	"github.com/coreman2200/funtimes-touchharp/internal/harp"
	"github.com/coreman2200/funtimes-touchharp/internal/led"
	"github.com/coreman2200/funtimes-touchharp/internal/params"
)

// DefaultPoll is the loop period when none is configured.
const DefaultPoll = time.Millisecond

// Loop owns the harp and everything it talks to. Only the goroutine calling
// Run or Step touches harp state.
type Loop struct {
	Clock   clock.Clock
	Harp    *harp.Ensemble
	Params  params.Source
	Strip   *led.Strip     // optional
	Display display.Drawer // optional, needs Strip
	Status  gpio.PinOut    // optional
	Poll    time.Duration
	Log     zerolog.Logger

	status      gpio.Level
	statusKnown bool
}

// NewLoop fills in the defaults for a loop over h.
func NewLoop(clk clock.Clock, h *harp.Ensemble, src params.Source) *Loop {
	return &Loop{Clock: clk, Harp: h, Params: src, Poll: DefaultPoll, Log: log.Logger}
}

// Step runs one iteration: parameters, scan, status, lights. Failures are
// collected and returned; every stage still runs.
func (l *Loop) Step(now clock.Millis) error {
	var errs []error
	if l.Params != nil {
		p, err := l.Params.Read()
		if err != nil {
			errs = append(errs, fmt.Errorf("params: %w", err))
		} else {
			l.Harp.ApplyGlobalParameters(p.Threshold, p.Sustain)
		}
	}
	if err := l.Harp.Scan(now); err != nil {
		errs = append(errs, err)
	}
	if err := l.setStatus(l.Harp.AnyTouched()); err != nil {
		errs = append(errs, err)
	}
	if l.Strip != nil && l.Display != nil {
		if err := l.Strip.Flush(l.Display); err != nil {
			errs = append(errs, fmt.Errorf("lights: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (l *Loop) setStatus(touched bool) error {
	if l.Status == nil {
		return nil
	}
	lvl := gpio.Level(touched)
	if l.statusKnown && lvl == l.status {
		return nil
	}
	if err := l.Status.Out(lvl); err != nil {
		return fmt.Errorf("status %s: %w", l.Status, err)
	}
	l.status, l.statusKnown = lvl, true
	return nil
}

// Run steps the loop every Poll until ctx is done, then silences every
// sounding string and darkens the lights.
func (l *Loop) Run(ctx context.Context) error {
	poll := l.Poll
	if poll <= 0 {
		poll = DefaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	l.Log.Info().Int("strings", l.Harp.Len()).Str("scale", l.Harp.Scale().Name()).Dur("poll", poll).Msg("harp running")
	for {
		select {
		case <-ticker.C:
			if err := l.Step(l.Clock.Now()); err != nil {
				l.Log.Warn().Err(err).Msg("scan")
			}
		case <-ctx.Done():
			return l.shutdown()
		}
	}
}

func (l *Loop) shutdown() error {
	l.Harp.Silence(l.Clock.Now())
	var errs []error
	if err := l.setStatus(false); err != nil {
		errs = append(errs, err)
	}
	if l.Strip != nil && l.Display != nil {
		if err := l.Strip.Clear(l.Display); err != nil {
			errs = append(errs, fmt.Errorf("lights: %w", err))
		}
	}
	l.Log.Info().Msg("harp stopped")
	return errors.Join(errs...)
}
