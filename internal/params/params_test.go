package params

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/analog"

	"github.com/coreman2200/funtimes-touchharp/internal/clock"
)

type pot struct {
	raw int32
	err error
}

func (p *pot) String() string   { return "pot" }
func (p *pot) Halt() error      { return nil }
func (p *pot) Name() string     { return "pot" }
func (p *pot) Number() int      { return -1 }
func (p *pot) Function() string { return "ADC" }
func (p *pot) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{Raw: 0}, analog.Sample{Raw: 1000}
}
func (p *pot) Read() (analog.Sample, error) {
	return analog.Sample{Raw: p.raw}, p.err
}

func TestMap(t *testing.T) {
	data := []struct {
		name                        string
		x, inLo, inHi, outLo, outHi int64
		want                        int64
	}{
		{"low end", 0, 0, 100, 10, 20, 10},
		{"high end", 100, 0, 100, 10, 20, 20},
		{"midpoint", 50, 0, 100, 10, 20, 15},
		{"below", -5, 0, 100, 10, 20, 10},
		{"above", 500, 0, 100, 10, 20, 20},
		{"inverted output", 25, 0, 100, 100, 0, 75},
		{"degenerate input", 7, 3, 3, 10, 20, 10},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			assert.Equal(t, d.want, Map(d.x, d.inLo, d.inHi, d.outLo, d.outHi))
		})
	}
}

func TestFixed(t *testing.T) {
	p, err := Fixed{Threshold: 5000, Sustain: 2000}.Read()
	require.NoError(t, err)
	assert.Equal(t, Params{Threshold: 5000, Sustain: 2000}, p)
}

func TestADC(t *testing.T) {
	a := &ADC{
		ThresholdPin: &pot{raw: 500},
		SustainPin:   &pot{raw: 1000},
		Threshold:    Range{Min: 1000, Max: 9000},
		Sustain:      Range{Min: 200, Max: 4000},
	}
	p, err := a.Read()
	require.NoError(t, err)
	assert.Equal(t, uint32(5000), p.Threshold)
	assert.Equal(t, clock.Millis(4000), p.Sustain)
}

func TestADCFallback(t *testing.T) {
	a := &ADC{
		SustainPin: &pot{raw: 0},
		Sustain:    Range{Min: 200, Max: 4000},
		Fallback:   Params{Threshold: 5000, Sustain: 2000},
	}
	p, err := a.Read()
	require.NoError(t, err)
	assert.Equal(t, Params{Threshold: 5000, Sustain: 200}, p)
}

func TestADCError(t *testing.T) {
	a := &ADC{
		ThresholdPin: &pot{raw: 500},
		SustainPin:   &pot{err: errors.New("i2c nack")},
		Threshold:    Range{Min: 1000, Max: 9000},
		Sustain:      Range{Min: 200, Max: 4000},
	}
	_, err := a.Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sustain pot")
	assert.Contains(t, err.Error(), "i2c nack")
}
