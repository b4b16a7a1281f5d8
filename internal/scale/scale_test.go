package scale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var TestScaleLayout = []struct {
	Name   string
	Root   uint8
	N      int
	Expect []uint8
}{
	{"pentatonic", 48, 7, []uint8{48, 50, 52, 55, 57, 60, 62}},
	{"whole-tone", 60, 7, []uint8{60, 62, 64, 66, 68, 70, 72}},
	{"octatonic", 60, 9, []uint8{60, 62, 63, 65, 66, 68, 69, 71, 72}},
	{"phrygian-dominant", 52, 8, []uint8{52, 53, 56, 57, 59, 60, 62, 64}},
}

func TestNew(t *testing.T) {
	for _, v := range TestScaleLayout {
		t.Run(v.Name, func(t *testing.T) {
			tab, err := New(v.Name, v.Root, v.N)
			require.NoError(t, err)
			assert.Equal(t, v.N, tab.Len())
			assert.Equal(t, v.Expect, tab.Pitches())
			assert.Equal(t, v.Name, tab.Name())
		})
	}
}

func TestTableIsImmutable(t *testing.T) {
	tab, err := New(DefaultName, DefaultRoot, 5)
	require.NoError(t, err)
	p := tab.Pitches()
	p[0] = 0
	assert.Equal(t, uint8(DefaultRoot), tab.Pitch(0))
}

func TestNewErrors(t *testing.T) {
	_, err := New("lydian", 60, 4)
	assert.Error(t, err)
	_, err = New("pentatonic", 60, 0)
	assert.Error(t, err)
	_, err = New("whole-tone", 120, 8)
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"octatonic", "pentatonic", "phrygian-dominant", "whole-tone"}, Names())
}
