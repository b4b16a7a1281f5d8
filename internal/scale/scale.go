// Package scale builds the fixed pitch tables that map string index to MIDI note.
package scale

import (
	"fmt"
	"sort"
)

// Interval patterns in semitones, repeated every octave.
var patterns = map[string][]uint8{
	"pentatonic":        {0, 2, 4, 7, 9},
	"whole-tone":        {0, 2, 4, 6, 8, 10},
	"octatonic":         {0, 2, 3, 5, 6, 8, 9, 11},
	"phrygian-dominant": {0, 1, 4, 5, 7, 8, 10},
}

const (
	DefaultName = "pentatonic"
	DefaultRoot = 48 // C3
)

// Table is an immutable list of MIDI pitches, one per string.
type Table struct {
	name    string
	pitches []uint8
}

// Names lists the known scales in sorted order.
func Names() []string {
	out := make([]string, 0, len(patterns))
	for k := range patterns {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New lays the named scale out from root upwards over n strings.
func New(name string, root uint8, n int) (Table, error) {
	p, ok := patterns[name]
	if !ok {
		return Table{}, fmt.Errorf("unknown scale %q", name)
	}
	if n <= 0 {
		return Table{}, fmt.Errorf("scale needs at least one string, got %d", n)
	}
	pitches := make([]uint8, n)
	for i := range pitches {
		octave, step := i/len(p), i%len(p)
		v := int(root) + 12*octave + int(p[step])
		if v > 127 {
			return Table{}, fmt.Errorf("scale %s from %d overflows MIDI range at string %d", name, root, i)
		}
		pitches[i] = uint8(v)
	}
	return Table{name: name, pitches: pitches}, nil
}

func (t Table) Name() string { return t.name }
func (t Table) Len() int     { return len(t.pitches) }

// Pitch returns the note for string i.
func (t Table) Pitch(i int) uint8 {
	return t.pitches[i]
}

// Pitches returns a copy of the table.
func (t Table) Pitches() []uint8 {
	out := make([]uint8, len(t.pitches))
	copy(out, t.pitches)
	return out
}
