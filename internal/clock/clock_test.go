package clock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSinceAcrossWraparound(t *testing.T) {
	earlier := Millis(math.MaxUint32 - 4)
	now := earlier + 10 // wraps to 5

	assert.Equal(t, Millis(5), now)
	assert.Equal(t, Millis(10), now.Since(earlier))
}

func TestManualAdvance(t *testing.T) {
	c := NewManual(100)
	assert.Equal(t, Millis(100), c.Now())
	assert.Equal(t, Millis(105), c.Advance(5))
	c.Set(7)
	assert.Equal(t, Millis(7), c.Now())
}
