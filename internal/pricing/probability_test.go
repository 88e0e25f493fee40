package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalDefaultUndefined(t *testing.T) {
	assert.True(t, math.IsNaN(TerminalDefault(150, 100, 1, 0.03, 0)))
	assert.True(t, math.IsNaN(TerminalDefault(150, 100, 0, 0.03, 0.2)))
	assert.True(t, math.IsNaN(TerminalDefault(math.NaN(), 100, 1, 0.03, 0.2)))
}

func TestBlackCoxEqualsFirstPassageAtFaceValue(t *testing.T) {
	for _, d := range []float64{50, 100, 130, 149} {
		bc := BlackCoxDefault(150, d, d, 1, 0.03, 0.2)
		fp := FirstPassage(150, d, 1, 0.03, 0.2)
		assert.InDelta(t, fp, bc, 1e-12, "d=%v", d)
	}
	assert.InDelta(t, 0.038483657360835165, FirstPassage(150, 100, 1, 0.03, 0.2), 1e-12)
}

func TestBlackCoxDominatesTerminal(t *testing.T) {
	for _, d := range []float64{50, 100, 130, 149, 200} {
		for _, ratio := range []float64{0.3, 0.7, 1} {
			term := TerminalDefault(150, d, 1, 0.03, 0.2)
			bc := BlackCoxDefault(150, d, ratio*d, 1, 0.03, 0.2)
			assert.GreaterOrEqual(t, bc, term, "d=%v ratio=%v", d, ratio)
			assert.LessOrEqual(t, bc, 1.0)
		}
	}
}

func TestFirstPassageBelowBarrier(t *testing.T) {
	assert.Equal(t, 1.0, FirstPassage(90, 100, 1, 0.03, 0.2))
	assert.Equal(t, 1.0, BlackCoxDefault(90, 120, 100, 1, 0.03, 0.2))
}

func TestBlackCoxTinyVolatilityIsIndicator(t *testing.T) {
	assert.Equal(t, 0.0, BlackCoxDefault(150, 100, 90, 1, 0.03, 1e-4))
	assert.Equal(t, 1.0, BlackCoxDefault(100, 150, 135, 1, 0.03, 1e-4))
	assert.Equal(t, 0.0, BlackCoxDefault(150, 100, 90, 1, -0.03, 1e-3))
}
