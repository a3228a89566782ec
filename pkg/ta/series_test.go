package ta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighestLowest(t *testing.T) {
	s := []float64{3, 9, 1, 4}
	assert.Equal(t, 9.0, Highest(s, 10))
	assert.Equal(t, 4.0, Highest(s, 1))
	assert.Equal(t, 1.0, Lowest(s, 2))
	assert.True(t, math.IsNaN(Highest(nil, 3)))
	assert.Equal(t, 1.0, Last(s, 1))
}

func TestReturns(t *testing.T) {
	assert.Nil(t, Returns([]float64{1}))
	assert.Equal(t, []float64{0.5, -0.5}, Returns([]float64{100, 150, 75}))
	assert.Equal(t, []float64{1}, Returns([]float64{0, 10, 20}))
}

func TestDrawdowns(t *testing.T) {
	assert.Equal(t, []float64{0, 0, -50, -25, 0}, Drawdowns([]float64{100, 200, 100, 150, 250}))
}
