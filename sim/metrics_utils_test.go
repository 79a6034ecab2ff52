package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePercentile_EmptyInput_ReturnsZero(t *testing.T) {
	assert.Zero(t, CalculatePercentile([]int64{}, 90))
}

func TestCalculatePercentile_SingleElement(t *testing.T) {
	assert.Equal(t, 7.0, CalculatePercentile([]int64{7}, 50))
	assert.Equal(t, 7.0, CalculatePercentile([]int64{7}, 100))
}

func TestCalculatePercentile_Interpolates(t *testing.T) {
	data := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	assert.Equal(t, 1.0, CalculatePercentile(data, 0))
	assert.InDelta(t, 5.5, CalculatePercentile(data, 50), 1e-9)
	assert.InDelta(t, 9.1, CalculatePercentile(data, 90), 1e-9)
	assert.Equal(t, 10.0, CalculatePercentile(data, 100))
}

func TestCalculatePercentile_Monotonic(t *testing.T) {
	data := []float64{0.5, 1, 4, 4, 9, 12.5, 30}

	p50 := CalculatePercentile(data, 50)
	p90 := CalculatePercentile(data, 90)
	p99 := CalculatePercentile(data, 99)

	assert.LessOrEqual(t, p50, p90)
	assert.LessOrEqual(t, p90, p99)
}

func TestCalculateMean(t *testing.T) {
	assert.Zero(t, CalculateMean([]int{}))
	assert.Equal(t, 2.5, CalculateMean([]int{1, 2, 3, 4}))
	assert.Equal(t, 3.0, CalculateMean([]int64{3}))
}
