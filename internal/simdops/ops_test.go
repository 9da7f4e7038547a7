package simdops

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScale(t *testing.T) {
	a := []float64{1, -2, 3.5, 0, 1e-3, 7, 8, 9, 10}
	dst := make([]float64, len(a))
	Float64Ops().Scale(dst, a, 0.25)
	for i := range a {
		// Scaling is a single rounded multiply, identical to the scalar path.
		assert.Equal(t, a[i]*0.25, dst[i])
	}
}

func TestScaleInPlace(t *testing.T) {
	a := []float32{1, 2, 3, 4, 5}
	For[float32]().Scale(a, a, 2)
	assert.Equal(t, []float32{2, 4, 6, 8, 10}, a)
}

func TestSum(t *testing.T) {
	assert.InDelta(t, 15.0, For[float64]().Sum([]float64{1, 2, 3, 4, 5}), 1e-12)
}

func TestRMS(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{"Empty", nil, 0},
		{"Constant", []float64{2, 2, 2, 2}, 2},
		{"Alternating", []float64{1, -1, 1, -1}, 1},
		{"Mixed", []float64{3, 4}, math.Sqrt(12.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, RMS(tt.input), 1e-12)
		})
	}
}

func TestRMS_Sine(t *testing.T) {
	n := 4800
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(math.Sin(2 * math.Pi * 100 * float64(i) / 48000))
	}
	assert.InDelta(t, 1/math.Sqrt2, float64(RMS(s)), 1e-4)
}

func BenchmarkRMS(b *testing.B) {
	a := make([]float64, 441)
	for i := range a {
		a[i] = float64(i) * 0.01
	}

	b.ReportAllocs()
	for b.Loop() {
		_ = RMS(a)
	}
}

func TestInfo(t *testing.T) {
	assert.NotEmpty(t, Info())
}
