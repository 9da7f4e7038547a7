package testutil

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingT captures failures instead of failing the test.
type recordingT struct {
	errors []string
}

func (r *recordingT) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *recordingT) output() string {
	return strings.Join(r.errors, "\n")
}

func TestAssertHelpers_ForwardMessage(t *testing.T) {
	tests := []struct {
		name   string
		check  func(rt *recordingT) bool
		detail string
	}{
		{
			name:   "NaN",
			check:  func(rt *recordingT) bool { return AssertNoNaNOrInf(rt, []float64{0, math.NaN()}, "channel %d", 3) },
			detail: "s[1] is NaN",
		},
		{
			name:   "Inf",
			check:  func(rt *recordingT) bool { return AssertNoNaNOrInf(rt, []float64{math.Inf(-1)}, "channel %d", 3) },
			detail: "s[0] is Inf",
		},
		{
			name:   "All in range",
			check:  func(rt *recordingT) bool { return AssertAllInRange(rt, []float64{0.5, 2}, 0, 1, "channel %d", 3) },
			detail: "s[1]=2.000000",
		},
		{
			name:   "Strictly increasing",
			check:  func(rt *recordingT) bool { return AssertStrictlyIncreasing(rt, []float64{1, 2, 2}, "channel %d", 3) },
			detail: "s[2]=2 <= s[1]=2",
		},
		{
			name:   "Relative error",
			check:  func(rt *recordingT) bool { return AssertRelativeError(rt, 1, 1.5, 0.1, "channel %d", 3) },
			detail: "exceeds tolerance",
		},
		{
			name:   "In range",
			check:  func(rt *recordingT) bool { return AssertInRange(rt, -1, 0, 1, "channel %d", 3) },
			detail: "value -1.000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &recordingT{}
			assert.False(t, tt.check(rt))
			assert.Contains(t, rt.output(), tt.detail)
			assert.Contains(t, rt.output(), "channel 3")
		})
	}
}

func TestAssertHelpers_Pass(t *testing.T) {
	rt := &recordingT{}
	assert.True(t, AssertNoNaNOrInf(rt, []float64{0, 1, -1}))
	assert.True(t, AssertAllInRange(rt, []float64{0, 0.5, 1}, 0, 1))
	assert.True(t, AssertStrictlyIncreasing(rt, []float64{1, 2, 3}))
	assert.True(t, AssertRelativeError(rt, 100, 100.5, 0.01))
	assert.True(t, AssertInRange(rt, 0.5, 0, 1))
	assert.Empty(t, rt.errors)
}

func TestImpulse(t *testing.T) {
	assert.Equal(t, []float64{1, 0, 0}, Impulse(3))
	assert.Empty(t, Impulse(0))
}

func TestPeakAbs(t *testing.T) {
	idx, peak := PeakAbs([]float64{0.2, -0.9, 0.5})
	assert.Equal(t, 1, idx)
	assert.InDelta(t, 0.9, peak, 1e-15)
}
