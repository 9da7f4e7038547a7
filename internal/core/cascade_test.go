package core

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-gammatone/internal/testutil"
)

func newTestCascade(t *testing.T, fs, fc, bw float64, order int) *Cascade {
	t.Helper()
	c, err := New(Params{
		SampleFrequency: fs,
		CenterFrequency: fc,
		Bandwidth:       bw,
		Order:           order,
		Normalize:       true,
	})
	require.NoError(t, err)
	return c
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"Zero order", Params{SampleFrequency: 8000, CenterFrequency: 1000, Bandwidth: 100, Order: 0}},
		{"Order too high", Params{SampleFrequency: 8000, CenterFrequency: 1000, Bandwidth: 100, Order: MaxOrder + 1}},
		{"Zero sample frequency", Params{SampleFrequency: 0, CenterFrequency: 1000, Bandwidth: 100, Order: 4}},
		{"Negative center", Params{SampleFrequency: 8000, CenterFrequency: -1, Bandwidth: 100, Order: 4}},
		{"NaN bandwidth", Params{SampleFrequency: 8000, CenterFrequency: 1000, Bandwidth: math.NaN(), Order: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.params)
			assert.Error(t, err)
			assert.Nil(t, c)
		})
	}
}

func TestCascade_UnitGainAtCenter(t *testing.T) {
	for _, order := range []int{1, 2, 4, 6} {
		for _, fc := range []float64{100, 1000, 3000} {
			c := newTestCascade(t, 8000, fc, 1.019*(24.7+fc/9.26449), order)
			omega := 2 * math.Pi * fc / 8000
			assert.InDelta(t, 1.0, cmplx.Abs(c.Response(omega)), 1e-9, "order %d fc %v", order, fc)
		}
	}
}

func TestCascade_ImpulseMatchesClosedForm(t *testing.T) {
	// For an impulse, the last of N sections holds C(n+N-1, N-1)·pⁿ.
	const order = 4
	c := newTestCascade(t, 16000, 1000, 130, order)
	p := c.Pole()

	for n := range 200 {
		x := 0.0
		if n == 0 {
			x = 1
		}
		got := c.Step(x)

		binom := float64((n + 1) * (n + 2) * (n + 3) / 6)
		want := c.Factor() * binom * real(cmplx.Pow(p, complex(float64(n), 0)))
		assert.InDelta(t, want, got, 1e-12, "sample %d", n)
	}
}

func TestCascade_StepMatchesProcessRaw(t *testing.T) {
	a := newTestCascade(t, 44100, 440, 80, 4)
	b := a.Clone()

	input := testutil.Sine(1024, 440, 44100)
	raw := make([]float64, len(input))
	b.ProcessRaw(raw, input)

	for i, x := range input {
		assert.Equal(t, a.Step(x), b.Factor()*raw[i], "sample %d", i)
	}
}

func TestCascade_SnapshotRestore(t *testing.T) {
	c := newTestCascade(t, 8000, 1000, 135, 4)
	for _, x := range testutil.Sine(50, 700, 8000) {
		c.Step(x)
	}

	snap := c.Snapshot(nil)
	first := make([]float64, 20)
	for i := range first {
		first[i] = c.Step(0.5)
	}

	c.Restore(snap)
	for i := range first {
		assert.Equal(t, first[i], c.Step(0.5))
	}
}

func TestCascade_Reset(t *testing.T) {
	c := newTestCascade(t, 8000, 1000, 135, 4)
	fresh := c.Clone()

	c.Step(1)
	c.Step(-0.3)
	c.Reset()

	for range 10 {
		assert.Equal(t, fresh.Step(0.7), c.Step(0.7))
	}
}

func TestCascade_Clip(t *testing.T) {
	c, err := New(Params{
		SampleFrequency: 8000,
		CenterFrequency: 1000,
		Bandwidth:       135,
		Order:           4,
		Normalize:       true,
		Clip:            true,
	})
	require.NoError(t, err)

	c.Step(1e-250)
	for _, s := range c.Snapshot(nil) {
		assert.Equal(t, complex128(0), s)
	}
}

func TestCascade_WithoutNormalization(t *testing.T) {
	c, err := New(Params{SampleFrequency: 8000, CenterFrequency: 1000, Bandwidth: 135, Order: 4})
	require.NoError(t, err)

	assert.Equal(t, 1.0, c.Factor())
	assert.Equal(t, 1.0, c.Step(1))
}

func BenchmarkCascade_Step(b *testing.B) {
	c, err := New(Params{SampleFrequency: 44100, CenterFrequency: 1000, Bandwidth: 135, Order: 4, Normalize: true})
	if err != nil {
		b.Fatal(err)
	}

	input := testutil.Sine(4096, 1000, 44100)
	i := 0
	for b.Loop() {
		_ = c.Step(input[i&4095])
		i++
	}
}
