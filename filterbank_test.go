package gammatone

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-gammatone/internal/testutil"
	"gonum.org/v1/gonum/mat"
)

func newTestFilterbank(t *testing.T, fs, low, high float64, n int, opts ...Option) *Filterbank {
	t.Helper()
	fb, err := NewFilterbank(fs, low, high, n, opts...)
	require.NoError(t, err)
	return fb
}

// channelStates snapshots every channel's state.
func channelStates(fb *Filterbank) [][]complex128 {
	states := make([][]complex128, fb.NbChannels())
	for k := range states {
		states[k] = fb.Channel(k).State()
	}
	return states
}

func TestNewFilterbank_Layout(t *testing.T) {
	fb := newTestFilterbank(t, 44100, 300, 8000, 10)

	assert.Equal(t, 10, fb.NbChannels())
	assert.Equal(t, 44100.0, fb.SampleFrequency())
	assert.Equal(t, 300.0, fb.LowFrequency())
	assert.Equal(t, 8000.0, fb.HighFrequency())

	cfs := fb.CenterFrequencies()
	require.Len(t, cfs, 10)
	assert.Equal(t, 300.0, cfs[0])
	assert.Equal(t, 8000.0, cfs[9])
	testutil.AssertStrictlyIncreasing(t, cfs)
	testutil.AssertStrictlyIncreasing(t, fb.Bandwidths(), "bandwidth grows with frequency")
}

func TestNewFilterbank_ERBSpacing(t *testing.T) {
	fb := newTestFilterbank(t, 16000, 100, 6000, 24)

	q := Glasberg1990.EarQ
	alpha := q * Glasberg1990.MinBandwidth
	cfs := fb.CenterFrequencies()
	for i := 1; i < len(cfs); i++ {
		step := q * (math.Log(cfs[i]+alpha) - math.Log(cfs[i-1]+alpha))
		assert.InDelta(t, fb.OverlapFactor(), step, 1e-9, "channel %d", i)
	}
}

func TestNewFilterbank_SingleChannel(t *testing.T) {
	fb := newTestFilterbank(t, 16000, 100, 4000, 1)

	cfs := fb.CenterFrequencies()
	require.Len(t, cfs, 1)
	testutil.AssertInRange(t, cfs[0], 100, 4000)
}

func TestNewFilterbank_Decreasing(t *testing.T) {
	inc := newTestFilterbank(t, 16000, 100, 6000, 12)
	dec := newTestFilterbank(t, 16000, 100, 6000, 12, WithChannelOrder(Decreasing))

	want := inc.CenterFrequencies()
	slices.Reverse(want)
	assert.Equal(t, want, dec.CenterFrequencies())
	assert.Equal(t, 6000.0, dec.CenterFrequencies()[0])
}

func TestNewFilterbankWithOverlap(t *testing.T) {
	fb, err := NewFilterbankWithOverlap(16000, 100, 4000, 0.5)
	require.NoError(t, err)

	assert.Greater(t, fb.NbChannels(), 1)
	n := float64(fb.NbChannels())
	assert.GreaterOrEqual(t, fb.OverlapFactor(), 0.5-1e-12)
	assert.Less(t, fb.OverlapFactor(), 0.5*n/(n-1))

	wider, err := NewFilterbankWithOverlap(16000, 100, 4000, 1)
	require.NoError(t, err)
	assert.Less(t, wider.NbChannels(), fb.NbChannels())
}

func TestNewFilterbank_InvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		config FilterbankConfig
	}{
		{"zero sample rate", FilterbankConfig{SampleFrequency: 0, LowFrequency: 100, HighFrequency: 1000, Channels: 4}},
		{"low equals high", FilterbankConfig{SampleFrequency: 16000, LowFrequency: 1000, HighFrequency: 1000, Channels: 4}},
		{"low above high", FilterbankConfig{SampleFrequency: 16000, LowFrequency: 2000, HighFrequency: 1000, Channels: 4}},
		{"zero low", FilterbankConfig{SampleFrequency: 16000, LowFrequency: 0, HighFrequency: 1000, Channels: 4}},
		{"high at nyquist", FilterbankConfig{SampleFrequency: 16000, LowFrequency: 100, HighFrequency: 8000, Channels: 4}},
		{"zero channels", FilterbankConfig{SampleFrequency: 16000, LowFrequency: 100, HighFrequency: 1000}},
		{"negative channels", FilterbankConfig{SampleFrequency: 16000, LowFrequency: 100, HighFrequency: 1000, Channels: -3}},
		{"too many channels", FilterbankConfig{SampleFrequency: 16000, LowFrequency: 100, HighFrequency: 1000, Channels: maxChannels + 1}},
		{"channels and overlap", FilterbankConfig{SampleFrequency: 16000, LowFrequency: 100, HighFrequency: 1000, Channels: 4, Overlap: 0.5}},
		{"negative overlap", FilterbankConfig{SampleFrequency: 16000, LowFrequency: 100, HighFrequency: 1000, Overlap: -1}},
		{"tiny overlap", FilterbankConfig{SampleFrequency: 16000, LowFrequency: 100, HighFrequency: 1000, Overlap: 1e-9}},
		{"bad channel order", FilterbankConfig{SampleFrequency: 16000, LowFrequency: 100, HighFrequency: 1000, Channels: 4, ChannelOrder: ChannelOrder(5)}},
		{"bad filter order", FilterbankConfig{SampleFrequency: 16000, LowFrequency: 100, HighFrequency: 1000, Channels: 4, FilterOptions: FilterOptions{Order: 20}}},
		{"order unsupported by core", FilterbankConfig{SampleFrequency: 16000, LowFrequency: 100, HighFrequency: 1000, Channels: 4, FilterOptions: FilterOptions{Order: 2, Core: CoreSlaney1993}}},
		{"unknown core", FilterbankConfig{SampleFrequency: 16000, LowFrequency: 100, HighFrequency: 1000, Channels: 4, FilterOptions: FilterOptions{Core: CoreType(9)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, err := NewFilterbankWithConfig(&tt.config)
			require.ErrorIs(t, err, ErrInvalidParameter)
			assert.Nil(t, fb)
		})
	}

	_, err := NewFilterbankWithConfig(nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestNewFilterbank_RangeTooNarrowForChannels(t *testing.T) {
	high := math.Nextafter(math.Nextafter(1000, 2000), 2000)

	fb, err := NewFilterbank(16000, 1000, high, 5)
	require.ErrorIs(t, err, ErrInvalidParameter)
	assert.Nil(t, fb)

	fb, err = NewFilterbank(16000, 1000, high, 2)
	require.NoError(t, err)
	testutil.AssertStrictlyIncreasing(t, fb.CenterFrequencies(), "distinct channels")
}

func TestFilterbank_ChannelIndependence(t *testing.T) {
	const fs = 44100.0
	fb := newTestFilterbank(t, fs, 300, 8000, 10)
	input := testutil.Impulse(1000)

	rows, err := fb.Compute(input)
	require.NoError(t, err)
	require.Len(t, rows, 1000)
	for _, row := range rows {
		require.Len(t, row, 10)
	}

	for k, cf := range fb.CenterFrequencies() {
		want, err := newTestFilter(t, fs, cf).Compute(input)
		require.NoError(t, err)
		assert.Equal(t, want, testutil.Column(rows, k), "channel %d at %.1f Hz", k, cf)
	}
}

func TestFilterbank_ComputeSampleMatchesCompute(t *testing.T) {
	input := testutil.Sine(600, 1200, 16000)

	rows, err := newTestFilterbank(t, 16000, 200, 5000, 6).Compute(input)
	require.NoError(t, err)

	fb := newTestFilterbank(t, 16000, 200, 5000, 6)
	dst := make([]float64, fb.NbChannels())
	for i, x := range input {
		if i%2 == 0 {
			assert.Equal(t, rows[i], fb.ComputeSample(x), "sample %d", i)
		} else {
			fb.ComputeSampleInto(dst, x)
			assert.Equal(t, rows[i], dst, "sample %d", i)
		}
	}
}

func TestFilterbank_ParallelMatchesSequential(t *testing.T) {
	input := testutil.Sine(3*cancelCheckInterval+100, 440, 44100)
	for i := range input {
		input[i] += 0.3 * math.Sin(float64(i)*0.37)
	}

	seq := newTestFilterbank(t, 44100, 50, 16000, 32)
	par := newTestFilterbank(t, 44100, 50, 16000, 32, WithParallel(true))

	for range 2 {
		want, err := seq.Compute(input)
		require.NoError(t, err)
		got, err := par.Compute(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, channelStates(seq), channelStates(par))
}

func TestFilterbank_Cores(t *testing.T) {
	input := testutil.Sine(2000, 1000, 16000)

	for _, c := range allCores {
		t.Run(c.String(), func(t *testing.T) {
			seq := newTestFilterbank(t, 16000, 200, 5000, 6, WithCore(c))
			par := newTestFilterbank(t, 16000, 200, 5000, 6, WithCore(c), WithParallel(true))

			for k := range seq.NbChannels() {
				assert.Equal(t, c, seq.Channel(k).Core())
			}

			want, err := seq.Compute(input)
			require.NoError(t, err)
			got, err := par.Compute(input)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, channelStates(seq), channelStates(par))
		})
	}
}

func TestFilterbank_InstabilityRollsBackAllChannels(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		fb := newTestFilterbank(t, 16000, 100, 6000, 8, WithParallel(parallel))
		_, err := fb.Compute(testutil.Sine(200, 500, 16000))
		require.NoError(t, err)
		before := channelStates(fb)

		rows, err := fb.Compute([]float64{0.1, 0.2, math.Inf(-1), 0.3})
		require.ErrorIs(t, err, ErrNumericalInstability, "parallel=%v", parallel)
		assert.Nil(t, rows)
		assert.Equal(t, before, channelStates(fb), "parallel=%v", parallel)
	}
}

func TestFilterbank_ComputeContext_Canceled(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		fb := newTestFilterbank(t, 16000, 100, 6000, 4, WithParallel(parallel))
		_, err := fb.Compute(testutil.Sine(200, 500, 16000))
		require.NoError(t, err)
		before := channelStates(fb)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = fb.ComputeContext(ctx, testutil.Sine(100, 500, 16000))
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, before, channelStates(fb), "parallel=%v", parallel)
	}
}

func TestFilterbank_ComputeMatrix(t *testing.T) {
	input := testutil.Sine(300, 800, 16000)

	rows, err := newTestFilterbank(t, 16000, 100, 6000, 5).Compute(input)
	require.NoError(t, err)

	out, err := newTestFilterbank(t, 16000, 100, 6000, 5).ComputeMatrix(mat.NewVecDense(len(input), input))
	require.NoError(t, err)

	r, c := out.Dims()
	assert.Equal(t, 300, r)
	assert.Equal(t, 5, c)
	for i := range rows {
		assert.InDeltaSlice(t, rows[i], out.RawRowView(i), 1e-12)
	}
}

func TestFilterbank_ComputeMatrix_RejectsNonVector(t *testing.T) {
	fb := newTestFilterbank(t, 16000, 100, 6000, 5)
	_, err := fb.Compute(testutil.Sine(64, 1000, 16000))
	require.NoError(t, err)
	before := channelStates(fb)

	out, err := fb.ComputeMatrix(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}))
	require.ErrorIs(t, err, ErrInputShape)
	assert.Nil(t, out)
	assert.Equal(t, before, channelStates(fb))

	_, err = fb.ComputeMatrix(&mat.VecDense{})
	assert.ErrorIs(t, err, ErrInputShape, "empty vector")
}

func TestFilterbank_ComputeFloat32(t *testing.T) {
	input := testutil.Sine(400, 900, 16000)
	input32 := make([]float32, len(input))
	for i, v := range input {
		input32[i] = float32(v)
	}

	want, err := newTestFilterbank(t, 16000, 100, 6000, 4).Compute(input)
	require.NoError(t, err)
	got, err := newTestFilterbank(t, 16000, 100, 6000, 4).ComputeFloat32(input32)
	require.NoError(t, err)

	require.Len(t, got, len(want))
	for i := range want {
		for k := range want[i] {
			assert.InDelta(t, want[i][k], float64(got[i][k]), 1e-5)
		}
	}
}

func TestFilterbank_EmptyInput(t *testing.T) {
	fb := newTestFilterbank(t, 16000, 100, 6000, 4)

	rows, err := fb.Compute([]float64{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFilterbank_ResetAndImpulseResponses(t *testing.T) {
	fb := newTestFilterbank(t, 16000, 100, 6000, 4)
	irs := fb.ImpulseResponses(128)
	require.Len(t, irs, 4)

	rows, err := fb.Compute(testutil.Impulse(128))
	require.NoError(t, err)
	for k := range irs {
		assert.InDeltaSlice(t, irs[k], testutil.Column(rows, k), 1e-12)
	}

	fb.Reset()
	for _, s := range channelStates(fb) {
		assert.Equal(t, make([]complex128, 4), s)
	}
}

func TestFilterbank_PostProcessingAppliesToEveryChannel(t *testing.T) {
	fb := newTestFilterbank(t, 16000, 100, 6000, 6, WithPostProcessing(PostHalfWaveRectify))

	rows, err := fb.Compute(testutil.Sine(2000, 1000, 16000))
	require.NoError(t, err)
	for _, row := range rows {
		testutil.AssertAllInRange(t, row, 0, math.Inf(1))
	}
}

func BenchmarkFilterbank_Compute(b *testing.B) {
	input := testutil.Sine(44100, 440, 44100)

	for _, parallel := range []bool{false, true} {
		name := "Sequential"
		if parallel {
			name = "Parallel"
		}
		b.Run(name, func(b *testing.B) {
			fb, err := NewFilterbank(44100, 50, 16000, 32, WithParallel(parallel))
			require.NoError(b, err)

			b.ReportAllocs()
			for b.Loop() {
				_, _ = fb.Compute(input)
			}
		})
	}
}
