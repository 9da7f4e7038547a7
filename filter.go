package gammatone

import (
	"context"
	"fmt"
	"math"

	"github.com/tphakala/go-gammatone/internal/core"
	"github.com/tphakala/go-gammatone/internal/simdops"
	"gonum.org/v1/gonum/mat"
)

// Filter is a single gammatone bandpass filter.
//
// A Filter is a stream processor: every call advances its internal state,
// and the next call continues where the previous one stopped. A Filter is
// not safe for concurrent use.
type Filter struct {
	sampleFrequency float64
	centerFrequency float64
	bandwidth       float64
	post            PostProcessing
	coreType        CoreType

	core core.Core

	// snap holds the state saved at the start of a sequence call.
	snap []complex128
}

// NewFilter creates a gammatone filter centered on centerFrequency for a
// signal sampled at sampleFrequency.
func NewFilter(sampleFrequency, centerFrequency float64, opts ...Option) (*Filter, error) {
	s := applyOptions(opts)
	return NewFilterWithConfig(&FilterConfig{
		SampleFrequency: sampleFrequency,
		CenterFrequency: centerFrequency,
		FilterOptions:   s.filter,
	})
}

// NewFilterWithConfig creates a gammatone filter from a configuration.
func NewFilterWithConfig(config *FilterConfig) (*Filter, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidParameter)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return newFilter(config.SampleFrequency, config.CenterFrequency, config.FilterOptions.withDefaults())
}

// newFilter builds a filter from validated parameters.
func newFilter(fs, cf float64, opts FilterOptions) (*Filter, error) {
	bw := opts.Bandwidth.Bandwidth(cf)

	c, err := core.Build(coreKinds[opts.Core], core.Params{
		SampleFrequency: fs,
		CenterFrequency: cf,
		Bandwidth:       bw,
		Order:           opts.Order,
		Normalize:       opts.Gain == GainUnit,
		Clip:            opts.Clipping,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %g Hz: %w", ErrInvalidParameter, cf, err)
	}

	return &Filter{
		sampleFrequency: fs,
		centerFrequency: cf,
		bandwidth:       bw,
		post:            opts.PostProcessing,
		coreType:        opts.Core,
		core:            c,
	}, nil
}

// SampleFrequency returns the input sample rate in Hz.
func (f *Filter) SampleFrequency() float64 { return f.sampleFrequency }

// CenterFrequency returns the filter center frequency in Hz.
func (f *Filter) CenterFrequency() float64 { return f.centerFrequency }

// Bandwidth returns the filter bandwidth parameter in Hz.
func (f *Filter) Bandwidth() float64 { return f.bandwidth }

// Order returns the gammatone order.
func (f *Filter) Order() int { return f.core.Order() }

// Core returns the filter implementation.
func (f *Filter) Core() CoreType { return f.coreType }

// Gain returns the internal recursion gain at the center frequency, the
// inverse of the output normalization factor. It is 1 with GainOff.
func (f *Filter) Gain() float64 { return 1 / f.core.Factor() }

// ComputeSample filters one sample and advances the state.
func (f *Filter) ComputeSample(x float64) float64 {
	return f.postProcess(f.core.Step(x))
}

// Compute filters a sequence. The output has one sample per input
// sample, and the state is left advanced by the whole sequence, so the
// result equals calling ComputeSample on every element in order.
//
// If the recursion diverges, ErrNumericalInstability is returned and the
// state is left as it was before the call.
func (f *Filter) Compute(xs []float64) ([]float64, error) {
	return f.ComputeContext(context.Background(), xs)
}

// ComputeContext is like Compute but checks ctx periodically. On
// cancellation the state is rolled back and the context error returned.
func (f *Filter) ComputeContext(ctx context.Context, xs []float64) ([]float64, error) {
	out := make([]float64, len(xs))

	f.snap = f.core.Snapshot(f.snap)
	if err := f.process(ctx, out, xs); err != nil {
		f.core.Restore(f.snap)
		return nil, err
	}

	return out, nil
}

// ComputeFloat32 is like Compute but for float32 samples. Processing runs
// in float64 internally.
func (f *Filter) ComputeFloat32(xs []float32) ([]float32, error) {
	out, err := f.Compute(toFloat64(xs))
	if err != nil {
		return nil, err
	}
	return toFloat32(out), nil
}

// ComputeMatrix filters a gonum vector. Any input that does not implement
// mat.Vector is rejected with ErrInputShape before the state is touched.
func (f *Filter) ComputeMatrix(m mat.Matrix) (*mat.VecDense, error) {
	xs, err := vectorData(m)
	if err != nil {
		return nil, err
	}

	out, err := f.Compute(xs)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(len(out), out), nil
}

// process filters xs into out in blocks, checking ctx between blocks.
// It does not roll back on error, callers do.
func (f *Filter) process(ctx context.Context, out, xs []float64) error {
	scale := simdops.Float64Ops().Scale
	factor := f.core.Factor()

	for start := 0; start < len(xs); start += cancelCheckInterval {
		if err := checkContext(ctx, start); err != nil {
			return err
		}

		end := min(start+cancelCheckInterval, len(xs))
		block := out[start:end]

		f.core.ProcessRaw(block, xs[start:end])
		scale(block, block, factor)
		if f.post == PostHalfWaveRectify {
			for i, v := range block {
				block[i] = math.Max(0, v)
			}
		}

		if err := checkOutputs(start, block); err != nil {
			return err
		}
	}

	return nil
}

func (f *Filter) postProcess(y float64) float64 {
	if f.post == PostHalfWaveRectify {
		return math.Max(0, y)
	}
	return y
}

// Reset returns the filter to its initial state.
func (f *Filter) Reset() {
	f.core.Reset()
}

// State returns a copy of the internal state. With the Holdsworth core it
// holds one complex accumulator per cascaded section; the layout of the
// other cores is their own.
func (f *Filter) State() []complex128 {
	return f.core.Snapshot(nil)
}

// Response returns the complex frequency response at freq Hz, including
// gain normalization but not post-processing.
func (f *Filter) Response(freq float64) complex128 {
	return f.core.Response(2 * math.Pi * freq / f.sampleFrequency)
}

// ImpulseResponse returns the first n samples of the filter's impulse
// response. It runs on a fresh copy, the filter's own state is untouched.
func (f *Filter) ImpulseResponse(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}

	fresh := &Filter{
		sampleFrequency: f.sampleFrequency,
		centerFrequency: f.centerFrequency,
		bandwidth:       f.bandwidth,
		post:            f.post,
		coreType:        f.coreType,
		core:            f.core.Clone(),
	}

	ir := make([]float64, n)
	ir[0] = fresh.ComputeSample(1)
	for i := 1; i < n; i++ {
		ir[i] = fresh.ComputeSample(0)
	}
	return ir
}

// Ensure implementations satisfy the interface
var _ Processor = (*Filter)(nil)
