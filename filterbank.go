package gammatone

import (
	"context"
	"fmt"
	"sync"

	"github.com/tphakala/go-gammatone/internal/auditory"
	"gonum.org/v1/gonum/mat"
)

// Filterbank is a bank of gammatone filters with center frequencies equally
// spaced on the ERB-rate scale of its bandwidth policy.
//
// Every channel is an independent Filter fed the same input. Like Filter,
// a Filterbank is stateful and not safe for concurrent use.
type Filterbank struct {
	sampleFrequency float64
	lowFrequency    float64
	highFrequency   float64
	overlap         float64
	parallel        bool

	channels []*Filter
}

// NewFilterbank creates a filterbank of nbChannels filters between
// lowFrequency and highFrequency, both included.
func NewFilterbank(sampleFrequency, lowFrequency, highFrequency float64, nbChannels int, opts ...Option) (*Filterbank, error) {
	s := applyOptions(opts)
	return NewFilterbankWithConfig(&FilterbankConfig{
		SampleFrequency: sampleFrequency,
		LowFrequency:    lowFrequency,
		HighFrequency:   highFrequency,
		Channels:        nbChannels,
		ChannelOrder:    s.channelOrder,
		EnableParallel:  s.parallel,
		FilterOptions:   s.filter,
	})
}

// NewFilterbankWithOverlap creates a filterbank whose channel count is
// derived from overlap, the spacing between adjacent channels in ERB units.
// Smaller values give more, more strongly overlapping channels.
func NewFilterbankWithOverlap(sampleFrequency, lowFrequency, highFrequency, overlap float64, opts ...Option) (*Filterbank, error) {
	s := applyOptions(opts)
	return NewFilterbankWithConfig(&FilterbankConfig{
		SampleFrequency: sampleFrequency,
		LowFrequency:    lowFrequency,
		HighFrequency:   highFrequency,
		Overlap:         overlap,
		ChannelOrder:    s.channelOrder,
		EnableParallel:  s.parallel,
		FilterOptions:   s.filter,
	})
}

// NewFilterbankWithConfig creates a filterbank from a configuration.
func NewFilterbankWithConfig(config *FilterbankConfig) (*Filterbank, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidParameter)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := config.FilterOptions.withDefaults()
	scale := opts.Bandwidth.scale()
	order := auditory.Increasing
	if config.ChannelOrder == Decreasing {
		order = auditory.Decreasing
	}

	var (
		layout auditory.Layout
		err    error
	)
	if config.Overlap != 0 {
		n := auditory.ChannelsForOverlap(scale, config.LowFrequency, config.HighFrequency, config.Overlap)
		if n > maxChannels {
			return nil, fmt.Errorf("%w: overlap %g yields too many channels (max %d)",
				ErrInvalidParameter, config.Overlap, maxChannels)
		}
		layout, err = auditory.FixedOverlap(scale, config.LowFrequency, config.HighFrequency, config.Overlap, order)
	} else {
		layout, err = auditory.FixedSize(scale, config.LowFrequency, config.HighFrequency, config.Channels, order)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	channels := make([]*Filter, len(layout.Frequencies))
	for i, cf := range layout.Frequencies {
		f, err := newFilter(config.SampleFrequency, cf, opts)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		channels[i] = f
	}

	return &Filterbank{
		sampleFrequency: config.SampleFrequency,
		lowFrequency:    config.LowFrequency,
		highFrequency:   config.HighFrequency,
		overlap:         layout.Overlap,
		parallel:        config.EnableParallel,
		channels:        channels,
	}, nil
}

// SampleFrequency returns the input sample rate in Hz.
func (fb *Filterbank) SampleFrequency() float64 { return fb.sampleFrequency }

// LowFrequency returns the lower bound of the center frequencies.
func (fb *Filterbank) LowFrequency() float64 { return fb.lowFrequency }

// HighFrequency returns the upper bound of the center frequencies.
func (fb *Filterbank) HighFrequency() float64 { return fb.highFrequency }

// NbChannels returns the number of channels.
func (fb *Filterbank) NbChannels() int { return len(fb.channels) }

// OverlapFactor returns the spacing between adjacent channels in ERB units.
func (fb *Filterbank) OverlapFactor() float64 { return fb.overlap }

// Channel returns channel k. The returned filter shares state with the
// filterbank.
func (fb *Filterbank) Channel(k int) *Filter { return fb.channels[k] }

// CenterFrequencies returns the channel center frequencies in channel order.
func (fb *Filterbank) CenterFrequencies() []float64 {
	out := make([]float64, len(fb.channels))
	for i, ch := range fb.channels {
		out[i] = ch.CenterFrequency()
	}
	return out
}

// Bandwidths returns the channel bandwidths in channel order.
func (fb *Filterbank) Bandwidths() []float64 {
	out := make([]float64, len(fb.channels))
	for i, ch := range fb.channels {
		out[i] = ch.Bandwidth()
	}
	return out
}

// ComputeSample filters one sample through every channel.
func (fb *Filterbank) ComputeSample(x float64) []float64 {
	out := make([]float64, len(fb.channels))
	fb.ComputeSampleInto(out, x)
	return out
}

// ComputeSampleInto is like ComputeSample but writes into dst, which must
// hold at least NbChannels values.
func (fb *Filterbank) ComputeSampleInto(dst []float64, x float64) {
	for i, ch := range fb.channels {
		dst[i] = ch.ComputeSample(x)
	}
}

// Compute filters a sequence through every channel and returns a table
// with one row per input sample and one column per channel. The rows share
// a single backing array.
//
// Column k equals Channel(k).Compute(xs) on a filterbank in the same
// state. On error all channels are left as they were before the call.
func (fb *Filterbank) Compute(xs []float64) ([][]float64, error) {
	return fb.ComputeContext(context.Background(), xs)
}

// ComputeContext is like Compute but checks ctx periodically.
func (fb *Filterbank) ComputeContext(ctx context.Context, xs []float64) ([][]float64, error) {
	columns, err := fb.computeColumns(ctx, xs)
	if err != nil {
		return nil, err
	}

	nch := len(fb.channels)
	backing := make([]float64, len(xs)*nch)
	rows := make([][]float64, len(xs))
	for i := range rows {
		rows[i] = backing[i*nch : (i+1)*nch : (i+1)*nch]
	}
	for k, col := range columns {
		for i, v := range col {
			rows[i][k] = v
		}
	}

	return rows, nil
}

// ComputeFloat32 is like Compute but for float32 samples.
func (fb *Filterbank) ComputeFloat32(xs []float32) ([][]float32, error) {
	rows, err := fb.Compute(toFloat64(xs))
	if err != nil {
		return nil, err
	}

	nch := len(fb.channels)
	backing := make([]float32, len(rows)*nch)
	out := make([][]float32, len(rows))
	for i, row := range rows {
		out[i] = backing[i*nch : (i+1)*nch : (i+1)*nch]
		for k, v := range row {
			out[i][k] = float32(v)
		}
	}
	return out, nil
}

// ComputeMatrix filters a gonum vector and returns a len × NbChannels
// matrix. Inputs that do not implement mat.Vector are rejected with
// ErrInputShape before any state is touched.
func (fb *Filterbank) ComputeMatrix(m mat.Matrix) (*mat.Dense, error) {
	xs, err := vectorData(m)
	if err != nil {
		return nil, err
	}

	columns, err := fb.computeColumns(context.Background(), xs)
	if err != nil {
		return nil, err
	}

	out := mat.NewDense(len(xs), len(fb.channels), nil)
	for k, col := range columns {
		out.SetCol(k, col)
	}
	return out, nil
}

// computeColumns runs every channel over xs, sequentially or one goroutine
// per channel. All channel states are restored if any channel fails.
func (fb *Filterbank) computeColumns(ctx context.Context, xs []float64) ([][]float64, error) {
	snaps := make([][]complex128, len(fb.channels))
	for k, ch := range fb.channels {
		snaps[k] = ch.core.Snapshot(nil)
	}

	columns := make([][]float64, len(fb.channels))
	for k := range columns {
		columns[k] = make([]float64, len(xs))
	}

	var err error
	if fb.parallel && len(fb.channels) > 1 {
		err = fb.processParallel(ctx, columns, xs)
	} else {
		err = fb.processSequential(ctx, columns, xs)
	}

	if err != nil {
		for k, ch := range fb.channels {
			ch.core.Restore(snaps[k])
		}
		return nil, err
	}

	return columns, nil
}

func (fb *Filterbank) processSequential(ctx context.Context, columns [][]float64, xs []float64) error {
	for k, ch := range fb.channels {
		if err := ch.process(ctx, columns[k], xs); err != nil {
			return fmt.Errorf("channel %d: %w", k, err)
		}
	}
	return nil
}

func (fb *Filterbank) processParallel(ctx context.Context, columns [][]float64, xs []float64) error {
	var wg sync.WaitGroup
	errChan := make(chan error, len(fb.channels))

	for k := range fb.channels {
		wg.Add(1)
		go func(channel int) {
			defer wg.Done()

			if err := fb.channels[channel].process(ctx, columns[channel], xs); err != nil {
				errChan <- fmt.Errorf("channel %d: %w", channel, err)
			}
		}(k)
	}

	wg.Wait()
	close(errChan)

	// Report the first failure, the others are rolled back with it.
	for err := range errChan {
		if err != nil {
			return err
		}
	}

	return nil
}

// Reset returns every channel to its initial state.
func (fb *Filterbank) Reset() {
	for _, ch := range fb.channels {
		ch.Reset()
	}
}

// ImpulseResponses returns the first n samples of every channel's impulse
// response, one slice per channel. Channel states are untouched.
func (fb *Filterbank) ImpulseResponses(n int) [][]float64 {
	out := make([][]float64, len(fb.channels))
	for k, ch := range fb.channels {
		out[k] = ch.ImpulseResponse(n)
	}
	return out
}
