package gammatone

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-gammatone/internal/auditory"
	"github.com/tphakala/go-gammatone/internal/core"
)

// Common errors returned by filters and filterbanks.
var (
	// ErrInvalidParameter indicates a frequency, channel count or option
	// outside its domain. Construction fails atomically.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInputShape indicates an input that is not one-dimensional.
	// It is returned before any state is touched.
	ErrInputShape = errors.New("input must be one-dimensional")

	// ErrNumericalInstability indicates the recursion produced a
	// non-finite or diverging output. State is rolled back.
	ErrNumericalInstability = errors.New("numerical instability")
)

// Processor is the per-sample primitive. Filter implements it, and so does
// every channel of a Filterbank.
type Processor interface {
	// ComputeSample filters one input sample and advances the state.
	ComputeSample(x float64) float64
}

// BandwidthPolicy sets the filter bandwidth as a function of its center
// frequency, after Slaney (1993):
//
//	b(fc) = 1.019 · ((fc/EarQ)^Order + MinBandwidth^Order)^(1/Order)
//
// It also defines the ERB-rate scale used to space filterbank channels.
type BandwidthPolicy struct {
	// Name identifies the policy.
	Name string

	// EarQ is the asymptotic filter quality at high frequencies.
	EarQ float64

	// MinBandwidth is the minimal bandwidth at low frequencies, in Hz.
	MinBandwidth float64

	// Order is the bandwidth formula order.
	Order int
}

// Predefined bandwidth policies.
var (
	// Glasberg1990 uses the Glasberg & Moore ERB. This is the default.
	Glasberg1990 = policyFromScale(auditory.Glasberg1990)

	// Slaney1988 uses the parameters of Lyon's cochlear model.
	Slaney1988 = policyFromScale(auditory.Slaney1988)

	// Greenwood1990 uses Greenwood's cochlear frequency-position parameters.
	Greenwood1990 = policyFromScale(auditory.Greenwood1990)
)

func policyFromScale(s auditory.Scale) BandwidthPolicy {
	return BandwidthPolicy{Name: s.Name, EarQ: s.EarQ, MinBandwidth: s.MinBW, Order: s.Order}
}

// BandwidthPolicyByName returns the predefined policy with the given name.
func BandwidthPolicyByName(name string) (BandwidthPolicy, error) {
	s, ok := auditory.ScaleByName(name)
	if !ok {
		return BandwidthPolicy{}, fmt.Errorf("%w: unknown bandwidth policy %q", ErrInvalidParameter, name)
	}
	return policyFromScale(s), nil
}

func (b BandwidthPolicy) scale() auditory.Scale {
	return auditory.Scale{Name: b.Name, EarQ: b.EarQ, MinBW: b.MinBandwidth, Order: b.Order}
}

// Bandwidth returns the filter bandwidth at centerFrequency, in Hz.
func (b BandwidthPolicy) Bandwidth(centerFrequency float64) float64 {
	return b.scale().Bandwidth(centerFrequency)
}

// ERB returns the equivalent rectangular bandwidth at centerFrequency.
func (b BandwidthPolicy) ERB(centerFrequency float64) float64 {
	return b.scale().ERB(centerFrequency)
}

// GainPolicy selects the output normalization.
type GainPolicy int

const (
	// GainUnit normalizes every filter to 0 dB at its center frequency.
	GainUnit GainPolicy = iota

	// GainOff leaves the recursion unnormalized.
	GainOff
)

// PostProcessing is applied to every output sample.
type PostProcessing int

const (
	// PostOff returns the filter output unchanged.
	PostOff PostProcessing = iota

	// PostHalfWaveRectify clamps negative outputs to zero, a crude model
	// of inner hair cell transduction.
	PostHalfWaveRectify
)

// ChannelOrder selects how filterbank channels are sorted.
type ChannelOrder int

const (
	// Increasing sorts channels from low to high center frequency.
	Increasing ChannelOrder = iota

	// Decreasing sorts channels from high to low, the cochlear base to
	// apex order.
	Decreasing
)

// CoreType selects the algorithm realizing the gammatone filter. All
// cores share the bandwidth, gain and post-processing semantics and differ
// in cost and in fine detail of their impulse responses.
type CoreType int

const (
	// CoreHoldsworth is a cascade of complex one-pole sections
	// (Holdsworth 1988). It supports every order and is the default.
	CoreHoldsworth CoreType = iota

	// CoreCooke1993 is the base-band impulse invariant filter of Cooke
	// (1993) as implemented by Ma (2006). Order 4 only.
	CoreCooke1993

	// CoreSlaney1993 is the four second order sections filter of Slaney
	// (1993). Order 4 only.
	CoreSlaney1993

	// CoreConvolution convolves the input with the sampled gammatone
	// impulse response. It is slow and meant as a reference.
	CoreConvolution
)

var coreKinds = map[CoreType]core.Kind{
	CoreHoldsworth:  core.Holdsworth,
	CoreCooke1993:   core.Cooke1993,
	CoreSlaney1993:  core.Slaney1993,
	CoreConvolution: core.Convolution,
}

// String returns the core name.
func (c CoreType) String() string {
	if k, ok := coreKinds[c]; ok {
		return k.String()
	}
	return fmt.Sprintf("CoreType(%d)", int(c))
}

// CoreTypeByName returns the core with the given name.
func CoreTypeByName(name string) (CoreType, error) {
	for c, k := range coreKinds {
		if k.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown core %q", ErrInvalidParameter, name)
}

// FilterOptions holds the per-filter settings shared by filters and
// filterbanks. The zero value selects the defaults: order 4, Glasberg1990
// bandwidths, the Holdsworth core, unit gain, no clipping, no
// post-processing.
type FilterOptions struct {
	// Order is the gammatone order (number of cascaded sections), 1-16.
	// Zero selects 4.
	Order int

	// Bandwidth selects the bandwidth formula. The zero value selects
	// Glasberg1990.
	Bandwidth BandwidthPolicy

	// Core selects the filter implementation.
	Core CoreType

	// Gain selects the output normalization.
	Gain GainPolicy

	// Clipping flushes state values below 1e-200 to zero, avoiding
	// denormal slowdowns on long runs of silence.
	Clipping bool

	// PostProcessing is applied to every output sample.
	PostProcessing PostProcessing
}

// withDefaults returns a copy with zero fields replaced by defaults.
func (o FilterOptions) withDefaults() FilterOptions {
	if o.Order == 0 {
		o.Order = core.DefaultOrder
	}
	if o.Bandwidth == (BandwidthPolicy{}) {
		o.Bandwidth = Glasberg1990
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o FilterOptions) Validate() error {
	o = o.withDefaults()

	if o.Order < 1 || o.Order > core.MaxOrder {
		return fmt.Errorf("%w: order must be 1-%d, got %d", ErrInvalidParameter, core.MaxOrder, o.Order)
	}
	kind, ok := coreKinds[o.Core]
	if !ok {
		return fmt.Errorf("%w: unknown core %d", ErrInvalidParameter, o.Core)
	}
	if !kind.SupportsOrder(o.Order) {
		return fmt.Errorf("%w: core %s does not support order %d", ErrInvalidParameter, o.Core, o.Order)
	}
	if err := o.Bandwidth.scale().Validate(); err != nil {
		return fmt.Errorf("%w: bandwidth policy: %w", ErrInvalidParameter, err)
	}
	if o.Gain != GainUnit && o.Gain != GainOff {
		return fmt.Errorf("%w: unknown gain policy %d", ErrInvalidParameter, o.Gain)
	}
	if o.PostProcessing != PostOff && o.PostProcessing != PostHalfWaveRectify {
		return fmt.Errorf("%w: unknown post-processing %d", ErrInvalidParameter, o.PostProcessing)
	}

	return nil
}

// FilterConfig holds the configuration of a single Filter.
type FilterConfig struct {
	// SampleFrequency of the input signal, in Hz.
	SampleFrequency float64

	// CenterFrequency of the filter, in Hz. Must lie in (0, fs/2).
	CenterFrequency float64

	FilterOptions
}

// Validate checks if the configuration is valid.
func (c *FilterConfig) Validate() error {
	if err := validateSampleFrequency(c.SampleFrequency); err != nil {
		return err
	}

	nyquist := c.SampleFrequency / nyquistDivisor
	if !(c.CenterFrequency > 0) || !(c.CenterFrequency < nyquist) {
		return fmt.Errorf("%w: center frequency must be in (0, %g), got %g",
			ErrInvalidParameter, nyquist, c.CenterFrequency)
	}

	return c.FilterOptions.Validate()
}

// FilterbankConfig holds the configuration of a Filterbank. Exactly one of
// Channels and Overlap must be set.
type FilterbankConfig struct {
	// SampleFrequency of the input signal, in Hz.
	SampleFrequency float64

	// LowFrequency and HighFrequency bound the center frequencies, with
	// 0 < LowFrequency < HighFrequency < SampleFrequency/2.
	LowFrequency  float64
	HighFrequency float64

	// Channels is the number of filters.
	Channels int

	// Overlap is the spacing between adjacent channels in ERB units. When
	// set, the channel count is derived from it.
	Overlap float64

	// ChannelOrder sorts the channels by frequency.
	ChannelOrder ChannelOrder

	// EnableParallel processes channels in separate goroutines in the
	// sequence methods. Output is identical to sequential processing.
	EnableParallel bool

	FilterOptions
}

// Validate checks if the configuration is valid.
func (c *FilterbankConfig) Validate() error {
	if err := validateSampleFrequency(c.SampleFrequency); err != nil {
		return err
	}

	nyquist := c.SampleFrequency / nyquistDivisor
	if !(c.LowFrequency > 0) {
		return fmt.Errorf("%w: low frequency must be positive, got %g", ErrInvalidParameter, c.LowFrequency)
	}
	if !(c.LowFrequency < c.HighFrequency) {
		return fmt.Errorf("%w: low frequency %g must be below high frequency %g",
			ErrInvalidParameter, c.LowFrequency, c.HighFrequency)
	}
	if !(c.HighFrequency < nyquist) {
		return fmt.Errorf("%w: high frequency must be below %g, got %g", ErrInvalidParameter, nyquist, c.HighFrequency)
	}

	switch {
	case c.Overlap != 0 && c.Channels != 0:
		return fmt.Errorf("%w: channels and overlap are mutually exclusive", ErrInvalidParameter)
	case c.Overlap != 0:
		if !(c.Overlap > 0) || math.IsInf(c.Overlap, 0) {
			return fmt.Errorf("%w: overlap must be positive, got %g", ErrInvalidParameter, c.Overlap)
		}
	case c.Channels < 1:
		return fmt.Errorf("%w: channels must be at least 1, got %d", ErrInvalidParameter, c.Channels)
	case c.Channels > maxChannels:
		return fmt.Errorf("%w: too many channels (max %d)", ErrInvalidParameter, maxChannels)
	}

	if c.ChannelOrder != Increasing && c.ChannelOrder != Decreasing {
		return fmt.Errorf("%w: unknown channel order %d", ErrInvalidParameter, c.ChannelOrder)
	}

	return c.FilterOptions.Validate()
}

func validateSampleFrequency(fs float64) error {
	if !(fs > 0) || math.IsInf(fs, 0) {
		return fmt.Errorf("%w: sample frequency must be positive, got %g", ErrInvalidParameter, fs)
	}
	return nil
}

// Option configures a Filter or Filterbank built with the positional
// constructors. Filterbank-only options are ignored by NewFilter.
type Option func(*settings)

type settings struct {
	filter       FilterOptions
	channelOrder ChannelOrder
	parallel     bool
}

func applyOptions(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithOrder sets the gammatone order.
func WithOrder(order int) Option {
	return func(s *settings) { s.filter.Order = order }
}

// WithBandwidth sets the bandwidth policy.
func WithBandwidth(policy BandwidthPolicy) Option {
	return func(s *settings) { s.filter.Bandwidth = policy }
}

// WithCore selects the filter implementation.
func WithCore(c CoreType) Option {
	return func(s *settings) { s.filter.Core = c }
}

// WithGain sets the gain policy.
func WithGain(gain GainPolicy) Option {
	return func(s *settings) { s.filter.Gain = gain }
}

// WithClipping enables flushing of tiny state values to zero.
func WithClipping(enabled bool) Option {
	return func(s *settings) { s.filter.Clipping = enabled }
}

// WithPostProcessing sets the output post-processing.
func WithPostProcessing(post PostProcessing) Option {
	return func(s *settings) { s.filter.PostProcessing = post }
}

// WithChannelOrder sets the filterbank channel order.
func WithChannelOrder(order ChannelOrder) Option {
	return func(s *settings) { s.channelOrder = order }
}

// WithParallel enables per-channel goroutines in filterbank sequence
// processing.
func WithParallel(enabled bool) Option {
	return func(s *settings) { s.parallel = enabled }
}
