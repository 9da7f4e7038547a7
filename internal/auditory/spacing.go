package auditory

import (
	"errors"
	"math"
	"slices"
)

// Order selects how channels are sorted in a filterbank.
type Order int

const (
	// Increasing sorts channels from low to high frequency.
	Increasing Order = iota

	// Decreasing sorts channels from high to low frequency, the order in
	// which the cochlea decomposes sound from base to apex.
	Decreasing
)

// Spacing errors.
var (
	errBadRange    = errors.New("low frequency must be positive and below high frequency")
	errBadChannels = errors.New("channel count must be at least 1")
	errBadOverlap  = errors.New("overlap factor must be positive")
	errTooNarrow   = errors.New("frequency range too narrow for distinct channels")
)

// Layout is the result of a channel spacing computation.
type Layout struct {
	// Frequencies holds the center frequencies, in channel order.
	Frequencies []float64

	// Overlap is the distance between adjacent channels in ERB units.
	Overlap float64
}

// span returns the width of [low, high] on the ERB-rate scale.
func (s Scale) span(low, high float64) float64 {
	return s.Rate(high) - s.Rate(low)
}

// FixedSize places n channels equally spaced on the ERB-rate scale between
// low and high, both included. A single channel sits at the ERB-rate
// midpoint of the range. It fails when the range is too narrow for n
// strictly increasing frequencies.
func FixedSize(s Scale, low, high float64, n int, order Order) (Layout, error) {
	if !(low > 0) || !(low < high) {
		return Layout{}, errBadRange
	}
	if n < 1 {
		return Layout{}, errBadChannels
	}

	span := s.span(low, high)
	freqs := make([]float64, n)

	if n == 1 {
		freqs[0] = s.Frequency(s.Rate(low) + span/2)
		return Layout{Frequencies: freqs, Overlap: s.EarQ * span}, nil
	}

	step := span / float64(n-1)
	base := s.Rate(low)
	for i := range freqs {
		freqs[i] = s.Frequency(base + step*float64(i))
	}
	// Pin the bounds, rounding in exp/log drifts them by a few ulps.
	freqs[0] = low
	freqs[n-1] = high

	for i := 1; i < n; i++ {
		if !(freqs[i] > freqs[i-1]) {
			return Layout{}, errTooNarrow
		}
	}

	if order == Decreasing {
		slices.Reverse(freqs)
	}

	return Layout{Frequencies: freqs, Overlap: s.EarQ * step}, nil
}

// FixedOverlap derives the channel count from an overlap factor k, the
// desired spacing between adjacent channels in ERB units, then places the
// channels as FixedSize does. An overlap close to zero means nearly fully
// overlapped filters, 1 means adjacent filters one ERB apart.
func FixedOverlap(s Scale, low, high, overlap float64, order Order) (Layout, error) {
	if !(overlap > 0) || math.IsInf(overlap, 0) {
		return Layout{}, errBadOverlap
	}
	if !(low > 0) || !(low < high) {
		return Layout{}, errBadRange
	}

	return FixedSize(s, low, high, int(ChannelsForOverlap(s, low, high, overlap)), order)
}

// ChannelsForOverlap returns the channel count FixedOverlap would use. It
// is returned as a float so callers can bound it before converting.
func ChannelsForOverlap(s Scale, low, high, overlap float64) float64 {
	return math.Floor(s.EarQ*s.span(low, high)/overlap) + 1
}
