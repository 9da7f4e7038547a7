package gammatone

import (
	"context"
	"fmt"

	"github.com/tphakala/go-gammatone/internal/response"
	"github.com/tphakala/go-gammatone/internal/simdops"
)

// Common sample rates for convenience functions.
const (
	// RateCD is the CD quality sample rate (Red Book standard).
	RateCD = 44100

	// RateDAT is the DAT/DVD sample rate.
	RateDAT = 48000

	// RateTelephony is the telephony (PSTN narrowband) sample rate.
	RateTelephony = 8000

	// RateVoIP is the VoIP wideband sample rate.
	RateVoIP = 16000
)

// Frequency range of human hearing, used by the cochlear presets.
const (
	HearingLowFrequency  = 20
	HearingHighFrequency = 20000
)

// NewCochlear creates a filterbank covering the audible range at the given
// sample rate, in cochlear (decreasing) channel order with channels one ERB
// apart. The upper bound is clamped below Nyquist.
func NewCochlear(sampleFrequency float64, opts ...Option) (*Filterbank, error) {
	high := min(float64(HearingHighFrequency), sampleFrequency/nyquistDivisor*cochlearNyquistFraction)
	opts = append([]Option{WithChannelOrder(Decreasing)}, opts...)
	return NewFilterbankWithOverlap(sampleFrequency, HearingLowFrequency, high, 1, opts...)
}

// FilterMono is a convenience function for one-shot filtering of a mono
// signal through a single gammatone filter.
func FilterMono(input []float64, sampleFrequency, centerFrequency float64, opts ...Option) ([]float64, error) {
	f, err := NewFilter(sampleFrequency, centerFrequency, opts...)
	if err != nil {
		return nil, err
	}
	return f.Compute(input)
}

// FilterbankMono is a convenience function for one-shot filterbank
// analysis of a mono signal. It returns one row per input sample.
func FilterbankMono(input []float64, sampleFrequency, lowFrequency, highFrequency float64, nbChannels int, opts ...Option) ([][]float64, error) {
	fb, err := NewFilterbank(sampleFrequency, lowFrequency, highFrequency, nbChannels, opts...)
	if err != nil {
		return nil, err
	}
	return fb.Compute(input)
}

// Cochleagram filters input through fb and reduces each channel to its RMS
// over consecutive frames of frameSize samples. A trailing partial frame is
// kept. The result has one row per frame and one column per channel.
func Cochleagram(fb *Filterbank, input []float64, frameSize int) ([][]float64, error) {
	if frameSize < 1 {
		return nil, fmt.Errorf("%w: frame size must be at least 1, got %d", ErrInvalidParameter, frameSize)
	}

	nch := fb.NbChannels()
	nframes := (len(input) + frameSize - 1) / frameSize
	frames := make([][]float64, nframes)
	for i := range frames {
		frames[i] = make([]float64, nch)
	}

	columns, err := fb.computeColumns(context.Background(), input)
	if err != nil {
		return nil, err
	}

	for k, col := range columns {
		for i := range frames {
			end := min((i+1)*frameSize, len(col))
			frames[i][k] = simdops.RMS(col[i*frameSize : end])
		}
	}

	return frames, nil
}

// MixToMono averages interleaved multi-channel samples into one channel.
// Trailing samples that do not form a whole frame are dropped.
func MixToMono(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return append([]float64(nil), interleaved...)
	}

	numSamples := len(interleaved) / channels
	mono := make([]float64, numSamples)
	for i := range numSamples {
		frame := interleaved[i*channels : (i+1)*channels]
		mono[i] = simdops.Float64Ops().Sum(frame) / float64(channels)
	}
	return mono
}

// TheoreticalImpulseResponse returns n samples of the continuous-time
// gammatone impulse response t^(N-1)·e^(-2πbt)·cos(2πft) of f, sampled at
// its rate and scaled to a peak magnitude of 1. It is empty for n <= 0.
func TheoreticalImpulseResponse(f *Filter, n int) []float64 {
	return response.Theoretical(f.SampleFrequency(), f.CenterFrequency(), f.Bandwidth(), f.Order(), n)
}

// MagnitudeResponse returns the magnitude spectrum of the first n samples of
// f's impulse response, with the frequency of every bin in Hz.
func MagnitudeResponse(f *Filter, n int) (freqs, mags []float64) {
	return response.Magnitude(f.ImpulseResponse(n), f.SampleFrequency())
}
