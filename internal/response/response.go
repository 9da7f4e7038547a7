// Package response provides impulse and frequency response analysis for
// gammatone filters.
package response

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Theoretical returns n samples of the continuous gammatone impulse
// response
//
//	g(t) = t^(order-1) · exp(-2π·b·t) · cos(2π·fc·t)
//
// sampled at fs and normalized to a peak magnitude of 1. It returns an
// empty slice for n <= 0.
func Theoretical(fs, fc, bw float64, order, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	ir := make([]float64, n)

	for i := range ir {
		t := float64(i) / fs
		tt := 2 * math.Pi * t
		ir[i] = math.Pow(t, float64(order-1)) * math.Exp(-tt*bw) * math.Cos(tt*fc)
	}

	Normalize(ir)
	return ir
}

// Normalize scales s in place so that its largest magnitude is 1.
// A silent signal is left untouched.
func Normalize(s []float64) {
	peak := MaxAbs(s)
	if peak == 0 {
		return
	}
	floats.Scale(1/peak, s)
}

// MaxAbs returns the largest |s[i]|.
func MaxAbs(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return math.Max(floats.Max(s), -floats.Min(s))
}

// PeakIndex returns the index of the largest |s[i]|, or -1 for an empty
// slice.
func PeakIndex(s []float64) int {
	if len(s) == 0 {
		return -1
	}
	hi, lo := floats.MaxIdx(s), floats.MinIdx(s)
	if -s[lo] > s[hi] {
		return lo
	}
	return hi
}

// Decibel converts s to 20·log10(|x|/max|s|). Zero samples map to -Inf,
// so does every sample of a silent signal.
func Decibel(s []float64) []float64 {
	db := make([]float64, len(s))
	peak := MaxAbs(s)
	if peak == 0 {
		for i := range db {
			db[i] = math.Inf(-1)
		}
		return db
	}
	for i, v := range s {
		db[i] = decibelsPerDecade * math.Log10(math.Abs(v)/peak)
	}
	return db
}

// FindAttenuation returns the first index from which the envelope of
// signal stays at or below level dB (a negative number) relative to its
// absolute maximum. ok is false when level is positive or the attenuation
// is never reached.
func FindAttenuation(signal []float64, level float64) (idx int, ok bool) {
	if level > 0 || len(signal) == 0 {
		return len(signal), false
	}

	peak := MaxAbs(signal)
	if peak == 0 {
		return len(signal), false
	}
	cutoff := math.Pow(10, level/decibelsPerDecade) * peak

	// Walk backwards tracking the running maximum of what follows.
	idx = len(signal)
	tail := 0.0
	for i := len(signal) - 1; i >= 0; i-- {
		tail = math.Max(tail, math.Abs(signal[i]))
		if tail > cutoff {
			break
		}
		idx = i
	}

	if idx == 0 || idx == len(signal) {
		return len(signal), false
	}
	return idx, true
}

// Magnitude computes the one-sided magnitude spectrum of ir, zero-padded
// to the next power of two at least minFFTSize long. It returns the bin
// frequencies in Hz and the magnitudes.
func Magnitude(ir []float64, fs float64) (freqs, mags []float64) {
	size := minFFTSize
	for size < len(ir) {
		size *= 2
	}

	padded := make([]float64, size)
	copy(padded, ir)

	fft := fourier.NewFFT(size)
	coeffs := fft.Coefficients(nil, padded)

	freqs = make([]float64, len(coeffs))
	mags = make([]float64, len(coeffs))
	for i, c := range coeffs {
		freqs[i] = float64(i) * fs / float64(size)
		mags[i] = cmplx.Abs(c)
	}
	return freqs, mags
}

// PeakFrequency returns the frequency of the largest magnitude bin.
func PeakFrequency(freqs, mags []float64) float64 {
	if len(mags) == 0 {
		return 0
	}
	return freqs[floats.MaxIdx(mags)]
}

// HalfPowerBandwidth returns the width in Hz of the contiguous region
// around the peak where the magnitude stays at or above peak/√2.
func HalfPowerBandwidth(freqs, mags []float64) float64 {
	if len(mags) == 0 {
		return 0
	}

	peak := floats.MaxIdx(mags)
	threshold := mags[peak] / math.Sqrt2

	lo := peak
	for lo > 0 && mags[lo-1] >= threshold {
		lo--
	}
	hi := peak
	for hi < len(mags)-1 && mags[hi+1] >= threshold {
		hi++
	}

	return freqs[hi] - freqs[lo]
}
