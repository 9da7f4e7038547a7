// Package core implements the gammatone processing cores.
//
// Every core realizes the same fourth order (or, for the cascade and the
// convolution cores, any order) gammatone bandpass filter with a different
// algorithm:
//
//   - Holdsworth: a cascade of complex one-pole sections (Holdsworth 1988).
//   - Cooke1993: base-band impulse invariant filter (Cooke 1993, Ma 2006).
//   - Slaney1993: four second order IIR sections (Slaney 1993).
//   - Convolution: direct FIR convolution with the sampled impulse
//     response, a slow reference.
//
// All cores share the output normalization: with Params.Normalize the
// output is scaled to unit magnitude at the center frequency.
package core

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// Core errors.
var (
	errBadOrder     = errors.New("order out of range")
	errBadFrequency = errors.New("frequency out of range")
	errUnknownKind  = errors.New("unknown core")
)

// Core is a stateful gammatone filter implementation.
type Core interface {
	// Order returns the gammatone order realized by the core.
	Order() int

	// Factor returns the output normalization factor.
	Factor() float64

	// Step filters one sample.
	Step(x float64) float64

	// ProcessRaw writes the unnormalized output for each src sample to
	// dst. Callers scale dst by Factor. len(dst) must be at least len(src).
	ProcessRaw(dst, src []float64)

	// Reset returns the core to rest.
	Reset()

	// Snapshot copies the state into dst, growing it as needed.
	Snapshot(dst []complex128) []complex128

	// Restore sets the state from a snapshot taken on the same core.
	Restore(snap []complex128)

	// Clone returns a core with the same coefficients at rest.
	Clone() Core

	// Response returns the transfer function at the normalized angular
	// frequency omega (radians per sample), including normalization.
	Response(omega float64) complex128
}

// Kind selects a core implementation.
type Kind int

const (
	// Holdsworth is the complex one-pole cascade.
	Holdsworth Kind = iota

	// Cooke1993 is the base-band impulse invariant filter.
	Cooke1993

	// Slaney1993 is the cascade of four second order sections.
	Slaney1993

	// Convolution filters by direct convolution with the sampled impulse
	// response.
	Convolution
)

// String returns the core name.
func (k Kind) String() string {
	switch k {
	case Holdsworth:
		return "holdsworth"
	case Cooke1993:
		return "cooke1993"
	case Slaney1993:
		return "slaney1993"
	case Convolution:
		return "convolution"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SupportsOrder reports whether the core can realize a gammatone of the
// given order.
func (k Kind) SupportsOrder(order int) bool {
	switch k {
	case Holdsworth, Convolution:
		return order >= 1 && order <= MaxOrder
	case Cooke1993, Slaney1993:
		return order == DefaultOrder
	default:
		return false
	}
}

// Params holds the inputs of the coefficient derivation.
type Params struct {
	SampleFrequency float64
	CenterFrequency float64
	Bandwidth       float64
	Order           int

	// Normalize scales the output for unit magnitude at CenterFrequency.
	Normalize bool

	// Clip flushes state values below clipThreshold to zero.
	Clip bool
}

// Build returns a core of the given kind at rest.
func Build(kind Kind, p Params) (Core, error) {
	switch kind {
	case Holdsworth:
		return New(p)
	case Cooke1993:
		return NewCooke(p)
	case Slaney1993:
		return NewSlaney(p)
	case Convolution:
		return NewConvolution(p)
	default:
		return nil, fmt.Errorf("%w: %v", errUnknownKind, kind)
	}
}

func (p Params) validate() error {
	if p.Order < 1 || p.Order > MaxOrder {
		return errBadOrder
	}
	if !(p.SampleFrequency > 0) || !(p.CenterFrequency > 0) || !(p.Bandwidth > 0) {
		return errBadFrequency
	}
	if math.IsInf(p.SampleFrequency, 0) || math.IsInf(p.Bandwidth, 0) {
		return errBadFrequency
	}
	return nil
}

// tau returns the angular frequency of 1 Hz in radians per sample.
func (p Params) tau() float64 {
	return 2 * math.Pi / p.SampleFrequency
}

// normalization returns the output factor for the unnormalized transfer
// function h: 1/|h(ωc)| with Normalize, 1 otherwise.
func (p Params) normalization(h func(omega float64) complex128) (float64, error) {
	if !p.Normalize {
		return 1, nil
	}

	g := cmplx.Abs(h(p.tau() * p.CenterFrequency))
	if !(g > 0) || math.IsInf(g, 0) {
		return 0, errBadFrequency
	}
	return 1 / g, nil
}

// flush returns zero for values under the clipping threshold.
func flush(v complex128) complex128 {
	if cmplx.Abs(v) < clipThreshold {
		return 0
	}
	return v
}
