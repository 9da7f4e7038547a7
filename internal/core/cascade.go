package core

import (
	"math"
	"math/cmplx"
)

// Cascade is the Holdsworth (1988) core, generalized to any order: a
// cascade of N identical complex one-pole sections sharing the pole
//
//	p = exp(-2π·b/fs) · exp(j·2π·fc/fs)
//
// where b is the filter bandwidth and fc the center frequency. For an
// impulse input the last section holds C(n+N-1, N-1)·pⁿ, so its real part
// is a sampled gamma envelope nᴺ⁻¹·aⁿ modulating a carrier at fc. Each
// sample costs O(N) regardless of how long the response has been running.
//
// The zero value is not usable, create one with New.
type Cascade struct {
	pole   complex128
	factor float64
	clip   bool
	state  []complex128
}

// New derives the cascade coefficients and returns a cascade at rest.
func New(p Params) (*Cascade, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	tau := 2 * math.Pi / p.SampleFrequency
	decay := math.Exp(-tau * p.Bandwidth)

	c := &Cascade{
		pole:   cmplx.Rect(decay, tau*p.CenterFrequency),
		factor: 1,
		clip:   p.Clip,
		state:  make([]complex128, p.Order),
	}

	factor, err := p.normalization(c.transfer)
	if err != nil {
		return nil, err
	}
	c.factor = factor

	return c, nil
}

// Order returns the number of sections.
func (c *Cascade) Order() int {
	return len(c.state)
}

// Pole returns the shared section pole.
func (c *Cascade) Pole() complex128 {
	return c.pole
}

// Factor returns the output normalization factor.
func (c *Cascade) Factor() float64 {
	return c.factor
}

// advance runs one sample through every section and returns the real part
// of the last section, before normalization.
func (c *Cascade) advance(x float64) float64 {
	in := complex(x, 0)
	for k := range c.state {
		s := c.pole*c.state[k] + in
		if c.clip {
			s = flush(s)
		}
		c.state[k] = s
		in = s
	}
	return real(in)
}

// Step filters one sample.
func (c *Cascade) Step(x float64) float64 {
	return c.factor * c.advance(x)
}

// ProcessRaw writes the unnormalized output for each src sample to dst.
// Callers scale dst by Factor. len(dst) must be at least len(src).
func (c *Cascade) ProcessRaw(dst, src []float64) {
	for i, x := range src {
		dst[i] = c.advance(x)
	}
}

// Reset zeroes the state.
func (c *Cascade) Reset() {
	clear(c.state)
}

// Snapshot copies the state into dst, growing it as needed.
func (c *Cascade) Snapshot(dst []complex128) []complex128 {
	return append(dst[:0], c.state...)
}

// Restore sets the state from a snapshot taken on this cascade.
func (c *Cascade) Restore(snap []complex128) {
	copy(c.state, snap)
}

// Clone returns a cascade with the same coefficients and a zero state.
func (c *Cascade) Clone() Core {
	return &Cascade{
		pole:   c.pole,
		factor: c.factor,
		clip:   c.clip,
		state:  make([]complex128, len(c.state)),
	}
}

// Response returns the transfer function at the normalized angular
// frequency omega (radians per sample), including normalization.
func (c *Cascade) Response(omega float64) complex128 {
	return complex(c.factor, 0) * c.transfer(omega)
}

// transfer evaluates the real-part transfer function
//
//	H(ω) = ½[(1 − p·e^{-jω})^{-N} + (1 − p̄·e^{-jω})^{-N}]
//
// which is the response of Re(w_N) to a real input.
func (c *Cascade) transfer(omega float64) complex128 {
	n := complex(float64(len(c.state)), 0)
	z := cmplx.Rect(1, -omega)
	pos := cmplx.Pow(1-c.pole*z, -n)
	neg := cmplx.Pow(1-cmplx.Conj(c.pole)*z, -n)
	return (pos + neg) / 2
}
