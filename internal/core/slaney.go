package core

import (
	"math"
	"math/cmplx"
)

// Slaney is the Slaney (1993) core: the impulse invariant transform of a
// fourth order gammatone factored into four second order sections that
// share the pole pair a·e^{±jωc} and differ by their zero.
type Slaney struct {
	zero   [4]float64 // per-section first order numerator coefficient
	a1, a2 float64    // shared denominator 1 + a1·z⁻¹ + a2·z⁻²
	factor float64
	clip   bool

	// Transposed direct form II state, s1 + j·s2 per section.
	state [4]complex128
}

// NewSlaney derives the section coefficients and returns a core at rest.
// Only order 4 is supported.
func NewSlaney(p Params) (*Slaney, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if !Slaney1993.SupportsOrder(p.Order) {
		return nil, errBadOrder
	}

	omega := p.tau() * p.CenterFrequency
	decay := math.Exp(-p.tau() * p.Bandwidth)
	sin := math.Sin(omega) * decay
	cos := math.Cos(omega) * decay

	rootPlus := math.Sqrt(3 + math.Pow(2, 1.5))
	rootMinus := math.Sqrt(3 - math.Pow(2, 1.5))

	s := &Slaney{
		zero: [4]float64{
			-rootPlus*sin - cos,
			rootPlus*sin - cos,
			-rootMinus*sin - cos,
			rootMinus*sin - cos,
		},
		a1:     -2 * cos,
		a2:     decay * decay,
		factor: 1,
		clip:   p.Clip,
	}

	factor, err := p.normalization(s.transfer)
	if err != nil {
		return nil, err
	}
	s.factor = factor

	return s, nil
}

// Order returns 4.
func (s *Slaney) Order() int {
	return DefaultOrder
}

// Factor returns the output normalization factor.
func (s *Slaney) Factor() float64 {
	return s.factor
}

func (s *Slaney) advance(x float64) float64 {
	y := x
	for k, st := range s.state {
		in := y
		y = in + real(st)
		next := complex(s.zero[k]*in-s.a1*y+imag(st), -s.a2*y)
		if s.clip {
			next = flush(next)
		}
		s.state[k] = next
	}
	return y
}

// Step filters one sample.
func (s *Slaney) Step(x float64) float64 {
	return s.factor * s.advance(x)
}

// ProcessRaw writes the unnormalized output for each src sample to dst.
func (s *Slaney) ProcessRaw(dst, src []float64) {
	for i, x := range src {
		dst[i] = s.advance(x)
	}
}

// Reset zeroes every section.
func (s *Slaney) Reset() {
	s.state = [4]complex128{}
}

// Snapshot copies the section states into dst.
func (s *Slaney) Snapshot(dst []complex128) []complex128 {
	return append(dst[:0], s.state[:]...)
}

// Restore sets the state from a snapshot taken on this core.
func (s *Slaney) Restore(snap []complex128) {
	copy(s.state[:], snap)
}

// Clone returns a core with the same coefficients at rest.
func (s *Slaney) Clone() Core {
	clone := *s
	clone.Reset()
	return &clone
}

// Response returns the transfer function at omega, including
// normalization.
func (s *Slaney) Response(omega float64) complex128 {
	return complex(s.factor, 0) * s.transfer(omega)
}

func (s *Slaney) transfer(omega float64) complex128 {
	z := cmplx.Rect(1, -omega)
	den := 1 + complex(s.a1, 0)*z + complex(s.a2, 0)*z*z

	h := complex(1, 0)
	for _, b := range s.zero {
		h *= (1 + complex(b, 0)*z) / den
	}
	return h
}
