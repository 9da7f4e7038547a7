package core

import (
	"math"
	"math/cmplx"
)

// Cooke is the base-band impulse invariant core (Cooke 1993, Ma 2006).
//
// Each input sample is shifted down by the center frequency with the
// rotating phasor q = e^{-jωc·n}, filtered by a fourth order base-band
// gammatone and shifted back up. The base-band filter is the impulse
// invariant transform of t³·e^{-2πbt}:
//
//	Hb(z) = (1 + 4a·z⁻¹ + a²·z⁻²) / (1 - a·z⁻¹)⁴,  a = exp(-2π·b/fs)
//
// whose impulse response is (n+1)³·aⁿ.
type Cooke struct {
	ar     [4]complex128 // recursive coefficients 4a, -6a², 4a³, -a⁴
	num    [2]complex128 // numerator coefficients 4a, a²
	decay  float64
	omega  float64
	rot    complex128 // e^{-jωc}
	factor float64
	clip   bool

	p [4]complex128 // past recursion outputs, newest first
	q complex128
}

// NewCooke derives the base-band coefficients and returns a core at rest.
// Only order 4 is supported.
func NewCooke(p Params) (*Cooke, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if !Cooke1993.SupportsOrder(p.Order) {
		return nil, errBadOrder
	}

	a := math.Exp(-p.tau() * p.Bandwidth)
	omega := p.tau() * p.CenterFrequency

	c := &Cooke{
		ar: [4]complex128{
			complex(4*a, 0),
			complex(-6*a*a, 0),
			complex(4*a*a*a, 0),
			complex(-a*a*a*a, 0),
		},
		num:    [2]complex128{complex(4*a, 0), complex(a*a, 0)},
		decay:  a,
		omega:  omega,
		rot:    cmplx.Rect(1, -omega),
		factor: 1,
		clip:   p.Clip,
	}
	c.Reset()

	factor, err := p.normalization(c.transfer)
	if err != nil {
		return nil, err
	}
	c.factor = factor

	return c, nil
}

// Order returns 4.
func (c *Cooke) Order() int {
	return DefaultOrder
}

// Factor returns the output normalization factor.
func (c *Cooke) Factor() float64 {
	return c.factor
}

func (c *Cooke) advance(x float64) float64 {
	p0 := c.q*complex(x, 0) + c.ar[0]*c.p[0] + c.ar[1]*c.p[1] + c.ar[2]*c.p[2] + c.ar[3]*c.p[3]
	if c.clip {
		p0 = flush(p0)
	}
	u := p0 + c.num[0]*c.p[0] + c.num[1]*c.p[1]

	c.p[3], c.p[2], c.p[1], c.p[0] = c.p[2], c.p[1], c.p[0], p0

	// Re(u·conj(q)) shifts the base-band output back to the carrier.
	y := real(u)*real(c.q) + imag(u)*imag(c.q)
	c.q *= c.rot
	return y
}

// Step filters one sample.
func (c *Cooke) Step(x float64) float64 {
	return c.factor * c.advance(x)
}

// ProcessRaw writes the unnormalized output for each src sample to dst.
func (c *Cooke) ProcessRaw(dst, src []float64) {
	for i, x := range src {
		dst[i] = c.advance(x)
	}
}

// Reset zeroes the recursion and rewinds the carrier phase.
func (c *Cooke) Reset() {
	c.p = [4]complex128{}
	c.q = 1
}

// Snapshot copies the recursion state followed by the carrier phasor.
func (c *Cooke) Snapshot(dst []complex128) []complex128 {
	dst = append(dst[:0], c.p[:]...)
	return append(dst, c.q)
}

// Restore sets the state from a snapshot taken on this core.
func (c *Cooke) Restore(snap []complex128) {
	copy(c.p[:], snap)
	c.q = snap[len(c.p)]
}

// Clone returns a core with the same coefficients at rest.
func (c *Cooke) Clone() Core {
	clone := *c
	clone.Reset()
	return &clone
}

// Response returns the transfer function at omega, including
// normalization.
func (c *Cooke) Response(omega float64) complex128 {
	return complex(c.factor, 0) * c.transfer(omega)
}

// transfer evaluates the real-output transfer function
//
//	H(ω) = ½[Hb(ω - ωc) + Hb(ω + ωc)]
func (c *Cooke) transfer(omega float64) complex128 {
	return (c.baseband(omega-c.omega) + c.baseband(omega+c.omega)) / 2
}

func (c *Cooke) baseband(nu float64) complex128 {
	z := cmplx.Rect(1, -nu)
	num := 1 + c.num[0]*z + c.num[1]*z*z
	return num / cmplx.Pow(1-complex(c.decay, 0)*z, 4)
}
