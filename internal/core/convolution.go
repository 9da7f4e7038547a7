package core

import (
	"math"
	"math/cmplx"

	"github.com/tphakala/go-gammatone/internal/response"
	"gonum.org/v1/gonum/floats"
)

// ConvolutionCore filters by direct convolution with the sampled continuous
// gammatone impulse response, truncated once its envelope has decayed by
// convolutionCutoffDB. It costs O(len(ir)) per sample and serves as a
// reference for the recursive cores. Clipping does not apply.
type ConvolutionCore struct {
	order  int
	kernel []float64 // impulse response, time reversed
	factor float64

	// hist mirrors the input window twice so that the window ending at
	// pos is always contiguous: hist[i] == hist[i+len(kernel)].
	hist []float64
	pos  int
}

// NewConvolution samples the impulse response and returns a core at rest.
func NewConvolution(p Params) (*ConvolutionCore, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	n := max(int(math.Ceil(p.SampleFrequency*maxConvolutionSeconds)), 1)
	ir := response.Theoretical(p.SampleFrequency, p.CenterFrequency, p.Bandwidth, p.Order, n)
	if idx, ok := response.FindAttenuation(ir, convolutionCutoffDB); ok {
		ir = ir[:idx]
	}

	kernel := make([]float64, len(ir))
	for i, v := range ir {
		kernel[len(ir)-1-i] = v
	}

	c := &ConvolutionCore{
		order:  p.Order,
		kernel: kernel,
		factor: 1,
		hist:   make([]float64, 2*len(kernel)),
	}
	c.Reset()

	factor, err := p.normalization(c.transfer)
	if err != nil {
		return nil, err
	}
	c.factor = factor

	return c, nil
}

// Order returns the order of the sampled impulse response.
func (c *ConvolutionCore) Order() int {
	return c.order
}

// Factor returns the output normalization factor.
func (c *ConvolutionCore) Factor() float64 {
	return c.factor
}

// Len returns the impulse response length in samples.
func (c *ConvolutionCore) Len() int {
	return len(c.kernel)
}

// window returns the last Len inputs, oldest first.
func (c *ConvolutionCore) window() []float64 {
	return c.hist[c.pos+1 : c.pos+1+len(c.kernel)]
}

func (c *ConvolutionCore) advance(x float64) float64 {
	c.pos++
	if c.pos == len(c.kernel) {
		c.pos = 0
	}
	c.hist[c.pos] = x
	c.hist[c.pos+len(c.kernel)] = x
	return floats.Dot(c.window(), c.kernel)
}

// Step filters one sample.
func (c *ConvolutionCore) Step(x float64) float64 {
	return c.factor * c.advance(x)
}

// ProcessRaw writes the unnormalized output for each src sample to dst.
func (c *ConvolutionCore) ProcessRaw(dst, src []float64) {
	for i, x := range src {
		dst[i] = c.advance(x)
	}
}

// Reset clears the input history.
func (c *ConvolutionCore) Reset() {
	clear(c.hist)
	c.pos = len(c.kernel) - 1
}

// Snapshot copies the input window, oldest first, as real values.
func (c *ConvolutionCore) Snapshot(dst []complex128) []complex128 {
	dst = dst[:0]
	for _, v := range c.window() {
		dst = append(dst, complex(v, 0))
	}
	return dst
}

// Restore sets the input window from a snapshot taken on this core.
func (c *ConvolutionCore) Restore(snap []complex128) {
	n := len(c.kernel)
	for i, v := range snap[:n] {
		c.hist[i] = real(v)
		c.hist[i+n] = real(v)
	}
	c.pos = n - 1
}

// Clone returns a core with the same impulse response at rest.
func (c *ConvolutionCore) Clone() Core {
	clone := &ConvolutionCore{
		order:  c.order,
		kernel: c.kernel,
		factor: c.factor,
		hist:   make([]float64, len(c.hist)),
	}
	clone.Reset()
	return clone
}

// Response returns the transfer function at omega, including
// normalization.
func (c *ConvolutionCore) Response(omega float64) complex128 {
	return complex(c.factor, 0) * c.transfer(omega)
}

func (c *ConvolutionCore) transfer(omega float64) complex128 {
	var h complex128
	last := len(c.kernel) - 1
	for i, v := range c.kernel {
		h += complex(v, 0) * cmplx.Rect(1, -omega*float64(last-i))
	}
	return h
}
