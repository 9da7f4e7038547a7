package gammatone

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Sequence feeds xs through p one sample at a time, in order, and returns
// one output per input. State carried by p advances by the whole sequence.
func Sequence(p Processor, xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = p.ComputeSample(x)
	}
	return out
}

// vectorData extracts the samples of a one-dimensional gonum input.
// Only mat.Vector implementations qualify: a column or row of a Dense is
// still two-dimensional and is rejected.
func vectorData(m mat.Matrix) ([]float64, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil input", ErrInputShape)
	}

	v, ok := m.(mat.Vector)
	if !ok {
		r, c := m.Dims()
		return nil, fmt.Errorf("%w: got %d×%d matrix", ErrInputShape, r, c)
	}

	n := v.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrInputShape)
	}

	data := make([]float64, n)
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return data, nil
}

// checkOutput reports a non-finite or diverging output sample.
func checkOutput(i int, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > instabilityBound {
		return fmt.Errorf("%w: output %v at sample %d", ErrNumericalInstability, v, i)
	}
	return nil
}

// checkOutputs runs checkOutput over a block starting at sample offset.
func checkOutputs(offset int, block []float64) error {
	for i, v := range block {
		if err := checkOutput(offset+i, v); err != nil {
			return err
		}
	}
	return nil
}

// checkContext returns the wrapped context error, if any.
func checkContext(ctx context.Context, processed int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("compute interrupted after %d samples: %w", processed, err)
	}
	return nil
}

func toFloat64(xs []float32) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = float64(v)
	}
	return out
}

func toFloat32(xs []float64) []float32 {
	out := make([]float32, len(xs))
	for i, v := range xs {
		out[i] = float32(v)
	}
	return out
}
