// Package auditory provides cochlear bandwidth formulas and the ERB-rate
// frequency scale used to place gammatone filterbank channels.
package auditory

import (
	"fmt"
	"math"
)

// Scale describes an auditory bandwidth formula of the general form
// given by Slaney (1993):
//
//	b(fc) = ((fc/EarQ)^Order + MinBW^Order)^(1/Order)
//
// EarQ is the asymptotic filter quality at high frequencies, MinBW the
// minimal bandwidth at low frequencies.
type Scale struct {
	Name  string
	EarQ  float64
	MinBW float64
	Order int
}

// Predefined scales.
var (
	Glasberg1990  = Scale{Name: "glasberg1990", EarQ: glasbergEarQ, MinBW: glasbergMinBW, Order: glasbergOrder}
	Slaney1988    = Scale{Name: "slaney1988", EarQ: slaneyEarQ, MinBW: slaneyMinBW, Order: slaneyOrder}
	Greenwood1990 = Scale{Name: "greenwood1990", EarQ: greenwoodEarQ, MinBW: greenwoodMinBW, Order: greenwoodOrder}
)

// ScaleByName looks up one of the predefined scales.
func ScaleByName(name string) (Scale, bool) {
	for _, s := range []Scale{Glasberg1990, Slaney1988, Greenwood1990} {
		if s.Name == name {
			return s, true
		}
	}
	return Scale{}, false
}

// Validate reports whether the scale parameters are usable.
func (s Scale) Validate() error {
	if !(s.EarQ > 0) || math.IsInf(s.EarQ, 0) {
		return fmt.Errorf("ear quality must be positive, got %v", s.EarQ)
	}
	if !(s.MinBW > 0) || math.IsInf(s.MinBW, 0) {
		return fmt.Errorf("minimal bandwidth must be positive, got %v", s.MinBW)
	}
	if s.Order < 1 {
		return fmt.Errorf("bandwidth order must be at least 1, got %d", s.Order)
	}
	return nil
}

// ERB returns the equivalent rectangular bandwidth at fc, in Hz.
func (s Scale) ERB(fc float64) float64 {
	if s.Order == 1 {
		return fc/s.EarQ + s.MinBW
	}
	n := float64(s.Order)
	return math.Pow(math.Pow(fc/s.EarQ, n)+math.Pow(s.MinBW, n), 1/n)
}

// Bandwidth returns the gammatone bandwidth parameter at fc, in Hz.
// This is the ERB scaled by the 4th order correction factor.
func (s Scale) Bandwidth(fc float64) float64 {
	return bandwidthCorrection * s.ERB(fc)
}

// Alpha is EarQ * MinBW, the frequency offset of the ERB-rate scale.
func (s Scale) Alpha() float64 {
	return s.EarQ * s.MinBW
}

// Rate maps a linear frequency to the (natural log) ERB-rate domain.
func (s Scale) Rate(f float64) float64 {
	return math.Log(f + s.Alpha())
}

// Frequency is the inverse of Rate.
func (s Scale) Frequency(rate float64) float64 {
	return math.Exp(rate) - s.Alpha()
}

// ERBNumber returns the number of ERBs below f. Adjacent channels one ERB
// apart differ by exactly 1 on this scale.
func (s Scale) ERBNumber(f float64) float64 {
	return s.EarQ * math.Log1p(f/s.Alpha())
}
