// Package gammatone provides gammatone auditory filters and filterbanks in
// pure Go.
//
// A gammatone filter models the frequency selectivity of one place on the
// basilar membrane. Its impulse response is a gamma envelope times a tone:
//
//	g(t) = t^(N-1) · e^(-2πbt) · cos(2πf·t)
//
// A [Filterbank] spaces many such filters on the ERB-rate scale to emulate
// the channel decomposition of the whole cochlea.
//
// # Features
//
//   - Recursive implementation as a cascade of complex one-pole sections,
//     any order from 1 to 16
//   - Alternative Cooke, Slaney and direct convolution cores
//   - Exact unit gain at the center frequency, or unnormalized output
//   - Glasberg & Moore, Slaney/Lyon and Greenwood bandwidth formulas
//   - Channel layouts by count or by ERB overlap, in increasing or cochlear
//     (decreasing) order
//   - Streaming API: state persists across calls
//   - Atomic sequence processing: on error or cancellation state is rolled
//     back
//   - Optional per-channel goroutines with output identical to sequential mode
//   - gonum interop via [Filter.ComputeMatrix] and [Filterbank.ComputeMatrix]
//   - SIMD-accelerated gain scaling via github.com/tphakala/simd
//
// # Quick Start
//
// For one-shot filtering:
//
//	out, err := gammatone.FilterMono(signal, 16000, 1000)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For streaming analysis with a filterbank:
//
//	fb, err := gammatone.NewFilterbank(44100, 100, 8000, 32)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for chunk := range audioChunks {
//	    rows, err := fb.Compute(chunk) // len(chunk) × 32
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    consume(rows)
//	}
//
// Single samples can be fed with [Filter.ComputeSample] and
// [Filterbank.ComputeSample]. Feeding a sequence sample by sample gives
// exactly the same output as one [Filter.Compute] call.
//
// # Bandwidth Policies
//
// The bandwidth of a filter centered on fc is
//
//	b(fc) = 1.019 · ((fc/EarQ)^n + MinBandwidth^n)^(1/n)
//
//   - [Glasberg1990]: EarQ 9.26449, MinBandwidth 24.7, n = 1 (default)
//   - [Slaney1988]: EarQ 8, MinBandwidth 125, n = 2
//   - [Greenwood1990]: EarQ 7.23824, MinBandwidth 22.8509, n = 1
//
// The same parameters define the ERB-rate scale used for channel spacing.
//
// # Cores
//
// [WithCore] selects the algorithm behind each filter:
//
//   - [CoreHoldsworth]: complex one-pole cascade, any order (default)
//   - [CoreCooke1993]: base-band impulse invariant filter, order 4
//   - [CoreSlaney1993]: four second order sections, order 4
//   - [CoreConvolution]: FIR convolution with the sampled impulse response
//
// With unit gain every core passes its center frequency at 0 dB and the
// magnitude responses agree closely around it. The recursive cores cost
// O(order) per sample; the convolution core is a slow reference.
//
// # Errors
//
// Construction fails with [ErrInvalidParameter]. Sequence calls fail with
// [ErrInputShape] for non-vector gonum input, and with
// [ErrNumericalInstability] if the recursion diverges. Use errors.Is.
//
// # Thread Safety
//
// Filters and filterbanks are stateful and not safe for concurrent use.
// Independent instances may be used from different goroutines.
//
// # References
//
//   - Patterson, Nimmo-Smith, Holdsworth & Rice (1987), An efficient auditory
//     filterbank based on the gammatone function.
//   - Glasberg & Moore (1990), Derivation of auditory filter shapes from
//     notched-noise data.
//   - Slaney (1993), An efficient implementation of the Patterson-Holdsworth
//     auditory filter bank.
//   - Holdsworth, Nimmo-Smith, Patterson & Rice (1988), Implementing a
//     gammatone filter bank.
//   - Cooke (1993), Modelling auditory processing and organisation.
//   - Ma (2006), gammatone filter implementation in C.
//   - Hohmann (2002), Frequency analysis and synthesis using a gammatone
//     filterbank.
package gammatone
