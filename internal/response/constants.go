package response

const (
	// decibelsPerDecade converts amplitude ratios to dB.
	decibelsPerDecade = 20.0

	// minFFTSize is the smallest transform used by Magnitude, which keeps
	// bin spacing fine enough for short impulse responses.
	minFFTSize = 4096
)
