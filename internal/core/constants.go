package core

const (
	// MaxOrder bounds the cascade length. Beyond this the gamma envelope
	// peak drifts far from the onset and the normalization gain underflows
	// for narrow filters.
	MaxOrder = 16

	// DefaultOrder is the conventional gammatone order.
	DefaultOrder = 4

	// clipThreshold is the magnitude under which state values are flushed
	// to zero when clipping is enabled (Ma 2006).
	clipThreshold = 1e-200

	// Convolution core impulse response: at most one second, cut where
	// the envelope has decayed by 60 dB.
	maxConvolutionSeconds = 1.0
	convolutionCutoffDB   = -60.0
)
