package auditory

// Bandwidth correction factor for a 4th order gammatone (Holdsworth 1988).
const bandwidthCorrection = 1.019

// Glasberg & Moore (1990) ERB parameters.
const (
	glasbergEarQ  = 9.26449
	glasbergMinBW = 24.7
	glasbergOrder = 1
)

// Slaney (1988) parameters.
const (
	slaneyEarQ  = 8.0
	slaneyMinBW = 125.0
	slaneyOrder = 2
)

// Greenwood (1990) parameters.
const (
	greenwoodEarQ  = 7.23824
	greenwoodMinBW = 22.8509
	greenwoodOrder = 1
)

// Spacing defaults, matching libgammatone.
const (
	DefaultChannels = 30
	DefaultOverlap  = 0.25
)
