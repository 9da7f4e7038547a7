package gammatone

// Frequency constraints
const (
	nyquistDivisor = 2 // Center frequencies must stay below fs/2

	// cochlearNyquistFraction keeps the top NewCochlear channel clear of
	// Nyquist at low sample rates.
	cochlearNyquistFraction = 0.95
)

// Filterbank limits
const (
	maxChannels = 4096 // Maximum supported channel count
)

// Sequence processing
const (
	// cancelCheckInterval is how many samples are processed between
	// context checks in ComputeContext.
	cancelCheckInterval = 4096

	// instabilityBound is the output magnitude above which the recursion
	// is considered diverging.
	instabilityBound = 1e100
)
