package loglogbeta

import "github.com/pkg/errors"

// Configuration errors returned at construction time.
var (
	ErrInvalidErrorRate  = errors.New("error rate must be in (0, 1)")
	ErrPrecisionOverflow = errors.New("error rate requires an unreasonable register count")
)

// Merge errors. Neither input counter is mutated when these are returned.
var (
	ErrPrecisionMismatch = errors.New("counters have different precision")
	ErrSeedMismatch      = errors.New("counters have different digest seeds")
)

// ErrRhoOutOfRange reports a digest whose rho statistic fell outside its
// valid window. It indicates a broken digest source or an arithmetic bug,
// not a stream condition; the counter stays usable but its estimate may no
// longer be reliable.
var ErrRhoOutOfRange = errors.New("rho statistic out of range")
