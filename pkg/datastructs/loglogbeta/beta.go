package loglogbeta

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

// alpha returns the bias-correction constant for the given precision.
// The closed-form constants for the three smallest register counts come
// from the LogLog-Beta paper; larger counts use the asymptotic formula.
func alpha(p uint8, m uint64) float64 {
	switch p {
	case 4:
		return 0.674
	case 5:
		return 0.697
	case 6:
		return 0.709
	}
	return 0.7213 / (1 + 1.079/float64(m))
}

// beta evaluates the empirically fitted bias polynomial at z, the number of
// registers still at zero. beta(0) is exactly 0.
func beta(z float64) float64 {
	zl := math.Log2(z + 1)
	return -0.370393911*z +
		0.070471823*zl +
		0.17393686*math.Pow(zl, 2) +
		0.16339839*math.Pow(zl, 3) -
		0.09237745*math.Pow(zl, 4) +
		0.03738027*math.Pow(zl, 5) -
		0.005384159*math.Pow(zl, 6) +
		0.00042419*math.Pow(zl, 7)
}

// rho returns the 1-indexed position of the first set bit of w within a
// window of maxWidth bits, counted from the most significant side; w == 0
// yields maxWidth+1. A w carrying bits above the window has no valid
// position and is reported as ErrRhoOutOfRange.
func rho(w uint64, maxWidth int) (uint8, error) {
	r := maxWidth - (64 - bits.LeadingZeros64(w)) + 1
	if r <= 0 || r > maxWidth+1 {
		return 0, errors.Wrapf(ErrRhoOutOfRange, "rho %d for window width %d", r, maxWidth)
	}
	return uint8(r), nil
}
