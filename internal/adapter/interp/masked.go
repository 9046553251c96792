package interp

import (
	"math"

	"go.ngs.io/tides-api/internal/domain/angle"
)

// Corners holds the four complex values surrounding a query point, any of
// which may be undefined (land, missing data, or the grid's fill sentinel).
// Defined[0..3] line up with V[0..3] in (x0,y0), (x1,y0), (x0,y1), (x1,y1)
// order, matching GridCell's V00/V10/V01/V11 layout.
type Corners struct {
	X0, X1 float64
	Y0, Y1 float64
	V      [4]complex128
	Defined [4]bool
}

// MaskedBilinear interpolates a value from up to four corners, any of which
// may be undefined: weights degenerate to (1,0)/(0,1) when a query
// coordinate lands exactly on a grid line, contributions are summed over
// defined corners only and renormalized by their weight total, and the
// defined-corner count doubles as the result's quality flag (4 = fully
// interpolated, 1-3 = extrapolated near a coast, 0 = no data at all).
func MaskedBilinear(c Corners, x, y float64) (complex128, int) {
	wx0, wx1 := axisWeights(c.X0, c.X1, x)
	wy0, wy1 := axisWeights(c.Y0, c.Y1, y)

	weights := [4]float64{wx0 * wy0, wx1 * wy0, wx0 * wy1, wx1 * wy1}

	var sum complex128
	var weightTotal float64
	quality := 0
	for i, defined := range c.Defined {
		if !defined {
			continue
		}
		quality++
		sum += complex(weights[i], 0) * c.V[i]
		weightTotal += weights[i]
	}
	if quality == 0 {
		return complex(math.NaN(), math.NaN()), 0
	}
	return sum / complex(weightTotal, 0), quality
}

// axisWeights returns the linear weights (w0, w1) for a query coordinate q
// between bounds a and b, degenerating to (1, 0) when a == b or q == a, and
// to (0, 1) when q == b.
func axisWeights(a, b, q float64) (float64, float64) {
	if a == b || q == a {
		return 1, 0
	}
	if q == b {
		return 0, 1
	}
	return (b - q) / (b - a), (q - a) / (b - a)
}

// Accelerator caches the last computed astronomical angles and the last
// grid cell's corners per worker goroutine, avoiding redundant recomputation
// across consecutive queries at nearby times/positions. It is not safe for
// concurrent use by multiple goroutines;
// the prediction driver constructs one per worker.
type Accelerator struct {
	haveAngle   bool
	lastEpoch   float64
	angleTolSec float64
	lastAngles  angle.Angles

	haveCell                       bool
	lastX0, lastX1, lastY0, lastY1 float64
}

// NewAccelerator returns an Accelerator that treats two query epochs within
// angleTolSec of each other as sharing the same astronomical angles.
func NewAccelerator(angleTolSec float64) *Accelerator {
	return &Accelerator{angleTolSec: angleTolSec}
}

// Angles returns the astronomical angles for epoch, recomputing with
// compute only when epoch has drifted more than angleTolSec from the last
// call; otherwise it returns the cached value from that last call.
func (a *Accelerator) Angles(epoch float64, compute func(float64) angle.Angles) angle.Angles {
	if a.haveAngle && math.Abs(epoch-a.lastEpoch) <= a.angleTolSec {
		return a.lastAngles
	}
	a.lastAngles = compute(epoch)
	a.haveAngle = true
	a.lastEpoch = epoch
	return a.lastAngles
}

// SameCell reports whether (x0, x1, y0, y1) matches the last cell bounds
// seen, and records the new bounds as current regardless of the answer.
func (a *Accelerator) SameCell(x0, x1, y0, y1 float64) bool {
	same := a.haveCell && x0 == a.lastX0 && x1 == a.lastX1 && y0 == a.lastY0 && y1 == a.lastY1
	a.haveCell = true
	a.lastX0, a.lastX1, a.lastY0, a.lastY1 = x0, x1, y0, y1
	return same
}
