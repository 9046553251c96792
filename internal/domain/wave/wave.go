// Package wave implements the per-constituent tidal wave: its immutable
// descriptor (inherited from package constituent), its mutable per-evaluation
// state (complex tide value, Greenwich argument, nodal factor/correction),
// and the XDO encodings used to exchange wave identities with external tools
// and their encoding conventions.
package wave

import (
	"math"
	"strings"

	"go.ngs.io/tides-api/internal/domain/angle"
	"go.ngs.io/tides-api/internal/domain/constituent"
	"go.ngs.io/tides-api/internal/domain/tidalerr"
)

const twoPi = 2 * math.Pi

func normalize(rad float64) float64 {
	rad = math.Mod(rad, twoPi)
	if rad < 0 {
		rad += twoPi
	}
	return rad
}

// Wave is a constituent's immutable descriptor plus the mutable state
// populated by a prediction pass: the complex tide value from the source
// grid, the Greenwich argument V, the nodal amplitude factor f, and the
// nodal phase correction u.
type Wave struct {
	Descriptor constituent.Descriptor

	Z complex128 // tide value from the source grid, in the grid's units (cm by convention)
	V float64    // Greenwich argument, radians in [0, 2*pi)
	F float64    // nodal amplitude factor, dimensionless, >= 0
	U float64    // nodal phase correction, radians in [0, 2*pi)

	// Modeled marks a wave whose Z was populated directly from a grid
	// (dynamic=true) as opposed to one whose Z is inferred by admittance
	// or left at zero.
	Modeled bool
	// Dynamic marks a wave actually requested by the caller's constituent
	// list, as opposed to one only present to support admittance/inference.
	Dynamic bool
}

// New builds a Wave in its zero per-evaluation state for the given
// descriptor.
func New(desc constituent.Descriptor) *Wave {
	return &Wave{Descriptor: desc}
}

// Clone returns an independent copy; used to give each prediction worker its
// own per-evaluation state while sharing the read-only descriptor.
func (w *Wave) Clone() *Wave {
	c := *w
	return &c
}

// Name returns the constituent's canonical name.
func (w *Wave) Name() string { return w.Descriptor.Name }

// VU returns V + u normalized to [0, 2*pi).
func (w *Wave) VU() float64 {
	return normalize(w.V + w.U)
}

// CorrectedTide returns f * (Re(Z)*cos(V+u) + Im(Z)*sin(V+u)), the
// contribution of this wave to the summed tide.
func (w *Wave) CorrectedTide() float64 {
	phi := w.VU()
	return w.F * (real(w.Z)*math.Cos(phi) + imag(w.Z)*math.Sin(phi))
}

// ComputeNodalCorrections derives V, F and U from the current astronomical
// angles. For Darwin-described waves, V is the dot product of the 11-tuple
// Darwin coefficients with (T, s, h, p, N, p1, 90deg, xi, nu, nuprim, nusec);
// the xi/nu/nuprim/nusec terms already carry the slow nodal phase
// modulation, so U is always zero: L2's R term and the M1 secondary
// correction are subtracted from V itself.
func (w *Wave) ComputeNodalCorrections(a angle.Angles) {
	d := w.Descriptor.Coeff
	v := float64(d.T)*a.T + float64(d.S)*a.S + float64(d.H)*a.H +
		float64(d.P)*a.P + float64(d.N)*a.N + float64(d.P1)*a.P1 +
		float64(d.Shift)*(math.Pi/2) +
		float64(d.Xi)*a.Xi + float64(d.Nu)*a.Nu +
		float64(d.Nuprim)*a.Nuprim + float64(d.Nusec)*a.Nusec

	u := 0.0

	switch w.Descriptor.Tag {
	case angle.FL2:
		v -= a.R
	}
	if w.Descriptor.SecondaryCorrection {
		// M1's "argument of formula 207": structurally the same arctan2
		// construction as L2's R (Schureman formula 196), applied here as
		// the only secondary correction tag in the catalogue.
		v -= a.R
	}

	w.V = normalize(v)
	w.U = normalize(u)
	w.F = a.NodeFactor(w.Descriptor.Tag)
}

// xdoCode maps a signed Doodson component to its XDO single-character code:
// -1 -> '*', 10 -> 'X', 11 -> 'E', 12 -> 'T', else the digit itself.
func xdoCode(n int8) byte {
	switch n {
	case -1:
		return '*'
	case 10:
		return 'X'
	case 11:
		return 'E'
	case 12:
		return 'T'
	default:
		return byte(n) + 48
	}
}

// xdoDecode is the inverse of xdoCode; ok is false for any byte that is not
// a valid XDO numerical code character.
func xdoDecode(c byte) (int8, bool) {
	switch c {
	case '*':
		return -1, true
	case 'X':
		return 10, true
	case 'E':
		return 11, true
	case 'T':
		return 12, true
	default:
		if c < '0' || c > '9' {
			return 0, false
		}
		return int8(c) - 48, true
	}
}

// XDONumerical returns the XDO numerical representation of the wave's
// Doodson number: the first element uses its raw code, the remaining six
// add an offset of 5 before encoding.
func (w *Wave) XDONumerical() string {
	return DoodsonToXDONumerical(w.Descriptor.DoodsonNumbers())
}

// DoodsonToXDONumerical encodes a Doodson number as an XDO numerical string.
func DoodsonToXDONumerical(doodson constituent.Doodson) string {
	var sb strings.Builder
	sb.Grow(7)
	sb.WriteByte(xdoCode(doodson[0]))
	for i := 1; i < len(doodson); i++ {
		sb.WriteByte(xdoCode(doodson[i] + 5))
	}
	return sb.String()
}

// XDONumericalToDoodson decodes an XDO numerical string back into a Doodson
// number; it is the inverse of DoodsonToXDONumerical.
func XDONumericalToDoodson(code string) (constituent.Doodson, error) {
	var d constituent.Doodson
	if len(code) != 7 {
		return d, tidalerr.New(tidalerr.InvalidArgument, "xdo numerical code must be 7 characters, got %d", len(code))
	}
	first, ok := xdoDecode(code[0])
	if !ok {
		return d, tidalerr.New(tidalerr.InvalidArgument, "invalid xdo numerical code character %q", code[0])
	}
	d[0] = first
	for i := 1; i < 7; i++ {
		v, ok := xdoDecode(code[i])
		if !ok {
			return d, tidalerr.New(tidalerr.InvalidArgument, "invalid xdo numerical code character %q", code[i])
		}
		d[i] = v - 5
	}
	return d, nil
}

// xdoAlphabet is the 25-character lookup table for the XDO alphabetical
// encoding, indexed by doodson_value + 8 (include/fes/xdo.hpp).
var xdoAlphabet = [25]byte{
	'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z', 'A', 'B', 'C', 'D',
	'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P',
}

var xdoAlphabetInverse = func() map[byte]int8 {
	m := make(map[byte]int8, len(xdoAlphabet))
	for ix, c := range xdoAlphabet {
		m[c] = int8(ix) - 8
	}
	return m
}()

// XDOAlphabetical returns the XDO alphabetical representation of the wave's
// Doodson number, or an InvalidArgument error if a component falls outside
// the alphabet.
func (w *Wave) XDOAlphabetical() (string, error) {
	return DoodsonToXDOAlphabetical(w.Descriptor.DoodsonNumbers())
}

// DoodsonToXDOAlphabetical encodes a Doodson number as an XDO alphabetical
// string, looking each signed component up in xdoAlphabet at index value+8.
func DoodsonToXDOAlphabetical(doodson constituent.Doodson) (string, error) {
	var sb strings.Builder
	sb.Grow(7)
	for _, v := range doodson {
		ix := int(v) + 8
		if ix < 0 || ix >= len(xdoAlphabet) {
			return "", tidalerr.New(tidalerr.InvalidArgument, "doodson number %d out of range for xdo alphabetical code", v)
		}
		sb.WriteByte(xdoAlphabet[ix])
	}
	return sb.String(), nil
}

// XDOAlphabeticalToDoodson decodes an XDO alphabetical string back into a
// Doodson number; it is the inverse of DoodsonToXDOAlphabetical.
func XDOAlphabeticalToDoodson(code string) (constituent.Doodson, error) {
	var d constituent.Doodson
	if len(code) != 7 {
		return d, tidalerr.New(tidalerr.InvalidArgument, "xdo alphabetical code must be 7 characters, got %d", len(code))
	}
	for i := 0; i < 7; i++ {
		v, ok := xdoAlphabetInverse[code[i]]
		if !ok {
			return d, tidalerr.New(tidalerr.InvalidArgument, "invalid xdo alphabetical code character %q", code[i])
		}
		d[i] = v
	}
	return d, nil
}
