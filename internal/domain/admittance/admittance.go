// Package admittance fills in minor tidal constituents' complex tide value
// from a fixed set of major donors, under one of four interchangeable
// policies: spline (Darwin), linear, Fourier (both Perth/Munk-Cartwright),
// and zero. A policy never overwrites a wave marked Modeled or
// Dynamic.
package admittance

import (
	"math"

	"go.ngs.io/tides-api/internal/domain/constituent"
	"go.ngs.io/tides-api/internal/domain/wavetable"
)

// Policy infers missing constituents' tide values in place.
type Policy interface {
	Infer(t *wavetable.Table) error
}

func donor(t *wavetable.Table, id constituent.ID) (complex128, bool) {
	w, ok := t.Get(id)
	if !ok {
		return 0, false
	}
	return w.Z, true
}

func settable(t *wavetable.Table, id constituent.ID) bool {
	w, ok := t.Get(id)
	return ok && !w.Modeled && !w.Dynamic
}

func set(t *wavetable.Table, id constituent.ID, z complex128) {
	if w, ok := t.Get(id); ok && !w.Modeled && !w.Dynamic {
		w.Z = z
	}
}

// ZeroPolicy leaves every unmodeled, non-dynamic constituent at Z = 0: the
// table's zero value already satisfies this, so Infer is a no-op.
type ZeroPolicy struct{}

// Infer does nothing; minors not present in the source grid stay at Z = 0.
func (ZeroPolicy) Infer(*wavetable.Table) error { return nil }

// splineTriplet holds the three coefficients a wave in
// Table::admittance()'s "spline" block applies, in order, to K2, N2, M2.
type splineTriplet [3]float64

var (
	mu2Spline     = splineTriplet{0.069439968323, 0.351535557706, -0.046278307672}
	nu2Spline     = splineTriplet{-0.006104695053, 0.156878802427, 0.006755704028}
	l2Spline      = splineTriplet{0.077137765667, -0.051653455134, 0.027869916824}
	t2Spline      = splineTriplet{0.180480173707, -0.020101177502, 0.008331518844}
	lambda2Spline = splineTriplet{0.016503557465, -0.013307812292, 0.007753383202}
)

// SplinePolicy is the Darwin-catalogue admittance from
// Table::admittance() ("Richard Ray perth2/perth3" provenance): fixed
// linear combinations for the diurnal minors from Q1/O1/K1, a first
// semi-diurnal minor (2N2) from N2/M2, eps2 from 2N2/N2, eta2 from M2/K2,
// and spline triplets (applied to K2, N2, M2) for mu2/nu2/L2/T2/lambda2.
type SplinePolicy struct{}

// Infer populates the fixed set of Darwin-catalogue minors.
func (SplinePolicy) Infer(t *wavetable.Table) error {
	q1, hasQ1 := donor(t, constituent.Q1)
	o1, hasO1 := donor(t, constituent.O1)
	k1, hasK1 := donor(t, constituent.K1)
	if hasQ1 && hasO1 {
		set(t, constituent.C2Q1, 0.263*q1-0.0252*o1)
		set(t, constituent.Sigma1, 0.297*q1-0.0264*o1)
		set(t, constituent.Rho1, 0.164*q1+0.0048*o1)
	}
	if hasO1 && hasK1 {
		set(t, constituent.M11, 0.0389*o1+0.0282*k1)
		set(t, constituent.M12, 0.0140*o1+0.0101*k1)
		set(t, constituent.Chi1, 0.0064*o1+0.0060*k1)
		set(t, constituent.Pi1, 0.0030*o1+0.0171*k1)
		set(t, constituent.Phi1, -0.0015*o1+0.0152*k1)
		set(t, constituent.Theta1, -0.0065*o1+0.0155*k1)
		set(t, constituent.J1, -0.0389*o1+0.0836*k1)
		set(t, constituent.OO1, -0.0431*o1+0.0613*k1)
	}

	n2, hasN2 := donor(t, constituent.N2)
	m2, hasM2 := donor(t, constituent.M2)
	k2, hasK2 := donor(t, constituent.K2)

	var c2n2 complex128
	hasC2N2 := hasN2 && hasM2
	if hasC2N2 {
		c2n2 = 0.264*n2 - 0.0253*m2
		set(t, constituent.C2N2, c2n2)
	}
	if hasC2N2 && hasN2 {
		set(t, constituent.Eps2, 0.53285*c2n2-0.03304*n2)
	}
	if hasM2 && hasK2 {
		set(t, constituent.Eta2, -0.0034925*m2+0.0831707*k2)
	}
	if hasK2 && hasN2 && hasM2 {
		set(t, constituent.Mu2, splineCombo(mu2Spline, k2, n2, m2))
		set(t, constituent.Nu2, splineCombo(nu2Spline, k2, n2, m2))
		set(t, constituent.L2, splineCombo(l2Spline, k2, n2, m2))
		set(t, constituent.T2, splineCombo(t2Spline, k2, n2, m2))
		set(t, constituent.Lambda2, splineCombo(lambda2Spline, k2, n2, m2))
	}
	return nil
}

func splineCombo(c splineTriplet, k2, n2, m2 complex128) complex128 {
	return complex(c[0], 0)*k2 + complex(c[1], 0)*n2 + complex(c[2], 0)*m2
}

// interpolation evaluates an admittance at frequency x given three donor
// (frequency, admittance) pairs, for either the linear or Fourier policy.
type interpolation func(x1 float64, y1 complex128, x2 float64, y2 complex128, x3 float64, y3 complex128, x float64) complex128

func linearInterpolation(x1 float64, y1 complex128, x2 float64, y2 complex128, x3 float64, y3 complex128, x float64) complex128 {
	if x <= x2 {
		slope := (y2 - y1) / complex(x2-x1, 0)
		return y1 + slope*complex(x-x1, 0)
	}
	slope := (y3 - y2) / complex(x3-x2, 0)
	return y2 + slope*complex(x-x2, 0)
}

// fourierMatrix rows are the fixed 3x3 inverse matrices from
// perth/inference.cpp's ainv1 (diurnal) and ainv2 (semi-diurnal).
var (
	fourierDiurnal = [3][3]float64{
		{3.1214, -3.8494, 1.7280},
		{-3.1727, 3.9559, -0.7832},
		{1.4380, -3.0297, 1.5917},
	}
	fourierSemidiurnal = [3][3]float64{
		{3.3133, -4.2538, 1.9405},
		{-3.3133, 4.2538, -0.9405},
		{1.5018, -3.2579, 1.7561},
	}
)

func fourierInterpolation(matrix [3][3]float64) interpolation {
	return func(_ float64, z1 complex128, _ float64, z2 complex128, _ float64, z3 complex128, x float64) complex128 {
		p := x * (48.0 * math.Pi / 180.0)
		c0 := complex(matrix[0][0], 0)*z1 + complex(matrix[0][1], 0)*z2 + complex(matrix[0][2], 0)*z3
		c1 := complex(matrix[1][0], 0)*z1 + complex(matrix[1][1], 0)*z2 + complex(matrix[1][2], 0)*z3
		c2 := complex(matrix[2][0], 0)*z1 + complex(matrix[2][1], 0)*z2 + complex(matrix[2][2], 0)*z3
		return c0 + c1*complex(math.Cos(p), 0) + c2*complex(math.Sin(p), 0)
	}
}

// PerthPolicy infers minors by the Munk-Cartwright/linear methods from
// perth/inference.cpp, using the fixed amplitude ratios (relative to the
// equilibrium tide) and donor frequencies derived from each constituent's
// own Darwin coefficients rather than a re-hosted Doodson table.
type PerthPolicy struct {
	diurnal     interpolation
	semidiurnal interpolation
}

// NewLinearPolicy is the perth kLinearAdmittance mode.
func NewLinearPolicy() PerthPolicy {
	return PerthPolicy{diurnal: linearInterpolation, semidiurnal: linearInterpolation}
}

// NewFourierPolicy is the perth kFourierAdmittance mode.
func NewFourierPolicy() PerthPolicy {
	return PerthPolicy{
		diurnal:     fourierInterpolation(fourierDiurnal),
		semidiurnal: fourierInterpolation(fourierSemidiurnal),
	}
}

// inferredDiurnal / inferredSemidiurnal are the fixed admittance amplitudes
// (relative to the equilibrium tide of the diurnal/semidiurnal species),
// from perth/inference.cpp's kInferredDiurnalConstituents_ /
// kInferredSemidiurnalConstituents_, restricted to identifiers present in
// the Darwin catalogue (Tau1, Beta1, Ups1, Gamma2, Alpha2, Beta2, Delta2
// have no Darwin-catalogue counterpart and are omitted).
var inferredDiurnal = map[constituent.ID]float64{
	constituent.C2Q1:   0.006638,
	constituent.Sigma1: 0.008023,
	constituent.Q1:     0.050184,
	constituent.Rho1:   0.009540,
	constituent.O1:     0.262163,
	constituent.M1:     0.020604,
	constituent.Chi1:   0.003925,
	constituent.Pi1:    0.007125,
	constituent.P1:     0.122008,
	constituent.K1:     0.368731,
	constituent.Psi1:   0.002929,
	constituent.Phi1:   0.005247,
	constituent.Theta1: 0.003966,
	constituent.J1:     0.020618,
	constituent.OO1:    0.011293,
}

var inferredSemidiurnal = map[constituent.ID]float64{
	constituent.Eps2:    0.004669,
	constituent.C2N2:    0.016011,
	constituent.Mu2:     0.019316,
	constituent.N2:      0.121006,
	constituent.Nu2:     0.022983,
	constituent.M2:      0.631931,
	constituent.Lambda2: 0.004662,
	constituent.L2:      0.017862,
	constituent.T2:      0.017180,
	constituent.S2:      0.294019,
	constituent.R2:      0.002463,
	constituent.K2:      0.079924,
	constituent.Eta2:    0.004467,
}

func frequencyOf(id constituent.ID) (float64, bool) {
	desc, err := constituent.Lookup(id)
	if err != nil {
		return 0, false
	}
	return desc.Coeff.FrequencyDegPerHour(), true
}

// Infer fills every diurnal/semidiurnal minor present in the table and not
// marked Modeled or Dynamic, per perth::Inference::operator().
func (p PerthPolicy) Infer(t *wavetable.Table) error {
	q1, hasQ1 := donor(t, constituent.Q1)
	o1, hasO1 := donor(t, constituent.O1)
	k1, hasK1 := donor(t, constituent.K1)
	n2, hasN2 := donor(t, constituent.N2)
	m2, hasM2 := donor(t, constituent.M2)
	s2, hasS2 := donor(t, constituent.S2)

	if hasQ1 && hasO1 && hasK1 {
		x1, _ := frequencyOf(constituent.Q1)
		x2, _ := frequencyOf(constituent.O1)
		x3, _ := frequencyOf(constituent.K1)
		amp1 := inferredDiurnal[constituent.Q1] * diurnalGravitationalCorrection(x1)
		amp2 := inferredDiurnal[constituent.O1] * diurnalGravitationalCorrection(x2)
		amp3 := inferredDiurnal[constituent.K1] * diurnalGravitationalCorrection(x3)
		y1 := q1 / complex(amp1, 0)
		y2 := o1 / complex(amp2, 0)
		y3 := k1 / complex(amp3, 0)

		for id, amp := range inferredDiurnal {
			if !settable(t, id) {
				continue
			}
			x, ok := frequencyOf(id)
			if !ok {
				continue
			}
			y := p.diurnal(x1, y1, x2, y2, x3, y3, x)
			gam := diurnalGravitationalCorrection(x)
			set(t, id, y*complex(gam*amp, 0))
		}
	}

	if hasN2 && hasM2 && hasS2 {
		x4, _ := frequencyOf(constituent.N2)
		x5, _ := frequencyOf(constituent.M2)
		x6, _ := frequencyOf(constituent.S2)
		y4 := n2 / complex(inferredSemidiurnal[constituent.N2], 0)
		y5 := m2 / complex(inferredSemidiurnal[constituent.M2], 0)
		y6 := s2 / complex(inferredSemidiurnal[constituent.S2], 0)

		for id, amp := range inferredSemidiurnal {
			if !settable(t, id) {
				continue
			}
			x, ok := frequencyOf(id)
			if !ok {
				continue
			}
			y := p.semidiurnal(x4, y4, x5, y5, x6, y6, x)
			set(t, id, y*complex(amp, 0))
		}
	}
	return nil
}

// lovePMM95B returns the diurnal-band Love numbers (k2, h2, l2) used to
// correct Q1/O1/K1 donor amplitudes before inference, per
// perth/love_numbers.hpp's PMM95B abbreviated model (Mathews et al., 1995);
// outside the diurnal band it returns Wahr's 1981 values.
func lovePMM95B(frequency float64) (k2, h2, l2 float64) {
	switch {
	case frequency < 5.0:
		return 0.299, 0.606, 0.0840
	case frequency > 22.0:
		return 0.302, 0.609, 0.0852
	}
	const (
		fFCN           = 1.0023214
		fK1            = 15.041068
		fO1            = 13.943036
		frequencyRatio = fO1 / fK1
	)
	f := frequency / fK1
	frac := (f - frequencyRatio) / (fFCN - f)
	return 0.2962 - 0.00127*frac, 0.5994 - 0.002532*frac, 0.08378 + 0.00007932*frac
}

// diurnalGravitationalCorrection returns 1 + k2 - h2 at the given
// frequency, the resonance correction perth applies to the Q1/O1/K1 donor
// amplitudes and to every inferred diurnal minor.
func diurnalGravitationalCorrection(frequency float64) float64 {
	k2, h2, _ := lovePMM95B(frequency)
	return 1 + k2 - h2
}
