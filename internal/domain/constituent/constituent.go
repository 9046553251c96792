// Package constituent implements the constituent registry: the closed,
// case-insensitive, static mapping from a tidal-constituent name to its
// canonical identifier and Darwin coefficients. It is finalized at
// package init and never mutated afterward, so concurrent readers need no
// locking.
package constituent

import (
	"strings"

	"go.ngs.io/tides-api/internal/domain/angle"
	"go.ngs.io/tides-api/internal/domain/tidalerr"
)

// Classification distinguishes waves whose period is under a day from those
// with periods of weeks to years.
type Classification int

const (
	ShortPeriod Classification = iota
	LongPeriod
)

// NodeFactorTag selects one of the closed-form node-factor formulae; the
// formulae themselves live in package angle, next to the
// astronomical angles they are functions of.
type NodeFactorTag = angle.NodeFactorTag

const (
	F1      = angle.F1
	FO1     = angle.FO1
	FOO1    = angle.FOO1
	FJ1     = angle.FJ1
	FM1     = angle.FM1
	FM2     = angle.FM2
	FM3     = angle.FM3
	FMf     = angle.FMf
	FMm     = angle.FMm
	FK1     = angle.FK1
	FK2     = angle.FK2
	FL2     = angle.FL2
	F79     = angle.F79
	FM22    = angle.FM22
	FM23    = angle.FM23
	FM24    = angle.FM24
	FM2K2   = angle.FM2K2
	FM2K1   = angle.FM2K1
	FM2O1   = angle.FM2O1
	FM2L2   = angle.FM2L2
	FM24L2  = angle.FM24L2
	FO12    = angle.FO12
	FM22K1  = angle.FM22K1
	FM22K2  = angle.FM22K2
	FM23K2  = angle.FM23K2
	F141    = angle.F141
	F144    = angle.F144
	F146    = angle.F146
	F147    = angle.F147
)

// Darwin is the 11-tuple argument used to build the Greenwich argument V and
// the nodal phase correction u: (T, s, h, p, N, p1, shift, xi, nu, nuprim,
// nusec). Each field is the integer multiplier on the corresponding
// fundamental or auxiliary angle.
type Darwin struct {
	T, S, H, P, N, P1      int
	Shift                  int
	Xi, Nu, Nuprim, Nusec  int
}

// Doodson is the 7-element signed-vector encoding (tau, s, h, p, N', p_s,
// shift) equivalent to a Darwin tuple. It is derived from Darwin rather than
// stored natively, since every cataloged constituent here belongs to the
// Darwin family (see DESIGN.md).
type Doodson [7]int8

// ID identifies one constituent. The zero value is unused; Parse never
// returns it on success.
type ID int

// Descriptor is the immutable per-constituent record held by the registry.
type Descriptor struct {
	ID    ID
	Name  string
	Class Classification
	Coeff Darwin
	Tag   NodeFactorTag
	// SecondaryCorrection marks constituents (M1) whose u additionally
	// subtracts the Schureman formula-207 R-like term; see wave.VU.
	SecondaryCorrection bool
}

const (
	Mm ID = iota + 1
	Mf
	Mtm
	MSqm
	Ssa
	Sa
	C2Q1
	Sigma1
	Q1
	Rho1
	O1
	MP1
	M1
	M11
	M12
	M13
	Chi1
	Pi1
	P1
	S1
	K1
	Psi1
	Phi1
	Theta1
	J1
	OO1
	MNS2
	Eps2
	C2N2
	Mu2
	C2MS2
	N2
	Nu2
	M2
	MKS2
	Lambda2
	L2
	C2MN2
	T2
	S2
	R2
	K2
	MSN2
	Eta2
	C2SM2
	MO3
	C2MK3
	M3
	MK3
	N4
	MN4
	M4
	SN4
	MS4
	MK4
	S4
	SK4
	R4
	C2MN6
	M6
	MSN6
	C2MS6
	C2MK6
	C2SM6
	MSK6
	S6
	M8
	MSf
	A5
	Sa1
	Sta
	Mm2
	Mm1
	Mf1
	Mf2
	M0
	N2P
	L2P
	MSK2
	SKM2
	OQ2
	C3MS4
	MNu4
	C2MSN4
	C2NS2
	MNuS2
	C2MK2
	NKM2
	ML4
	SO1
	SO3
	NK4
	MNK6
	C2NM6
	C3MS8
	SK3
	C2MNS4
	C2SMu2
	C2MP5
)

func d(t, s, h, p, n, p1, shift, xi, nu, nuprim, nusec int) Darwin {
	return Darwin{T: t, S: s, H: h, P: p, N: n, P1: p1, Shift: shift, Xi: xi, Nu: nu, Nuprim: nuprim, Nusec: nusec}
}

var table = []Descriptor{
	{Mm, "Mm", LongPeriod, d(0, 1, 0, -1, 0, 0, 0, 0, 0, 0, 0), FMm, false},
	{Mf, "Mf", LongPeriod, d(0, 2, 0, 0, 0, 0, 0, -2, 0, 0, 0), FMf, false},
	{Mtm, "Mtm", LongPeriod, d(0, 3, 0, -1, 0, 0, 0, -2, 0, 0, 0), FMf, false},
	{MSqm, "MSqm", LongPeriod, d(0, 4, -2, 0, 0, 0, 0, -2, 0, 0, 0), FMf, false},
	{Ssa, "Ssa", LongPeriod, d(0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0), F1, false},
	{Sa, "Sa", LongPeriod, d(0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0), F1, false},

	{C2Q1, "2Q1", ShortPeriod, d(1, -4, 1, 2, 0, 0, 1, 2, -1, 0, 0), FO1, false},
	{Sigma1, "Sigma1", ShortPeriod, d(1, -4, 3, 0, 0, 0, 1, 2, -1, 0, 0), FO1, false},
	{Q1, "Q1", ShortPeriod, d(1, -3, 1, 1, 0, 0, 1, 2, -1, 0, 0), FO1, false},
	{Rho1, "Rho1", ShortPeriod, d(1, -3, 3, -1, 0, 0, 1, 2, -1, 0, 0), FO1, false},
	{O1, "O1", ShortPeriod, d(1, -2, 1, 0, 0, 0, 1, 2, -1, 0, 0), FO1, false},
	{MP1, "MP1", ShortPeriod, d(1, -2, 3, 0, 0, 0, -1, 0, -1, 0, 0), FJ1, false},
	{M1, "M1", ShortPeriod, d(1, -1, 1, 1, 0, 0, -1, 0, -1, 0, 0), FM1, true},
	{M11, "M11", ShortPeriod, d(1, -1, 1, -1, 0, 0, -1, 2, -1, 0, 0), FO1, false},
	{M12, "M12", ShortPeriod, d(1, -1, 1, 1, 0, 0, -1, 0, -1, 0, 0), FJ1, false},
	{M13, "M13", ShortPeriod, d(1, -1, 1, 0, 0, 0, 0, 1, -1, 0, 0), F144, false},
	{Chi1, "Chi1", ShortPeriod, d(1, -1, 3, -1, 0, 0, -1, 0, -1, 0, 0), FJ1, false},
	{Pi1, "Pi1", ShortPeriod, d(1, 0, -2, 0, 0, 1, 1, 0, 0, 0, 0), F1, false},
	{P1, "P1", ShortPeriod, d(1, 0, -1, 0, 0, 0, 1, 0, 0, 0, 0), F1, false},
	{S1, "S1", ShortPeriod, d(1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0), F1, false},
	{K1, "K1", ShortPeriod, d(1, 0, 1, 0, 0, 0, -1, 0, 0, -1, 0), FK1, false},
	{Psi1, "Psi1", ShortPeriod, d(1, 0, 2, 0, 0, -1, -1, 0, 0, 0, 0), F1, false},
	{Phi1, "Phi1", ShortPeriod, d(1, 0, 3, 0, 0, 0, -1, 0, 0, 0, 0), F1, false},
	{Theta1, "Theta1", ShortPeriod, d(1, 1, -1, 1, 0, 0, -1, 0, -1, 0, 0), FJ1, false},
	{J1, "J1", ShortPeriod, d(1, 1, 1, -1, 0, 0, -1, 0, -1, 0, 0), FJ1, false},
	{OO1, "OO1", ShortPeriod, d(1, 2, 1, 0, 0, 0, -1, -2, -1, 0, 0), FOO1, false},

	{MNS2, "MNS2", ShortPeriod, d(2, -5, 4, 1, 0, 0, 0, 4, -4, 0, 0), FM22, false},
	{Eps2, "Eps2", ShortPeriod, d(2, -5, 4, 1, 0, 0, 0, 2, -2, 0, 0), FM2, false},
	{C2N2, "2N2", ShortPeriod, d(2, -4, 2, 2, 0, 0, 0, 2, -2, 0, 0), FM2, false},
	{Mu2, "Mu2", ShortPeriod, d(2, -4, 4, 0, 0, 0, 0, 2, -2, 0, 0), FM2, false},
	{C2MS2, "2MS2", ShortPeriod, d(2, -4, 4, 0, 0, 0, 0, 4, -4, 0, 0), FM22, false},
	{N2, "N2", ShortPeriod, d(2, -3, 2, 1, 0, 0, 0, 2, -2, 0, 0), FM2, false},
	{Nu2, "Nu2", ShortPeriod, d(2, -3, 4, -1, 0, 0, 0, 2, -2, 0, 0), FM2, false},
	{M2, "M2", ShortPeriod, d(2, -2, 2, 0, 0, 0, 0, 2, -2, 0, 0), FM2, false},
	{MKS2, "MKS2", ShortPeriod, d(2, -2, 4, 0, 0, 0, 0, 2, -2, 0, -2), FM2K2, false},
	{Lambda2, "Lambda2", ShortPeriod, d(2, -1, 0, 1, 0, 0, 2, 2, -2, 0, 0), FM2, false},
	{L2, "L2", ShortPeriod, d(2, -1, 2, -1, 0, 0, 2, 2, -2, 0, 0), FL2, false},
	{C2MN2, "2MN2", ShortPeriod, d(2, -1, 2, -1, 0, 0, 2, 2, -2, 0, 0), FM23, false},
	{T2, "T2", ShortPeriod, d(2, 0, -1, 0, 0, 1, 0, 0, 0, 0, 0), F1, false},
	{S2, "S2", ShortPeriod, d(2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0), F1, false},
	{R2, "R2", ShortPeriod, d(2, 0, 1, 0, 0, -1, 2, 0, 0, 0, 0), F1, false},
	{K2, "K2", ShortPeriod, d(2, 0, 2, 0, 0, 0, 0, 0, 0, 0, -2), FK2, false},
	{MSN2, "MSN2", ShortPeriod, d(2, 1, 0, -1, 0, 0, 0, 0, 0, 0, 0), FM22, false},
	{Eta2, "Eta2", ShortPeriod, d(2, 1, 2, -1, 0, 0, 0, 0, -2, 0, 0), F79, false},
	{C2SM2, "2SM2", ShortPeriod, d(2, 2, -2, 0, 0, 0, 0, -2, 2, 0, 0), FM2, false},

	{MO3, "MO3", ShortPeriod, d(3, -4, 3, 0, 0, 0, 1, 4, -3, 0, 0), FM2O1, false},
	{C2MK3, "2MK3", ShortPeriod, d(3, -4, 3, 0, 0, 0, 1, 4, -4, 1, 0), FM22K1, false},
	{M3, "M3", ShortPeriod, d(3, -3, 3, 0, 0, 0, 0, 3, -3, 0, 0), FM3, false},
	{MK3, "MK3", ShortPeriod, d(3, -2, 3, 0, 0, 0, -1, 2, -2, -1, 0), FM2K1, false},

	{N4, "N4", ShortPeriod, d(4, -6, 4, 2, 0, 0, 0, 4, -4, 0, 0), FM22, false},
	{MN4, "MN4", ShortPeriod, d(4, -5, 4, 1, 0, 0, 0, 4, -4, 0, 0), FM22, false},
	{M4, "M4", ShortPeriod, d(4, -4, 4, 0, 0, 0, 0, 4, -4, 0, 0), FM22, false},
	{SN4, "SN4", ShortPeriod, d(4, -3, 2, 1, 0, 0, 0, 2, -2, 0, 0), FM2, false},
	{MS4, "MS4", ShortPeriod, d(4, -2, 2, 0, 0, 0, 0, 2, -2, 0, 0), FM2, false},
	{MK4, "MK4", ShortPeriod, d(4, -2, 4, 0, 0, 0, 0, 2, -2, 0, -2), FM2K2, false},
	{S4, "S4", ShortPeriod, d(4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0), F1, false},
	{SK4, "SK4", ShortPeriod, d(4, 0, 2, 0, 0, 0, 0, 0, 0, 0, -2), FK2, false},
	{R4, "R4", ShortPeriod, d(4, 0, 2, 0, 0, -2, 0, 0, 0, 0, 0), F1, false},

	{C2MN6, "2MN6", ShortPeriod, d(6, -7, 6, 1, 0, 0, 0, 6, -6, 0, 0), FM23, false},
	{M6, "M6", ShortPeriod, d(6, -6, 6, 0, 0, 0, 0, 6, -6, 0, 0), FM23, false},
	{MSN6, "MSN6", ShortPeriod, d(6, -5, 4, 1, 0, 0, 0, 4, -4, 0, 0), FM22, false},
	{C2MS6, "2MS6", ShortPeriod, d(6, -4, 4, 0, 0, 0, 0, 4, -4, 0, 0), FM22, false},
	{C2MK6, "2MK6", ShortPeriod, d(6, -4, 6, 0, 0, 0, 0, 4, -4, 0, -2), FM23K2, false},
	{C2SM6, "2SM6", ShortPeriod, d(6, -2, 2, 0, 0, 0, 0, 2, -2, 0, 0), FM2, false},
	{MSK6, "MSK6", ShortPeriod, d(6, -2, 4, 0, 0, 0, 0, 2, -2, -2, 0), FM2K2, false},
	{S6, "S6", ShortPeriod, d(6, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0), F1, false},
	{M8, "M8", ShortPeriod, d(8, -8, 8, 0, 0, 0, 0, 8, -8, 0, 0), FM24, false},

	{MSf, "MSf", LongPeriod, d(0, 2, -2, 0, 0, 0, 0, 2, -2, 0, 0), FM2, false},
	{A5, "A5", LongPeriod, d(0, 2, -2, 0, 0, 0, 0, 0, 0, 0, 0), FMm, false},
	{Sa1, "Sa1", LongPeriod, d(0, 0, 1, 0, 0, -1, 0, 0, 0, 0, 0), F1, false},
	{Sta, "Sta", LongPeriod, d(0, 0, 3, 0, 0, -1, 0, 0, 0, 0, 0), F1, false},
	{Mm2, "Mm2", LongPeriod, d(0, 1, 0, 0, 0, 0, -1, -1, 0, 0, 0), F141, false},
	{Mm1, "Mm1", LongPeriod, d(0, 1, 0, 1, 0, 0, 2, -2, 0, 0, 0), FMf, false},
	{Mf1, "Mf1", LongPeriod, d(0, 2, 0, -2, 0, 0, 0, 0, 0, 0, 0), FMm, false},
	{Mf2, "Mf2", LongPeriod, d(0, 2, 0, -1, 0, 0, -1, -1, 0, 0, 0), F141, false},
	{M0, "M0", LongPeriod, d(0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0), FMm, false},

	{N2P, "N2P", ShortPeriod, d(2, -3, 2, 0, 0, 0, 1, 3, -2, 0, 0), F146, false},
	{L2P, "L2P", ShortPeriod, d(2, -1, 2, 0, 0, 0, -1, 1, -2, 0, 0), F147, false},
	{MSK2, "MSK2", ShortPeriod, d(2, -2, 0, 0, 0, 0, 0, 2, -2, 0, 2), FM2K2, false},
	{SKM2, "SKM2", ShortPeriod, d(2, 2, 0, 0, 0, 0, 0, -2, 2, 0, -2), FM2K2, false},
	{OQ2, "OQ2", ShortPeriod, d(2, -5, 2, 1, 0, 0, 2, 0, 0, 0, 0), FO12, false},
	{C3MS4, "3MS4", ShortPeriod, d(4, -6, 6, 0, 0, 0, 0, 6, -6, 0, 0), FM23, false},
	{MNu4, "MNu4", ShortPeriod, d(4, -5, 6, -1, 0, 0, 0, 4, -4, 0, 0), FM22, false},
	{C2MSN4, "2MSN4", ShortPeriod, d(4, -1, 2, -1, 0, 0, 0, 2, -2, 0, 0), FM23, false},
	{C2NS2, "2NS2", ShortPeriod, d(2, -6, 4, 2, 0, 0, 0, 4, -4, 0, 0), FM22, false},
	{MNuS2, "MNuS2", ShortPeriod, d(2, -5, 6, -1, 0, 0, 0, 4, -4, 0, 0), FM22, false},
	{C2MK2, "2MK2", ShortPeriod, d(2, -4, 2, 0, 0, 0, 0, 4, -4, 0, 2), FM22K2, false},
	{NKM2, "NKM2", ShortPeriod, d(2, -1, 2, 1, 0, 0, 0, 0, 0, 0, -2), FM22K2, false},
	{ML4, "ML4", ShortPeriod, d(4, -3, 4, -1, 0, 0, 0, 4, -4, 0, 0), FM2L2, false},
	{SO1, "SO1", ShortPeriod, d(1, 2, -1, 0, 0, 0, -1, 0, -1, 0, 0), FO1, false},
	{SO3, "SO3", ShortPeriod, d(3, -2, 1, 0, 0, 0, 1, 2, -1, 0, 0), FO1, false},
	{NK4, "NK4", ShortPeriod, d(4, -3, 4, 1, 0, 0, 0, 2, -2, 0, -2), FM2K2, false},
	{MNK6, "MNK6", ShortPeriod, d(6, -5, 6, 1, 0, 0, 0, 4, -4, 0, -2), FM22K2, false},
	{C2NM6, "2NM6", ShortPeriod, d(6, -8, 6, 2, 0, 0, 0, 6, -6, 0, 0), FM24L2, false},
	{C3MS8, "3MS8", ShortPeriod, d(8, -6, 6, 0, 0, 0, 0, 6, -6, 0, 0), FM23, false},
	{SK3, "SK3", ShortPeriod, d(3, 0, 1, 0, 0, 0, -1, 0, 0, -1, 0), FK1, false},
	{C2MNS4, "2MNS4", ShortPeriod, d(4, -7, 6, 1, 0, 0, 0, 6, -6, 0, 0), FM23, false},
	{C2SMu2, "2SMu2", ShortPeriod, d(2, 4, -4, 0, 0, 0, 0, -2, 2, 0, 0), FM2, false},
	{C2MP5, "2MP5", ShortPeriod, d(5, -4, 3, 0, 0, 0, 1, 4, -4, 0, 0), FM22, false},
}

var (
	byID   = make(map[ID]*Descriptor, len(table))
	byName = make(map[string]ID, len(table))
)

func init() {
	for i := range table {
		desc := &table[i]
		byID[desc.ID] = desc
		byName[strings.ToLower(desc.Name)] = desc.ID
	}
}

// Parse performs a case-insensitive lookup of a constituent name.
func Parse(name string) (ID, error) {
	id, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, tidalerr.New(tidalerr.UnknownConstituent, "unknown constituent %q", name)
	}
	return id, nil
}

// Name returns the canonical form of id. Panics if id is not registered,
// matching the registry's "closed enumeration, finalized at load" contract.
func Name(id ID) string {
	return mustLookup(id).Name
}

// Lookup returns the full descriptor for id.
func Lookup(id ID) (Descriptor, error) {
	desc, ok := byID[id]
	if !ok {
		return Descriptor{}, tidalerr.New(tidalerr.UnknownConstituent, "unregistered constituent id %d", id)
	}
	return *desc, nil
}

func mustLookup(id ID) *Descriptor {
	desc, ok := byID[id]
	if !ok {
		panic("constituent: unregistered id")
	}
	return desc
}

// All returns every registered identifier, in registry (not necessarily
// frequency) order.
func All() []ID {
	ids := make([]ID, len(table))
	for i := range table {
		ids[i] = table[i].ID
	}
	return ids
}

// Mean angular rates of the six fundamental longitudes, in degrees per solar
// hour: the hour angle of the mean sun (T), sidereal month, tropical year,
// lunar perigee cycle, regression of the node, and perihelion cycle. Dotting
// these with a Darwin 11-tuple's first six components gives the constituent's
// angular speed; e.g. M2 (T=2, S=-2, H=2) comes out to
// 30 - 1.0980330 + 0.0821372 = 28.9841042 deg/hour, and S2 (T=2) to exactly
// 30 deg/hour.
const (
	rateT  = 15.0
	rateS  = 0.5490165
	rateH  = 0.0410686
	rateP  = 0.0046418
	rateN  = -0.0022064
	rateP1 = 0.0000019
)

// FrequencyDegPerHour returns the constituent's angular speed in degrees per
// solar hour, derived from its Darwin coefficients.
func (c Darwin) FrequencyDegPerHour() float64 {
	return float64(c.T)*rateT + float64(c.S)*rateS + float64(c.H)*rateH +
		float64(c.P)*rateP + float64(c.N)*rateN + float64(c.P1)*rateP1
}

// DoodsonNumbers derives the 7-element Doodson vector from a Darwin
// 11-tuple, matching original_source's darwin_to_doodson: tau = T, s+tau,
// h-tau, p, N, p1, and a normalized shift (1 or -1 become their negatives).
func (desc Descriptor) DoodsonNumbers() Doodson {
	c := desc.Coeff
	shift := c.Shift
	if shift == 1 || shift == -1 {
		shift = -shift
	}
	return Doodson{
		int8(c.T),
		int8(c.S + c.T),
		int8(c.H - c.T),
		int8(c.P),
		int8(c.N),
		int8(c.P1),
		int8(shift),
	}
}
