// Package lpe computes the long-period equilibrium tide by summing the
// Cartwright-Tayler-Edden order-2 and order-3 potential tables,
// independent of any grid. A row contributes a cosine (order-2) or sine
// (order-3) term in the five slow longitudes s, h, p, N, p1; rows belonging
// to a constituent flagged dynamic in the caller's wave table are zeroed to
// avoid double-counting against that constituent's own grid-driven term.
package lpe

import (
	"math"

	"go.ngs.io/tides-api/internal/domain/angle"
	"go.ngs.io/tides-api/internal/domain/constituent"
	"go.ngs.io/tides-api/internal/domain/wavetable"
)

// row is one line of a Cartwright-Tayler-Edden table: integer multipliers on
// (s, h, p, N, p1) and the term's amplitude.
type row struct {
	S, H, P, N, P1 int
	Amp            float64
}

// order2 is the 106-row order-2 (semi-annual-and-slower, cosine) table, from
// prediction.c's cst_w2nd (R. Ray, epoch 1990-01-01T00:00Z).
var order2 = [106]row{
	{0, 0, 0, 1, 0, 0.02793},
	{0, 0, 0, 2, 0, -0.00027},
	{0, 0, 2, 1, 0, 0.00004},
	{0, 1, 0, -1, -1, -0.00004},
	{0, 1, 0, 0, -1, -0.00492},
	{0, 1, 0, 0, 1, 0.00026},
	{0, 1, 0, 1, -1, 0.00005},
	{0, 2, -2, -1, 0, 0.00002},
	{0, 2, -2, 0, 0, -0.00031},
	{0, 2, 0, 0, 0, -0.03095}, // Ssa
	{0, 2, 0, 0, -2, -0.00008},
	{0, 2, 0, 1, 0, 0.00077}, // Ssa
	{0, 2, 0, 2, 0, 0.00017}, // Ssa
	{0, 3, 0, 0, -1, -0.00181},
	{0, 3, 0, 1, -1, 0.00003},
	{0, 4, 0, 0, -2, -0.00007},
	{1, -3, 1, -1, 1, 0.00002},
	{1, -3, 1, 0, 1, -0.00029},
	{1, -3, 1, 1, 1, 0.00002},
	{1, -2, -1, -2, 0, 0.00003},
	{1, -2, -1, -1, 0, 0.00007},
	{1, -2, 1, -1, 0, 0.00048},
	{1, -2, 1, 0, 0, -0.00673},
	{1, -2, 1, 1, 0, 0.00043},
	{1, -1, -1, -1, 1, 0.00002},
	{1, -1, -1, 0, 1, -0.00021},
	{1, -1, -1, 1, 1, 0.00000},
	{1, -1, 0, 0, 0, 0.00020},
	{1, -1, 1, 0, -1, 0.00005},
	{1, 0, -1, -2, 0, -0.00003}, // Mm (FES2014)
	{1, 0, -1, -1, 0, 0.00231},  // Mm (FES2014)
	{1, 0, -1, 0, 0, -0.03518},  // Mm
	{1, 0, -1, 1, 0, 0.00228},   // Mm
	{1, 0, 1, 0, 0, 0.00189},
	{1, 0, 1, 1, 0, 0.00077},
	{1, 0, 1, 2, 0, 0.00021},
	{1, 1, -1, 0, -1, 0.00018},
	{1, 2, -1, 0, 0, 0.00049},
	{1, 2, -1, 1, 0, 0.00024},
	{1, 2, -1, 2, 0, 0.00004},
	{1, 3, -1, 0, -1, 0.00003},
	{2, -4, 2, 0, 0, -0.00011},
	{2, -3, 0, 0, 1, -0.00038},
	{2, -3, 0, 1, 1, 0.00002},
	{2, -2, 0, -1, 0, -0.00042},
	{2, -2, 0, 0, 0, -0.00582},
	{2, -2, 0, 1, 0, 0.00037},
	{2, -2, 2, 0, 0, 0.00004},
	{2, -1, -2, 0, 1, -0.00004},
	{2, -1, -1, 0, 0, 0.00003},
	{2, -1, 0, 0, -1, 0.00007},
	{2, -1, 0, 0, 1, -0.00020},
	{2, -1, 0, 1, 1, -0.00004},
	{2, 0, -2, -1, 0, 0.00015},
	{2, 0, -2, 0, 0, -0.00288},
	{2, 0, -2, 1, 0, 0.00019},
	{2, 0, 0, 0, 0, -0.06662}, // Mf
	{2, 0, 0, 1, 0, -0.02762}, // Mf
	{2, 0, 0, 2, 0, -0.00258}, // Mf
	{2, 0, 0, 3, 0, 0.00007},  // Mf
	{2, 1, -2, 0, -1, 0.00003},
	{2, 1, 0, 0, -1, 0.00023},
	{2, 1, 0, 1, -1, 0.00006},
	{2, 2, -2, 0, 0, 0.00020},
	{2, 2, -2, 1, 0, 0.00008},
	{2, 2, 0, 2, 0, 0.00003},
	{3, -5, 1, 0, 1, -0.00002},
	{3, -4, 1, 0, 0, -0.00017},
	{3, -3, -1, 0, 1, -0.00007},
	{3, -3, 1, 0, 1, -0.00012},
	{3, -3, 1, 1, 1, -0.00004},
	{3, -2, -1, -1, 0, -0.00010},
	{3, -2, -1, 0, 0, -0.00091},
	{3, -2, -1, 1, 0, 0.00006},
	{3, -2, 1, 0, 0, -0.00242},
	{3, -2, 1, 1, 0, -0.00100},
	{3, -2, 1, 2, 0, -0.00009},
	{3, -1, -1, 0, 1, -0.00013},
	{3, -1, -1, 1, 1, -0.00004},
	{3, -1, 0, 0, 0, 0.00006},
	{3, -1, 0, 1, 0, 0.00003},
	{3, -1, 1, 0, -1, 0.00003},
	{3, 0, -3, 0, 0, -0.00023},
	{3, 0, -3, 1, -1, 0.00004},
	{3, 0, -3, 1, 1, 0.00004},
	{3, 0, -1, 0, 0, -0.01275}, // Mtm
	{3, 0, -1, 1, 0, -0.00528}, // Mtm
	{3, 0, -1, 2, 0, -0.00051}, // Mtm
	{3, 0, 1, 2, 0, 0.00005},
	{3, 0, 1, 3, 0, 0.00002},
	{3, 1, -1, 0, -1, 0.00011},
	{3, 1, -1, 1, -1, 0.00004},
	{4, -4, 0, 0, 0, -0.00008},
	{4, -4, 2, 0, 0, -0.00006},
	{4, -4, 2, 1, 0, -0.00002},
	{4, -3, 0, 0, 1, -0.00014},
	{4, -3, 0, 1, 1, -0.00006},
	{4, -2, -2, 0, 0, -0.00011},
	{4, -2, 0, 0, 0, -0.00205}, // Msqm
	{4, -2, 0, 1, 0, -0.00085}, // Msqm
	{4, -2, 0, 2, 0, -0.00008}, // Msqm (FES2014)
	{4, -1, -2, 0, 1, -0.00003},
	{4, -1, 0, 0, -1, 0.00003},
	{4, 0, -2, 0, 0, -0.00169},
	{4, 0, -2, 1, 0, -0.00070},
	{4, 0, -2, 2, 0, -0.00006},
}

// order3 is the 17-row order-3 (sine) table, from prediction.c's w3rd.
var order3 = [17]row{
	{0, 0, 1, 0, 0, -0.00021},
	{0, 2, -1, 0, 0, -0.00004},
	{1, -2, 0, 0, 0, 0.00004},
	{1, 0, 0, -1, 0, 0.00019},
	{1, 0, 0, 0, 0, -0.00375},
	{1, 0, 0, 1, 0, -0.00059},
	{1, 0, 0, 2, 0, 0.00005},
	{2, -2, 1, 0, 0, -0.00012},
	{2, 0, -1, 0, 0, -0.00061},
	{2, 0, -1, 1, 0, -0.00010},
	{3, -2, 0, 0, 0, -0.00010},
	{3, 0, -2, 0, 0, -0.00007},
	{3, 0, 0, 0, 0, -0.00030},
	{3, 0, 0, 1, 0, -0.00019},
	{3, 0, 0, 2, 0, -0.00004},
	{4, 0, -1, 0, 0, -0.00008},
	{4, 0, -1, 1, 0, -0.00005},
}

// order2ZeroedBy gives, per constituent whose own dynamic grid term would
// otherwise double-count against part of the order-2 table, the row indices
// to zero when that constituent is flagged dynamic
// (prediction.c's set_w2nd conditionals).
var order2ZeroedBy = map[constituent.ID][]int{
	constituent.Mm:   {29, 30, 31, 32},
	constituent.Mf:   {56, 57, 58, 59},
	constituent.Mtm:  {85, 86, 87},
	constituent.MSqm: {98, 99, 100},
	constituent.Ssa:  {9, 11, 12},
}

// Love numbers folded into the Legendre-weighted harmonics (1 - h + k),
// matching spec.md's c2/c3 definitions.
const (
	loveOrder2 = 1.0 - 0.609 + 0.302
	loveOrder3 = 1.0 - 0.291 + 0.093
)

// Compute returns the long-period equilibrium tide, in centimeters, at the
// given astronomical angles and latitude (degrees), zeroing any order-2 row
// belonging to a constituent marked dynamic in t.
func Compute(t *wavetable.Table, a angle.Angles, latDeg float64) float64 {
	zeroed := zeroedRows(t)

	var h20, h30 float64
	for i, r := range order2 {
		if zeroed[i] {
			continue
		}
		arg := float64(r.S)*a.S + float64(r.H)*a.H + float64(r.P)*a.P +
			float64(r.N)*a.N + float64(r.P1)*a.P1
		h20 += math.Cos(arg) * r.Amp
	}
	for _, r := range order3 {
		arg := float64(r.S)*a.S + float64(r.H)*a.H + float64(r.P)*a.P +
			float64(r.N)*a.N + float64(r.P1)*a.P1
		h30 += math.Sin(arg) * r.Amp
	}

	sinLat := math.Sin(latDeg * math.Pi / 180.0)
	c20 := math.Sqrt(5.0/(4.0*math.Pi)) * (1.5*sinLat*sinLat - 0.5)
	c30 := math.Sqrt(7.0/(4.0*math.Pi)) * (2.5*sinLat*sinLat - 1.5) * sinLat

	return (loveOrder2*c20*h20 + loveOrder3*c30*h30) * 1e2
}

func zeroedRows(t *wavetable.Table) map[int]bool {
	zeroed := make(map[int]bool)
	if t == nil {
		return zeroed
	}
	for id, indices := range order2ZeroedBy {
		w, ok := t.Get(id)
		if !ok || !w.Dynamic {
			continue
		}
		for _, idx := range indices {
			zeroed[idx] = true
		}
	}
	return zeroed
}
