package lpe

import (
	"math"
	"testing"

	"go.ngs.io/tides-api/internal/domain/angle"
	"go.ngs.io/tides-api/internal/domain/constituent"
	"go.ngs.io/tides-api/internal/domain/wavetable"
)

func TestComputeFiniteAcrossLatitudes(t *testing.T) {
	a := angle.Compute(1_700_000_000, angle.SchuremanOrder1)
	for _, lat := range []float64{-89.9, -45, 0, 45, 89.9} {
		got := Compute(nil, a, lat)
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Errorf("Compute(lat=%v) = %v, want finite", lat, got)
		}
	}
}

func TestComputeOrder3VanishesAtEquator(t *testing.T) {
	// c3(0) = sqrt(7/4pi)*(2.5*0-1.5)*0 = 0, so the order-3 term drops out
	// regardless of h30; only the order-2 term should remain.
	a := angle.Compute(1_700_000_000, angle.SchuremanOrder1)
	sinLat := 0.0
	c20 := math.Sqrt(5.0/(4.0*math.Pi)) * (1.5*sinLat*sinLat - 0.5)
	var h20 float64
	for _, r := range order2 {
		arg := float64(r.S)*a.S + float64(r.H)*a.H + float64(r.P)*a.P +
			float64(r.N)*a.N + float64(r.P1)*a.P1
		h20 += math.Cos(arg) * r.Amp
	}
	want := loveOrder2 * c20 * h20 * 1e2

	got := Compute(nil, a, 0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Compute(lat=0) = %v, want %v", got, want)
	}
}

func TestZeroedRowsDropMfContribution(t *testing.T) {
	tbl, err := wavetable.New([]string{"Mf"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mfID, _ := constituent.Parse("Mf")
	w, _ := tbl.Get(mfID)
	if !w.Dynamic {
		t.Fatalf("requested constituent should be marked dynamic")
	}

	a := angle.Compute(1_700_000_000, angle.SchuremanOrder1)
	withMf := Compute(nil, a, 50.0)
	withoutMf := Compute(tbl, a, 50.0)
	if withMf == withoutMf {
		t.Errorf("zeroing Mf's order-2 rows should change the equilibrium value: got %v both times", withMf)
	}
}

func TestZeroedRowsNoOpWhenConstituentNotDynamic(t *testing.T) {
	tbl := wavetable.All()
	a := angle.Compute(1_700_000_000, angle.SchuremanOrder1)
	full := Compute(nil, a, 30.0)
	sameTable := Compute(tbl, a, 30.0)
	if full != sameTable {
		t.Errorf("Compute with a non-dynamic full table should match Compute(nil, ...): got %v vs %v", sameTable, full)
	}
}

func TestOrder2TableHasOneHundredSixRows(t *testing.T) {
	if len(order2) != 106 {
		t.Fatalf("order2 table has %d rows, want 106", len(order2))
	}
}

func TestOrder3TableHasSeventeenRows(t *testing.T) {
	if len(order3) != 17 {
		t.Fatalf("order3 table has %d rows, want 17", len(order3))
	}
}
