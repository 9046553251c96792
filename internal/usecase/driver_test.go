package usecase

import (
	"context"
	"math"
	"testing"

	"go.ngs.io/tides-api/internal/adapter/interp"
	"go.ngs.io/tides-api/internal/domain/admittance"
	"go.ngs.io/tides-api/internal/domain/angle"
	"go.ngs.io/tides-api/internal/domain/constituent"
	"go.ngs.io/tides-api/internal/domain/wavetable"
)

// fakeSource returns a fixed complex value for every requested wave, marking
// a caller-selected subset undefined, and a fixed quality.
type fakeSource struct {
	z         complex128
	undefined map[constituent.ID]bool
	quality   int
}

func (f *fakeSource) Sample(lat, lon float64, waves []constituent.ID) (map[constituent.ID]complex128, map[constituent.ID]bool, int) {
	values := make(map[constituent.ID]complex128, len(waves))
	defined := make(map[constituent.ID]bool, len(waves))
	for _, id := range waves {
		values[id] = f.z
		defined[id] = !f.undefined[id]
	}
	return values, defined, f.quality
}

func newTestDriver(t *testing.T, source GridSource, policy admittance.Policy) (*Driver, *wavetable.Table) {
	t.Helper()
	tbl, err := wavetable.New([]string{"M2", "S2", "K1", "O1"})
	if err != nil {
		t.Fatalf("wavetable.New: %v", err)
	}
	return NewDriver(source, tbl, angle.SchuremanOrder1, policy), tbl
}

func TestPredictOneZeroQualityYieldsNaNShortPeriod(t *testing.T) {
	src := &fakeSource{z: complex(1, 0), quality: 0}
	d, tbl := newTestDriver(t, src, nil)

	res := d.PredictOne(Query{Lat: 10, Lon: 20, Epoch: 0}, tbl, nil)
	if !math.IsNaN(res.H) {
		t.Errorf("H = %v, want NaN when quality is 0", res.H)
	}
	if res.Quality != 0 {
		t.Errorf("Quality = %d, want 0", res.Quality)
	}
}

func TestPredictOnePopulatesDefinedWavesAndMarksModeled(t *testing.T) {
	src := &fakeSource{z: complex(2, 1), quality: 4}
	d, tbl := newTestDriver(t, src, nil)

	d.PredictOne(Query{Lat: 10, Lon: 20, Epoch: 0}, tbl, nil)

	w, ok := tbl.Get(constituent.M2)
	if !ok {
		t.Fatalf("M2 not present in table")
	}
	if !w.Modeled {
		t.Errorf("Modeled = false, want true for a defined wave")
	}
	if w.Z != complex(2, 1) {
		t.Errorf("Z = %v, want (2+1i)", w.Z)
	}
}

func TestPredictOneSkipsUndefinedWaves(t *testing.T) {
	src := &fakeSource{z: complex(2, 1), quality: 3, undefined: map[constituent.ID]bool{constituent.K1: true}}
	d, tbl := newTestDriver(t, src, nil)

	d.PredictOne(Query{Lat: 10, Lon: 20, Epoch: 0}, tbl, nil)

	w, ok := tbl.Get(constituent.K1)
	if !ok {
		t.Fatalf("K1 not present in table")
	}
	if w.Modeled {
		t.Errorf("Modeled = true, want false for an undefined corner")
	}
	if w.Z != 0 {
		t.Errorf("Z = %v, want 0 for an undefined corner", w.Z)
	}
}

func TestPredictOneResetsStateBetweenCalls(t *testing.T) {
	src := &fakeSource{z: complex(2, 1), quality: 4}
	d, tbl := newTestDriver(t, src, nil)

	d.PredictOne(Query{Lat: 10, Lon: 20, Epoch: 0}, tbl, nil)

	src.undefined = map[constituent.ID]bool{constituent.M2: true}
	d.PredictOne(Query{Lat: 10, Lon: 20, Epoch: 3600}, tbl, nil)

	w, _ := tbl.Get(constituent.M2)
	if w.Modeled {
		t.Errorf("Modeled = true after a query where M2 is undefined; ResetForQuery did not clear it")
	}
	if w.Z != 0 {
		t.Errorf("Z = %v, want 0 after a query where M2 is undefined", w.Z)
	}
}

// countingPolicy records how many times Infer was called, standing in for
// admittance.ZeroPolicy/SplinePolicy in tests that only care about wiring.
type countingPolicy struct{ calls int }

func (p *countingPolicy) Infer(t *wavetable.Table) error {
	p.calls++
	return nil
}

func TestPredictOneInvokesAdmittancePolicy(t *testing.T) {
	src := &fakeSource{z: complex(1, 0), quality: 4}
	policy := &countingPolicy{}
	d, tbl := newTestDriver(t, src, policy)

	d.PredictOne(Query{Lat: 10, Lon: 20, Epoch: 0}, tbl, nil)
	d.PredictOne(Query{Lat: 10, Lon: 20, Epoch: 1}, tbl, nil)

	if policy.calls != 2 {
		t.Errorf("policy.calls = %d, want 2", policy.calls)
	}
}

func TestPredictOneUsesAcceleratorForStableAngles(t *testing.T) {
	src := &fakeSource{z: complex(1, 0), quality: 4}
	d, tbl := newTestDriver(t, src, nil)
	acc := interp.NewAccelerator(3600)

	first := d.PredictOne(Query{Lat: 10, Lon: 20, Epoch: 0}, tbl, acc)
	second := d.PredictOne(Query{Lat: 10, Lon: 20, Epoch: 1}, tbl, acc)

	if first.H != second.H {
		t.Errorf("H changed between two epochs within the accelerator's tolerance: %v vs %v", first.H, second.H)
	}
}

func TestPredictManyPreservesOrderAcrossWorkers(t *testing.T) {
	src := &fakeSource{z: complex(1, 0), quality: 4}
	d, _ := newTestDriver(t, src, nil)

	queries := make([]Query, 20)
	for i := range queries {
		queries[i] = Query{Lat: 10, Lon: 20, Epoch: float64(i) * 600}
	}

	results, err := d.PredictMany(context.Background(), queries, 4)
	if err != nil {
		t.Fatalf("PredictMany: %v", err)
	}
	if len(results) != len(queries) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(queries))
	}
	for i, r := range results {
		if r.Epoch != queries[i].Epoch {
			t.Errorf("results[%d].Epoch = %v, want %v (order not preserved)", i, r.Epoch, queries[i].Epoch)
		}
		if math.IsNaN(r.H) {
			t.Errorf("results[%d].H is NaN, want a finite height", i)
		}
	}
}

func TestPredictManyEmptyQueries(t *testing.T) {
	src := &fakeSource{z: complex(1, 0), quality: 4}
	d, _ := newTestDriver(t, src, nil)

	results, err := d.PredictMany(context.Background(), nil, 4)
	if err != nil {
		t.Fatalf("PredictMany: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestPredictManyCancellation(t *testing.T) {
	src := &fakeSource{z: complex(1, 0), quality: 4}
	d, _ := newTestDriver(t, src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	queries := make([]Query, 50)
	for i := range queries {
		queries[i] = Query{Lat: 10, Lon: 20, Epoch: float64(i)}
	}

	if _, err := d.PredictMany(ctx, queries, 4); err == nil {
		t.Errorf("expected an error from a pre-cancelled context")
	}
}
