package wavetable

import (
	"math"
	"testing"

	"go.ngs.io/tides-api/internal/domain/angle"
	"go.ngs.io/tides-api/internal/domain/constituent"
)

func TestNewSparseTableContainsOnlyRequested(t *testing.T) {
	tbl, err := New([]string{"M2", "S2", "K1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tbl.Len())
	}
	for _, name := range []string{"M2", "S2", "K1"} {
		id, err := constituent.Parse(name)
		if err != nil {
			t.Fatalf("Parse(%s): %v", name, err)
		}
		w, ok := tbl.Get(id)
		if !ok {
			t.Fatalf("table missing requested constituent %s", name)
		}
		if !w.Dynamic {
			t.Errorf("%s: Dynamic = false, want true for explicitly requested wave", name)
		}
	}
}

func TestNewEmptyNamesBuildsFullCatalogue(t *testing.T) {
	tbl, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil): %v", err)
	}
	if tbl.Len() != len(constituent.All()) {
		t.Fatalf("Len() = %d, want %d", tbl.Len(), len(constituent.All()))
	}
}

func TestNewUnknownConstituentFails(t *testing.T) {
	if _, err := New([]string{"NotAWave"}); err == nil {
		t.Fatalf("New with unknown constituent name should fail")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tbl, err := New([]string{"M2"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, _ := constituent.Parse("M2")
	w, _ := tbl.Get(id)
	w.Z = complex(1, 1)

	clone := tbl.Clone()
	cw, _ := clone.Get(id)
	cw.Z = complex(2, 2)

	if w.Z == cw.Z {
		t.Fatalf("Clone shares wave state: original Z=%v clone Z=%v", w.Z, cw.Z)
	}
}

func TestComputeNodalCorrectionsCoversEveryWave(t *testing.T) {
	tbl, err := New([]string{"M2", "O1", "Mf"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a := angle.Compute(1_700_000_000, angle.SchuremanOrder1)
	tbl.ComputeNodalCorrections(a)

	for _, w := range tbl.Waves() {
		if math.IsNaN(w.V) || math.IsNaN(w.F) {
			t.Errorf("%s: nodal corrections produced NaN: V=%v F=%v", w.Name(), w.V, w.F)
		}
	}
}

func TestSumShortPeriodOnlyCountsShortPeriod(t *testing.T) {
	tbl, err := New([]string{"M2", "Mf"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m2ID, _ := constituent.Parse("M2")
	mfID, _ := constituent.Parse("Mf")
	m2, _ := tbl.Get(m2ID)
	mf, _ := tbl.Get(mfID)
	m2.Z, m2.F, m2.V, m2.U = complex(1, 0), 1, 0, 0
	mf.Z, mf.F, mf.V, mf.U = complex(1, 0), 1, 0, 0

	if got := tbl.SumShortPeriod(); math.Abs(got-1) > 1e-9 {
		t.Errorf("SumShortPeriod() = %v, want 1 (only M2 should contribute)", got)
	}
	if got := tbl.SumLongPeriod(); math.Abs(got-1) > 1e-9 {
		t.Errorf("SumLongPeriod() = %v, want 1 (only Mf should contribute)", got)
	}
}

func TestHarmonicAnalysisRecoversKnownAmplitude(t *testing.T) {
	// Single wave, f=1, known V+u per observation; h synthesized exactly
	// from a known complex amplitude, so the fit must recover it.
	want := complex(1.5, -0.5)
	vus := []float64{0, math.Pi / 4, math.Pi / 2, 3 * math.Pi / 4, math.Pi, 5 * math.Pi / 4}
	h := make([]float64, len(vus))
	f := make([]float64, len(vus))
	for i, phi := range vus {
		h[i] = real(want)*math.Cos(phi) + imag(want)*math.Sin(phi)
		f[i] = 1
	}

	got, err := HarmonicAnalysis(h, [][]float64{f}, [][]float64{vus})
	if err != nil {
		t.Fatalf("HarmonicAnalysis: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if math.Abs(real(got[0])-real(want)) > 1e-6 || math.Abs(imag(got[0])-imag(want)) > 1e-6 {
		t.Errorf("HarmonicAnalysis = %v, want %v", got[0], want)
	}
}

func TestHarmonicAnalysisRejectsMismatchedShapes(t *testing.T) {
	_, err := HarmonicAnalysis([]float64{1, 2}, [][]float64{{1, 2, 3}}, [][]float64{{1, 2, 3}})
	if err == nil {
		t.Fatalf("expected error for mismatched f/vu row length vs h length")
	}
}

func TestSelectForAnalysisExcludesLongPeriodWavesForShortDuration(t *testing.T) {
	// A one-day analysis window should exclude slow waves like Sa (annual)
	// under any reasonable Rayleigh factor.
	ids := SelectForAnalysis(86400, 1.0)
	saID, _ := constituent.Parse("Sa")
	for _, id := range ids {
		if id == saID {
			t.Errorf("SelectForAnalysis(1 day) unexpectedly includes Sa (annual period)")
		}
	}
}
