package engine

import (
	"math"
	"testing"
	"time"

	"go.ngs.io/tides-api/internal/adapter/cache"
	"go.ngs.io/tides-api/internal/adapter/interp"
	"go.ngs.io/tides-api/internal/adapter/store/fes"
	"go.ngs.io/tides-api/internal/domain/tidalerr"
)

// uniformGrid builds a 2x2 Grid2D spanning the whole globe with one value
// at every corner, so every query lands in the same cell with all four
// corners defined.
func uniformGrid(value float64) *interp.Grid2D {
	return &interp.Grid2D{
		X: []float64{0, 360},
		Y: []float64{-90, 90},
		Values: [][]float64{
			{value, value},
			{value, value},
		},
	}
}

// uniformGrids builds one amplitude/phase grid pair per wave, named by
// waves[name] = {amplitude, phaseDeg}.
func uniformGrids(t *testing.T, waves map[string][2]float64) map[string]*fes.Grid {
	t.Helper()
	grids := make(map[string]*fes.Grid, len(waves))
	for name, av := range waves {
		grids[name] = &fes.Grid{
			Name:      name,
			Amplitude: uniformGrid(av[0]),
			Phase:     uniformGrid(av[1]),
		}
	}
	return grids
}

func TestNewFromGridsBuildsHandle(t *testing.T) {
	grids := uniformGrids(t, map[string][2]float64{"M2": {1.2, 30}, "S2": {0.5, 10}})
	h, err := newFromGrids([]string{"M2", "S2"}, grids, cache.InMemory, 0)
	if err != nil {
		t.Fatalf("newFromGrids: %v", err)
	}
	if h.driver == nil || h.source == nil {
		t.Fatal("handle missing driver/source")
	}
}

func TestCoreReturnsFullQualityOverUniformGrid(t *testing.T) {
	grids := uniformGrids(t, map[string][2]float64{"M2": {1.2, 30}, "S2": {0.5, 10}})
	h, err := newFromGrids([]string{"M2", "S2"}, grids, cache.InMemory, 0)
	if err != nil {
		t.Fatalf("newFromGrids: %v", err)
	}

	height, lp, quality, err := h.Core(45.0, 120.0, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Core: %v", err)
	}
	if quality != 4 {
		t.Errorf("quality = %d, want 4 (every corner defined)", quality)
	}
	if math.IsNaN(height) {
		t.Error("height is NaN despite full quality")
	}
	if math.IsNaN(lp) {
		t.Error("long-period height is NaN")
	}
	if got := h.MinNumber(); got != quality {
		t.Errorf("MinNumber() = %d, want %d (last Core's quality)", got, quality)
	}
}

func TestCoreRejectsOutOfRangeLatitude(t *testing.T) {
	grids := uniformGrids(t, map[string][2]float64{"M2": {1.0, 0}})
	h, err := newFromGrids([]string{"M2"}, grids, cache.InMemory, 0)
	if err != nil {
		t.Fatalf("newFromGrids: %v", err)
	}
	if _, _, _, err := h.Core(91.0, 0.0, time.Unix(0, 0)); !tidalerr.Is(err, tidalerr.InvalidArgument) {
		t.Fatalf("Core(lat=91) error = %v, want InvalidArgument", err)
	}
}

func TestNewFromGridsRejectsMismatchedAxes(t *testing.T) {
	grids := uniformGrids(t, map[string][2]float64{"M2": {1.0, 0}})
	grids["S2"] = &fes.Grid{
		Name: "S2",
		Amplitude: &interp.Grid2D{
			X:      []float64{0, 180, 360},
			Y:      []float64{-90, 90},
			Values: [][]float64{{1, 1, 1}, {1, 1, 1}},
		},
		Phase: uniformGrid(0),
	}
	_, err := newFromGrids([]string{"M2", "S2"}, grids, cache.InMemory, 0)
	if !tidalerr.Is(err, tidalerr.SchemaMismatch) {
		t.Fatalf("newFromGrids error = %v, want SchemaMismatch", err)
	}
}

func TestSetBufferSizeRejectsNonPositive(t *testing.T) {
	grids := uniformGrids(t, map[string][2]float64{"M2": {1.0, 0}})
	h, err := newFromGrids([]string{"M2"}, grids, cache.InMemory, 0)
	if err != nil {
		t.Fatalf("newFromGrids: %v", err)
	}
	if err := h.SetBufferSize(0); !tidalerr.Is(err, tidalerr.InvalidArgument) {
		t.Fatalf("SetBufferSize(0) error = %v, want InvalidArgument", err)
	}
	if err := h.SetBufferSize(64); err != nil {
		t.Fatalf("SetBufferSize(64): %v", err)
	}
}

func TestCoreAfterDeleteIsRejected(t *testing.T) {
	grids := uniformGrids(t, map[string][2]float64{"M2": {1.0, 0}})
	h, err := newFromGrids([]string{"M2"}, grids, cache.InMemory, 0)
	if err != nil {
		t.Fatalf("newFromGrids: %v", err)
	}
	h.Delete()
	if _, _, _, err := h.Core(0, 0, time.Unix(0, 0)); !tidalerr.Is(err, tidalerr.InvalidArgument) {
		t.Fatalf("Core after Delete error = %v, want InvalidArgument", err)
	}
}

func TestCoreQualityZeroIsNotAnError(t *testing.T) {
	grids := map[string]*fes.Grid{
		"M2": {
			Name: "M2",
			Amplitude: &interp.Grid2D{
				X:      []float64{0, 360},
				Y:      []float64{-90, 90},
				Values: [][]float64{{math.NaN(), math.NaN()}, {math.NaN(), math.NaN()}},
			},
			Phase: uniformGrid(0),
		},
	}
	h, err := newFromGrids([]string{"M2"}, grids, cache.InMemory, 0)
	if err != nil {
		t.Fatalf("newFromGrids: %v", err)
	}
	height, _, quality, err := h.Core(0, 0, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Core: unexpected error %v", err)
	}
	if quality != 0 {
		t.Errorf("quality = %d, want 0", quality)
	}
	if !math.IsNaN(height) {
		t.Errorf("height = %v, want NaN for quality 0", height)
	}
}
