// Package engine assembles the five-call handle façade over the prediction
// pipeline: configuration load, per-constituent grid load, cross-constituent
// schema validation, cache construction, and wiring into usecase.Driver.
// This mirrors original_source's public C API (fes_new/fes_set_buffer_size/
// fes_core/fes_min_number/fes_delete) one level up from the package that
// implements each of those concerns.
package engine

import (
	"math"
	"sort"
	"sync"
	"time"

	"go.ngs.io/tides-api/internal/adapter/cache"
	"go.ngs.io/tides-api/internal/adapter/interp"
	"go.ngs.io/tides-api/internal/adapter/store/fes"
	"go.ngs.io/tides-api/internal/config"
	"go.ngs.io/tides-api/internal/domain/admittance"
	"go.ngs.io/tides-api/internal/domain/angle"
	"go.ngs.io/tides-api/internal/domain/constituent"
	"go.ngs.io/tides-api/internal/domain/tidalerr"
	"go.ngs.io/tides-api/internal/domain/wavetable"
	"go.ngs.io/tides-api/internal/usecase"
)

// Handle is one open prediction engine: a fixed wave table and grid source
// built at New, plus the per-call mutable state (scratch table,
// accelerator, last quality) that Core advances. A Handle is safe for
// concurrent use; each Core call is serialized.
type Handle struct {
	mu          sync.Mutex
	driver      *usecase.Driver
	source      *gridSource
	scratch     *wavetable.Table
	acc         *interp.Accelerator
	lastQuality int
	deleted     bool
}

// New opens a handle over every wave configured under kind in the file at
// configPath, with a grid cache running in mode. Direct mode uses
// FES_BUFFER_SIZE's configured size, falling back to cache.MinBudgetBytes
// if the file did not set one.
func New(kind config.Kind, mode cache.Mode, configPath string) (*Handle, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	sources := cfg.Waves[kind]
	if len(sources) == 0 {
		return nil, tidalerr.New(tidalerr.InvalidConfig, "no %s waves configured in %q", kind, configPath)
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	grids := make(map[string]*fes.Grid, len(names))
	for _, name := range names {
		src := sources[name]
		grid, err := fes.LoadGrid(src.File, src.Latitude, src.Longitude, src.Amplitude, src.Phase)
		if err != nil {
			return nil, tidalerr.Wrap(tidalerr.GridIoError, err, "loading wave %q", name)
		}
		grids[name] = grid
	}

	byteBudget := config.MiBToBytes(cfg.BufferSizeMiB)
	if byteBudget == 0 {
		byteBudget = cache.MinBudgetBytes
	}
	return newFromGrids(names, grids, mode, byteBudget)
}

// newFromGrids builds a Handle from already-loaded grids, independent of how
// they were sourced. New's NetCDF loading funnels through here, as does the
// test suite's synthetic fixtures.
func newFromGrids(names []string, grids map[string]*fes.Grid, mode cache.Mode, byteBudget int64) (*Handle, error) {
	tbl, err := wavetable.New(names)
	if err != nil {
		return nil, err
	}

	var refGrid *interp.Grid2D
	var nLon int
	readers := make([]cache.GridReader, 0, len(names))
	readerIdx := make(map[constituent.ID]int, len(names))

	for _, name := range names {
		grid, ok := grids[name]
		if !ok {
			return nil, tidalerr.New(tidalerr.InvalidConfig, "no grid supplied for wave %q", name)
		}
		if refGrid == nil {
			refGrid = grid.Amplitude
			nLon = len(refGrid.X)
		} else if !sameAxes(refGrid, grid.Amplitude) {
			return nil, tidalerr.New(tidalerr.SchemaMismatch, "wave %q grid axes disagree with the first loaded grid", name)
		}

		id, err := constituent.Parse(name)
		if err != nil {
			return nil, err
		}
		readerIdx[id] = len(readers)
		readers = append(readers, &waveGridReader{amp: grid.Amplitude, phase: grid.Phase, nLon: nLon})
	}

	c, err := cache.New(mode, byteBudget, readers)
	if err != nil {
		return nil, err
	}

	source := &gridSource{refGrid: refGrid, nLon: nLon, readerIdx: readerIdx, allReaders: readers, cellCache: c}
	driver := usecase.NewDriver(source, tbl, angle.SchuremanOrder1, admittance.NewFourierPolicy())

	return &Handle{
		driver:  driver,
		source:  source,
		scratch: tbl.Clone(),
		acc:     interp.NewAccelerator(1.0),
	}, nil
}

func sameAxes(a, b *interp.Grid2D) bool {
	if len(a.X) != len(b.X) || len(a.Y) != len(b.Y) {
		return false
	}
	for i := range a.X {
		if a.X[i] != b.X[i] {
			return false
		}
	}
	for i := range a.Y {
		if a.Y[i] != b.Y[i] {
			return false
		}
	}
	return true
}

// SetBufferSize rebuilds the handle's cache in Direct mode with a budget of
// mib MiB, discarding any entries cached under the previous budget.
func (h *Handle) SetBufferSize(mib int) error {
	if mib <= 0 {
		return tidalerr.New(tidalerr.InvalidArgument, "buffer size must be positive, got %d", mib)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.deleted {
		return tidalerr.New(tidalerr.InvalidArgument, "handle already deleted")
	}
	c, err := cache.New(cache.Direct, config.MiBToBytes(mib), h.source.readers())
	if err != nil {
		return err
	}
	h.source.setCache(c)
	return nil
}

// Core predicts the short-period height, long-period height, and
// interpolation quality at (lat, lon, t). A query whose quality is 0 (no
// defined corner for any requested wave) is not an error: NoData is
// reported as quality 0 with h NaN and a still-valid h_lp.
func (h *Handle) Core(lat, lon float64, t time.Time) (height, longPeriod float64, quality int, err error) {
	if lat < -90 || lat > 90 {
		return 0, 0, 0, tidalerr.New(tidalerr.InvalidArgument, "latitude %.6f outside [-90, 90]", lat)
	}
	epoch := float64(t.Unix()) + float64(t.Nanosecond())/1e9
	if math.IsNaN(epoch) {
		return 0, 0, 0, tidalerr.New(tidalerr.InvalidArgument, "time is NaN")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.deleted {
		return 0, 0, 0, tidalerr.New(tidalerr.InvalidArgument, "handle already deleted")
	}

	result := h.driver.PredictOne(usecase.Query{Lat: lat, Lon: lon, Epoch: epoch}, h.scratch, h.acc)
	h.lastQuality = result.Quality
	return result.H, result.HLP, result.Quality, nil
}

// MinNumber returns the defined-corner count (0-4) from the most recent Core
// call, named after original_source's min_number accessor (the minimum
// number of grid points that must be valid for a query to be honored).
func (h *Handle) MinNumber() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastQuality
}

// Delete releases the handle's references to its driver, wave table, and
// grid source so the garbage collector can reclaim its loaded grids without
// waiting on every caller to drop its own reference. Calling Core or
// SetBufferSize afterward returns an InvalidArgument error.
func (h *Handle) Delete() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = true
	h.driver = nil
	h.source = nil
	h.scratch = nil
	h.acc = nil
}
