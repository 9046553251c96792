package usecase

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"go.ngs.io/tides-api/internal/adapter/interp"
	"go.ngs.io/tides-api/internal/domain/admittance"
	"go.ngs.io/tides-api/internal/domain/angle"
	"go.ngs.io/tides-api/internal/domain/constituent"
	"go.ngs.io/tides-api/internal/domain/lpe"
	"go.ngs.io/tides-api/internal/domain/wavetable"
)

// GridSource samples every requested wave's complex tide value at a
// position, reporting per-wave definedness and the overall interpolation
// quality as a defined-corner count: 4 fully interpolated, 1-3 extrapolated
// near a coast, 0 no data at all. Implementations own cache lookups and
// bilinear interpolation; the driver only consumes the result.
type GridSource interface {
	Sample(lat, lon float64, waves []constituent.ID) (values map[constituent.ID]complex128, defined map[constituent.ID]bool, quality int)
}

// Query is one prediction request: a position and a UTC epoch (seconds
// since 1970-01-01T00:00:00Z).
type Query struct {
	Lat, Lon float64
	Epoch    float64
}

// Result is the driver's output for one Query: the short-period height, the
// long-period total (modeled long-period waves plus the Cartwright-Tayler-
// Edden equilibrium), and the interpolation quality flag.
type Result struct {
	Query
	H       float64
	HLP     float64
	Quality int
}

// Driver runs the per-query pipeline: cache/interpolate -> astronomical
// angles -> nodal corrections -> admittance -> short/long-period sums ->
// equilibrium long-period addition.
type Driver struct {
	source    GridSource
	template  *wavetable.Table
	formula   angle.Formula
	policy    admittance.Policy
	waveOrder []constituent.ID
}

// NewDriver builds a driver over a shared, read-only wave table template
// (its Dynamic flags mark which constituents were explicitly requested).
// policy may be nil to skip admittance entirely (every minor stays at Z=0).
func NewDriver(source GridSource, template *wavetable.Table, formula angle.Formula, policy admittance.Policy) *Driver {
	waves := template.Waves()
	order := make([]constituent.ID, len(waves))
	for i, w := range waves {
		order[i] = w.Descriptor.ID
	}
	return &Driver{source: source, template: template, formula: formula, policy: policy, waveOrder: order}
}

// PredictOne runs the full pipeline for a single query against a caller-
// supplied scratch table (normally one Clone of the driver's template kept
// per worker) and an optional accelerator (may be nil).
func (d *Driver) PredictOne(q Query, tbl *wavetable.Table, acc *interp.Accelerator) Result {
	tbl.ResetForQuery()

	values, defined, quality := d.source.Sample(q.Lat, q.Lon, d.waveOrder)
	for id, z := range values {
		if !defined[id] {
			continue
		}
		if w, ok := tbl.Get(id); ok {
			w.Z = z
			w.Modeled = true
		}
	}

	compute := func(epoch float64) angle.Angles { return angle.Compute(epoch, d.formula) }
	var a angle.Angles
	if acc != nil {
		a = acc.Angles(q.Epoch, compute)
	} else {
		a = compute(q.Epoch)
	}
	tbl.ComputeNodalCorrections(a)

	if d.policy != nil {
		_ = d.policy.Infer(tbl)
	}

	h := tbl.SumShortPeriod()
	if quality == 0 {
		h = math.NaN()
	}
	hlp := tbl.SumLongPeriod() + lpe.Compute(tbl, a, q.Lat)

	return Result{Query: q, H: h, HLP: hlp, Quality: quality}
}

// PredictMany runs PredictOne over every query, partitioned statically
// across workers goroutines (no work-stealing: each worker owns a
// contiguous slice, matching the original engine's range-partitioned
// parallel loop). The first worker error cancels the remaining ones and is
// returned; on success, results are in the same order as queries.
func (d *Driver) PredictMany(ctx context.Context, queries []Query, workers int) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(queries) {
		workers = len(queries)
	}
	results := make([]Result, len(queries))
	if len(queries) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(queries) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= len(queries) {
			break
		}
		end := start + chunk
		if end > len(queries) {
			end = len(queries)
		}

		g.Go(func() error {
			tbl := d.template.Clone()
			acc := interp.NewAccelerator(1.0)
			for i := start; i < end; i++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				results[i] = d.PredictOne(queries[i], tbl, acc)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
