// Package wavetable holds the ordered collection of waves used by a single
// prediction: a sparse or full view of the constituent catalogue, the
// broadcast of nodal corrections across it, and the harmonic analysis /
// synthesis helpers used to fit and evaluate a table against an observed
// series.
package wavetable

import (
	"math"
	"sort"

	"go.ngs.io/tides-api/internal/domain/angle"
	"go.ngs.io/tides-api/internal/domain/constituent"
	"go.ngs.io/tides-api/internal/domain/tidalerr"
	"go.ngs.io/tides-api/internal/domain/wave"
)

// Table is an ordered collection of waves, keyed by constituent identifier
// but iterated in a fixed order (registry order for All, first-request order
// for New) so that harmonic-analysis output columns line up deterministically
// across calls.
type Table struct {
	order []constituent.ID
	waves map[constituent.ID]*wave.Wave
}

// New builds a table containing only the named constituents, each marked
// Dynamic (requested by the caller) and not yet Modeled (no Z populated).
// An empty names list builds the full catalogue, mirroring
// original_source's create_table/create_sparse_table split.
func New(names []string) (*Table, error) {
	if len(names) == 0 {
		return All(), nil
	}
	t := &Table{waves: make(map[constituent.ID]*wave.Wave, len(names))}
	for _, name := range names {
		id, err := constituent.Parse(name)
		if err != nil {
			return nil, err
		}
		if _, exists := t.waves[id]; exists {
			continue
		}
		desc, err := constituent.Lookup(id)
		if err != nil {
			return nil, err
		}
		w := wave.New(desc)
		w.Dynamic = true
		t.waves[id] = w
		t.order = append(t.order, id)
	}
	return t, nil
}

// All builds a table containing every constituent in the catalogue, none
// marked Dynamic until explicitly populated by a caller.
func All() *Table {
	ids := constituent.All()
	t := &Table{
		order: make([]constituent.ID, len(ids)),
		waves: make(map[constituent.ID]*wave.Wave, len(ids)),
	}
	for i, id := range ids {
		desc, err := constituent.Lookup(id)
		if err != nil {
			// constituent.All only returns registered identifiers.
			panic(err)
		}
		t.waves[id] = wave.New(desc)
		t.order[i] = id
	}
	return t
}

// Len returns the number of waves in the table.
func (t *Table) Len() int { return len(t.order) }

// Get returns the wave for id, or false if id is not present in this table.
func (t *Table) Get(id constituent.ID) (*wave.Wave, bool) {
	w, ok := t.waves[id]
	return w, ok
}

// MustGet returns the wave for id, or a SchemaMismatch error if absent.
func (t *Table) MustGet(id constituent.ID) (*wave.Wave, error) {
	w, ok := t.waves[id]
	if !ok {
		return nil, tidalerr.New(tidalerr.SchemaMismatch, "constituent %q not present in this table", constituent.Name(id))
	}
	return w, nil
}

// Waves returns every wave, in the table's iteration order.
func (t *Table) Waves() []*wave.Wave {
	ws := make([]*wave.Wave, len(t.order))
	for i, id := range t.order {
		ws[i] = t.waves[id]
	}
	return ws
}

// Clone deep-copies the table's per-evaluation state (Z, V, F, U, flags)
// while sharing the read-only descriptors; used to give each prediction
// worker an independent table cloned from one shared template.
func (t *Table) Clone() *Table {
	c := &Table{
		order: append([]constituent.ID(nil), t.order...),
		waves: make(map[constituent.ID]*wave.Wave, len(t.waves)),
	}
	for id, w := range t.waves {
		c.waves[id] = w.Clone()
	}
	return c
}

// ResetForQuery clears every wave's per-query mutable state (Z, V, F, U, and
// the Modeled flag admittance/interpolation set on the previous query) while
// preserving Dynamic, which reflects how the table was built rather than any
// one query's outcome. Workers reuse one cloned table across many queries by
// calling this between them instead of cloning per query.
func (t *Table) ResetForQuery() {
	for _, w := range t.waves {
		w.Z = 0
		w.V, w.F, w.U = 0, 0, 0
		w.Modeled = false
	}
}

// ComputeNodalCorrections broadcasts nodal-correction computation across
// every wave in the table for the given astronomical angles
// (Table::compute_nodal_modulations).
func (t *Table) ComputeNodalCorrections(a angle.Angles) {
	for _, w := range t.waves {
		w.ComputeNodalCorrections(a)
	}
}

// SumShortPeriod sums f*(Re(Z)cos(V+u)+Im(Z)sin(V+u)) over every short-period
// wave in the table, giving the modeled tidal height contribution.
func (t *Table) SumShortPeriod() float64 {
	var total float64
	for _, w := range t.waves {
		if w.Descriptor.Class != constituent.ShortPeriod {
			continue
		}
		total += w.CorrectedTide()
	}
	return total
}

// SumLongPeriod sums the modeled long-period contribution analogously to
// SumShortPeriod, restricted to long-period waves (added to the equilibrium
// value computed independently by package lpe).
func (t *Table) SumLongPeriod() float64 {
	var total float64
	for _, w := range t.waves {
		if w.Descriptor.Class != constituent.LongPeriod {
			continue
		}
		total += w.CorrectedTide()
	}
	return total
}

// SelectForAnalysis returns the identifiers of waves whose period is short
// enough, relative to durationSeconds and the Rayleigh-style factor, to be
// separable in a harmonic analysis of that length
// (Table::select_waves_for_analysis): period_hours < factor *
// (durationSeconds/3600).
func SelectForAnalysis(durationSeconds, factor float64) []constituent.ID {
	durationHours := durationSeconds / 3600.0
	var result []constituent.ID
	for _, id := range constituent.All() {
		desc, err := constituent.Lookup(id)
		if err != nil {
			continue
		}
		freq := desc.Coeff.FrequencyDegPerHour()
		if freq <= 0 {
			continue
		}
		periodHours := 360.0 / freq
		if periodHours < factor*durationHours {
			result = append(result, id)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// HarmonicAnalysis fits complex tide amplitudes Z for each of n waves from m
// observations h, given the per-observation, per-wave nodal factor f and
// combined argument vu (both n x m, row-major, matching
// Table::harmonic_analysis): solves the normal equations
// (H H^T)^-1 H h where H stacks f*cos(vu) over f*sin(vu). Returns one
// complex128 per wave, in the same order as the f/vu rows.
func HarmonicAnalysis(h []float64, f, vu [][]float64) ([]complex128, error) {
	n := len(f)
	if n == 0 {
		return nil, tidalerr.New(tidalerr.InvalidArgument, "harmonic analysis requires at least one wave")
	}
	m := len(h)
	for i := range f {
		if len(f[i]) != m || len(vu[i]) != m {
			return nil, tidalerr.New(tidalerr.InvalidArgument, "f and vu rows must each have length %d (observation count)", m)
		}
	}
	for _, v := range h {
		if math.IsNaN(v) {
			result := make([]complex128, n)
			nan := complex(math.NaN(), math.NaN())
			for i := range result {
				result[i] = nan
			}
			return result, nil
		}
	}

	size := 2 * n
	hrow := make([][]float64, size)
	for i := 0; i < n; i++ {
		cosRow := make([]float64, m)
		sinRow := make([]float64, m)
		for j := 0; j < m; j++ {
			cosRow[j] = f[i][j] * math.Cos(vu[i][j])
			sinRow[j] = f[i][j] * math.Sin(vu[i][j])
		}
		hrow[i] = cosRow
		hrow[n+i] = sinRow
	}

	normal := make([][]float64, size)
	rhs := make([]float64, size)
	for i := 0; i < size; i++ {
		normal[i] = make([]float64, size)
		for j := 0; j < size; j++ {
			normal[i][j] = dot(hrow[i], hrow[j])
		}
		rhs[i] = dot(hrow[i], h)
	}

	solution, err := solveLinearSystem(normal, rhs)
	if err != nil {
		return nil, err
	}

	result := make([]complex128, n)
	for i := 0; i < n; i++ {
		result[i] = complex(solution[i], solution[n+i])
	}
	return result, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// solveLinearSystem solves A x = b via Gaussian elimination with partial
// pivoting; there is no matrix library in the retrieved pack, matching the
// teacher's own avoidance of one for anything short-period-prediction
// related.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	m := make([][]float64, n)
	for i := range a {
		m[i] = append([]float64(nil), a[i]...)
		m[i] = append(m[i], b[i])
	}

	for col := 0; col < n; col++ {
		pivot := col
		maxAbs := math.Abs(m[col][col])
		for row := col + 1; row < n; row++ {
			if abs := math.Abs(m[row][col]); abs > maxAbs {
				pivot, maxAbs = row, abs
			}
		}
		if maxAbs < 1e-12 {
			return nil, tidalerr.New(tidalerr.InvalidArgument, "harmonic analysis normal equations are singular")
		}
		m[col], m[pivot] = m[pivot], m[col]

		for row := col + 1; row < n; row++ {
			factor := m[row][col] / m[col][col]
			for k := col; k <= n; k++ {
				m[row][k] -= factor * m[col][k]
			}
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := m[row][n]
		for col := row + 1; col < n; col++ {
			sum -= m[row][col] * x[col]
		}
		x[row] = sum / m[row][row]
	}
	return x, nil
}
