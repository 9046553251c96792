// Package cache implements the grid cell cache: an in-memory mode
// backed by the source's own fully-loaded rasters, and a direct mode that
// lazily fills a bounded LRU of per-cell entries, one complex value per
// loaded constituent grid. It generalizes the teacher's
// internal/adapter/store/fes.Store cache field (a map guarded by one
// sync.RWMutex) from "one grid per name" to "one entry per cell, shared
// across every loaded grid".
package cache

import (
	"container/list"
	"sync"

	"go.ngs.io/tides-api/internal/domain/tidalerr"
)

// Mode selects how the cache services a cell read.
type Mode int

const (
	// InMemory assumes every grid is already fully resident (as the
	// teacher's Store.cache does); Get always calls every reader and never
	// evicts.
	InMemory Mode = iota
	// Direct keeps a bounded LRU of per-cell entries, reading from the
	// underlying sources only on a miss.
	Direct
)

// MinBudgetBytes is the minimum byte budget a Direct-mode cache accepts;
// below this, New fails with InvalidConfig.
const MinBudgetBytes = 64 * 1024 * 1024

const complex128Size = 16

// GridReader reads one constituent grid's complex value at a flat cell
// index, reporting whether that cell is defined (false for land/missing
// data/the source's fill sentinel).
type GridReader interface {
	ReadCell(flatIndex int64) (complex128, bool)
}

// entry is one cache line: up to nGrids complex values and, in parallel, a
// definedness mask. filled becomes true only once every grid has been read
// for this cell, matching the C++ source's write-once invariant.
type entry struct {
	key     int64
	values  []complex128
	defined []bool
	filled  bool
	elem    *list.Element
}

// Cache is a cell-indexed cache over a fixed set of constituent grids.
type Cache struct {
	mode       Mode
	readers    []GridReader
	maxEntries int

	mu      sync.Mutex
	byKey   map[int64]*entry
	ordered *list.List // front = most recently used
}

// New constructs a cache over readers (one per loaded constituent grid, in
// a fixed order shared by every cell's values/defined slices). For Direct
// mode, byteBudget is divided by sizeof(complex128)*len(readers) and rounded
// down to a multiple of 8 to derive maxEntries; byteBudget below
// MinBudgetBytes fails construction. InMemory mode ignores byteBudget.
func New(mode Mode, byteBudget int64, readers []GridReader) (*Cache, error) {
	c := &Cache{
		mode:    mode,
		readers: readers,
		byKey:   make(map[int64]*entry),
		ordered: list.New(),
	}
	if mode != Direct {
		return c, nil
	}
	if byteBudget < MinBudgetBytes {
		return nil, tidalerr.New(tidalerr.InvalidConfig, "cache byte budget %d below minimum %d", byteBudget, MinBudgetBytes)
	}
	perEntry := int64(complex128Size * len(readers))
	if perEntry <= 0 {
		perEntry = complex128Size
	}
	maxEntries := byteBudget / perEntry
	maxEntries -= maxEntries % 8
	if maxEntries < 8 {
		maxEntries = 8
	}
	c.maxEntries = int(maxEntries)
	return c, nil
}

// Get returns the per-grid values and definedness mask for flatIndex, and
// whether every grid was successfully read for this cell. In Direct mode, a
// hit promotes the entry to the list head; a miss allocates, fills by
// reading every grid's source, evicts from the tail if over maxEntries, and
// pushes the new entry to the head.
func (c *Cache) Get(flatIndex int64) (values []complex128, defined []bool, filled bool) {
	if c.mode == InMemory {
		return c.readThrough(flatIndex)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byKey[flatIndex]; ok {
		c.ordered.MoveToFront(e.elem)
		return e.values, e.defined, e.filled
	}

	values, defined, filled = c.readThrough(flatIndex)
	e := &entry{key: flatIndex, values: values, defined: defined, filled: filled}
	e.elem = c.ordered.PushFront(e)
	c.byKey[flatIndex] = e

	for c.maxEntries > 0 && c.ordered.Len() > c.maxEntries {
		tail := c.ordered.Back()
		if tail == nil {
			break
		}
		c.ordered.Remove(tail)
		delete(c.byKey, tail.Value.(*entry).key)
	}
	return values, defined, filled
}

// readThrough reads every grid's source for flatIndex, independent of
// caching mode.
func (c *Cache) readThrough(flatIndex int64) ([]complex128, []bool, bool) {
	n := len(c.readers)
	values := make([]complex128, n)
	defined := make([]bool, n)
	allDefined := true
	for i, r := range c.readers {
		v, ok := r.ReadCell(flatIndex)
		values[i] = v
		defined[i] = ok
		if !ok {
			allDefined = false
		}
	}
	return values, defined, allDefined
}

// Len reports the number of cells currently cached (always 0 for InMemory
// mode, which never retains cell-level state of its own).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ordered.Len()
}

// FlatCellIndex computes the row-major flat index of a cell, using the
// i_lat*n_lon + i_lon convention.
func FlatCellIndex(iLat, iLon, nLon int) int64 {
	return int64(iLat)*int64(nLon) + int64(iLon)
}
