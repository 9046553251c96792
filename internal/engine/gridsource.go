package engine

import (
	"math"
	"sync"

	"go.ngs.io/tides-api/internal/adapter/cache"
	"go.ngs.io/tides-api/internal/adapter/interp"
	"go.ngs.io/tides-api/internal/domain/constituent"
)

// waveGridReader adapts one constituent's amplitude/phase Grid2D pair into
// package cache's flat-index GridReader contract: ReadCell(i) reports the
// cell's complex tide value and whether both grids are defined there.
type waveGridReader struct {
	amp, phase *interp.Grid2D
	nLon       int
}

func (r *waveGridReader) ReadCell(flatIndex int64) (complex128, bool) {
	iLat := int(flatIndex / int64(r.nLon))
	iLon := int(flatIndex % int64(r.nLon))
	a, aOK := r.amp.Cell(iLat, iLon)
	p, pOK := r.phase.Cell(iLat, iLon)
	if !aOK || !pOK {
		return 0, false
	}
	rad := p * math.Pi / 180
	return complex(a*math.Cos(rad), a*math.Sin(rad)), true
}

// gridSource is the usecase.GridSource backing a Handle. It locates the
// cell bracketing a query against a reference grid's axes, reads every
// corner's per-wave values from the shared cache, and runs one masked
// bilinear interpolation per requested wave.
type gridSource struct {
	refGrid   *interp.Grid2D
	nLon      int
	readerIdx map[constituent.ID]int
	allReaders []cache.GridReader

	mu        sync.RWMutex
	cellCache *cache.Cache
}

func (s *gridSource) readers() []cache.GridReader {
	return s.allReaders
}

func (s *gridSource) setCache(c *cache.Cache) {
	s.mu.Lock()
	s.cellCache = c
	s.mu.Unlock()
}

// Sample implements usecase.GridSource.
func (s *gridSource) Sample(lat, lon float64, waves []constituent.ID) (map[constituent.ID]complex128, map[constituent.ID]bool, int) {
	values := make(map[constituent.ID]complex128, len(waves))
	defined := make(map[constituent.ID]bool, len(waves))

	x := normalizeLon360(lon)
	x0, x1, y0, y1, iLat0, iLon0, err := s.refGrid.LocateCell(x, lat)
	if err != nil {
		return values, defined, 0
	}

	s.mu.RLock()
	c := s.cellCache
	s.mu.RUnlock()

	offsets := [4][2]int{
		{iLat0, iLon0}, {iLat0, iLon0 + 1}, {iLat0 + 1, iLon0}, {iLat0 + 1, iLon0 + 1},
	}
	var cornerValues [4][]complex128
	var cornerDefined [4][]bool
	for i, off := range offsets {
		flatIndex := cache.FlatCellIndex(off[0], off[1], s.nLon)
		cornerValues[i], cornerDefined[i], _ = c.Get(flatIndex)
	}

	quality := 0
	for _, id := range waves {
		idx, ok := s.readerIdx[id]
		if !ok {
			continue
		}
		corners := interp.Corners{X0: x0, X1: x1, Y0: y0, Y1: y1}
		for i := range offsets {
			if cornerDefined[i][idx] {
				corners.V[i] = cornerValues[i][idx]
				corners.Defined[i] = true
			}
		}
		z, q := interp.MaskedBilinear(corners, x, lat)
		if q > 0 {
			values[id] = z
			defined[id] = true
		}
		if q > quality {
			quality = q
		}
	}
	return values, defined, quality
}

// normalizeLon360 maps arbitrary degree longitudes into the FES [0, 360) axis.
func normalizeLon360(lon float64) float64 {
	lon = math.Mod(lon, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	return lon
}
