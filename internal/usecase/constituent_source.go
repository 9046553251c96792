package usecase

import (
	"math"

	"go.ngs.io/tides-api/internal/domain"
	"go.ngs.io/tides-api/internal/domain/constituent"
)

// resolvedSource adapts a store-resolved []domain.ConstituentParam (already
// interpolated to a single point by the CSV or FES loader) into a
// usecase.GridSource. Every query returns the same values regardless of
// (lat, lon): the interpolation already happened upstream, in the loader.
//
// A constituent's stored (AmplitudeM, PhaseDeg) is a Greenwich phase lag
// pair: height(t) = F*A*cos(V(t)+u-G). wave.Wave computes F, V and u
// independently from the live astronomical angles, so the only thing this
// adapter contributes is Z = A*exp(i*G), in the same convention the loader
// already produced. Names the registry does not recognize (or that were not
// requested in the driver's wave table) are reported undefined rather than
// causing an error, so a partial or unusual constituent set leaves those
// waves at Z=0 instead of failing the whole query. Quality is 4 whenever at
// least one name is recognized, and 0 otherwise.
type resolvedSource struct {
	z       map[constituent.ID]complex128
	quality int
}

// newResolvedSource builds a resolvedSource from a loader's resolved
// constituent list. Entries whose name the registry does not recognize are
// skipped; they cannot be modeled by the astronomical-argument engine.
func newResolvedSource(params []domain.ConstituentParam) *resolvedSource {
	z := make(map[constituent.ID]complex128, len(params))
	for _, p := range params {
		id, err := constituent.Parse(p.Name)
		if err != nil {
			continue
		}
		g := p.PhaseDeg * math.Pi / 180
		z[id] = complex(p.AmplitudeM*math.Cos(g), p.AmplitudeM*math.Sin(g))
	}
	quality := 0
	if len(z) > 0 {
		quality = 4
	}
	return &resolvedSource{z: z, quality: quality}
}

// Sample implements usecase.GridSource.
func (s *resolvedSource) Sample(_, _ float64, waves []constituent.ID) (map[constituent.ID]complex128, map[constituent.ID]bool, int) {
	values := make(map[constituent.ID]complex128, len(waves))
	defined := make(map[constituent.ID]bool, len(waves))
	for _, id := range waves {
		z, ok := s.z[id]
		values[id] = z
		defined[id] = ok
	}
	return values, defined, s.quality
}
