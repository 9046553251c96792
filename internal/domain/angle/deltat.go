package angle

import "sort"

// deltaTEntry is one year of the IERS-tabulated UTC-to-TT correction.
type deltaTEntry struct {
	year    float64
	deltaT  float64
}

// iersTable holds ΔT (seconds) for 1973.0 through 2027.0, reproduced from the
// IERS Bulletin A / Morrison-Stephenson-consistent series.
var iersTable = []deltaTEntry{
	{1973, 43.9444}, {1974, 44.9847}, {1975, 45.9713}, {1976, 46.9903},
	{1977, 48.0236}, {1978, 49.0803}, {1979, 50.0844}, {1980, 50.9650},
	{1981, 51.7885}, {1982, 52.5609}, {1983, 53.4066}, {1984, 54.0722},
	{1985, 54.6134}, {1986, 55.1033}, {1987, 55.5703}, {1988, 56.0721},
	{1989, 56.5631}, {1990, 57.2122}, {1991, 57.9439}, {1992, 58.7244},
	{1993, 59.5665}, {1994, 60.3887}, {1995, 61.2232}, {1996, 61.9739},
	{1997, 62.6409}, {1998, 63.2509}, {1999, 63.6502}, {2000, 63.9658},
	{2001, 64.1971}, {2002, 64.3981}, {2003, 64.5366}, {2004, 64.6356},
	{2005, 64.7790}, {2006, 64.9860}, {2007, 65.3179}, {2008, 65.6171},
	{2009, 65.9295}, {2010, 66.2152}, {2011, 66.4592}, {2012, 66.7574},
	{2013, 67.1050}, {2014, 67.4695}, {2015, 67.8619}, {2016, 68.3699},
	{2017, 68.7985}, {2018, 69.0995}, {2019, 69.3231}, {2020, 69.3891},
	{2021, 69.3312}, {2022, 69.2439}, {2023, 69.1967}, {2024, 69.1661},
	{2025, 69.1252}, {2026, 69.1160}, {2027, 69.0928},
}

// secondsPerDay, epochJD1970 and daysPerCentury are used to convert a UTC
// epoch (seconds since 1970-01-01T00:00:00Z) into a fractional year for ΔT
// lookup, by way of the Julian Day number.
const (
	secondsPerDay   = 86400.0
	epochJD1970     = 2440587.5
	daysPerCentury  = 36525.0
)

func julianDay(epochSeconds float64) float64 {
	return epochSeconds/secondsPerDay + epochJD1970
}

func yearOf(epochSeconds float64) float64 {
	jd := julianDay(epochSeconds)
	t := (jd - 2451545.0) / daysPerCentury
	return 2000.0 + t*100.0
}

// DeltaT returns ΔT = TT - UTC, in seconds, as a pure function of the
// fractional year. Within the tabulated IERS range it linearly interpolates;
// outside, it falls back to the Morrison-Stephenson quadratic/quartic
// long-term fits.
func DeltaT(year float64) float64 {
	first, last := iersTable[0], iersTable[len(iersTable)-1]
	switch {
	case year < first.year:
		return morrisonStephensonLongTerm(year)
	case year > last.year:
		if year > 2027 {
			diff := (year - 1820.0) / 100.0
			return -20.0 + 32.0*diff*diff
		}
		return last.deltaT
	default:
		return interpolateIERS(year)
	}
}

// DeltaTSeconds is a convenience wrapper computing ΔT for the fractional
// year corresponding to a UTC epoch in seconds since 1970-01-01Z.
func DeltaTSeconds(epochSeconds float64) float64 {
	return DeltaT(yearOf(epochSeconds))
}

func interpolateIERS(year float64) float64 {
	idx := sort.Search(len(iersTable), func(i int) bool {
		return iersTable[i].year >= year
	})
	if idx == 0 {
		return iersTable[0].deltaT
	}
	if idx >= len(iersTable) {
		return iersTable[len(iersTable)-1].deltaT
	}
	lo, hi := iersTable[idx-1], iersTable[idx]
	if hi.year == lo.year {
		return lo.deltaT
	}
	frac := (year - lo.year) / (hi.year - lo.year)
	return lo.deltaT + frac*(hi.deltaT-lo.deltaT)
}

// morrisonStephensonLongTerm implements the long-term quadratic/quartic fits
// used outside the tabulated IERS range (948 <= year < 1973, and year < 948).
func morrisonStephensonLongTerm(year float64) float64 {
	if year >= 948 {
		diff := year - 1900.0
		return -2.79 + 1.494119*diff - 0.0598939*diff*diff +
			0.0061966*diff*diff*diff - 0.000197*diff*diff*diff*diff
	}
	diff := (year - 1820.0) / 100.0
	return -20.0 + 32.0*diff*diff
}
