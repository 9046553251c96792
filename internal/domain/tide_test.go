package domain

import (
	"math"
	"testing"
	"time"
)

// TestFindExtrema tests extrema detection.
func TestFindExtrema(t *testing.T) {
	// Create a simple sinusoidal pattern with known extrema
	refTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	predictions := []TideLevel{
		{Time: refTime, HeightM: 0.0},
		{Time: refTime.Add(1 * time.Hour), HeightM: 0.5},
		{Time: refTime.Add(2 * time.Hour), HeightM: 0.9},
		{Time: refTime.Add(3 * time.Hour), HeightM: 1.0}, // High
		{Time: refTime.Add(4 * time.Hour), HeightM: 0.9},
		{Time: refTime.Add(5 * time.Hour), HeightM: 0.5},
		{Time: refTime.Add(6 * time.Hour), HeightM: 0.0},
		{Time: refTime.Add(7 * time.Hour), HeightM: -0.5},
		{Time: refTime.Add(8 * time.Hour), HeightM: -0.9},
		{Time: refTime.Add(9 * time.Hour), HeightM: -1.0}, // Low
		{Time: refTime.Add(10 * time.Hour), HeightM: -0.9},
		{Time: refTime.Add(11 * time.Hour), HeightM: -0.5},
		{Time: refTime.Add(12 * time.Hour), HeightM: 0.0},
	}

	extrema := FindExtrema(predictions)

	// Should find 1 high and 1 low
	if len(extrema.Highs) != 1 {
		t.Errorf("Expected 1 high, found %d", len(extrema.Highs))
	}

	if len(extrema.Lows) != 1 {
		t.Errorf("Expected 1 low, found %d", len(extrema.Lows))
	}

	// Verify high tide
	if len(extrema.Highs) > 0 {
		high := extrema.Highs[0]
		expectedTime := refTime.Add(3 * time.Hour)
		if !high.Time.Equal(expectedTime) {
			t.Errorf("High tide time: expected %v, got %v", expectedTime, high.Time)
		}
		if math.Abs(high.HeightM-1.0) > 1e-9 {
			t.Errorf("High tide height: expected 1.0, got %.10f", high.HeightM)
		}
	}

	// Verify low tide
	if len(extrema.Lows) > 0 {
		low := extrema.Lows[0]
		expectedTime := refTime.Add(9 * time.Hour)
		if !low.Time.Equal(expectedTime) {
			t.Errorf("Low tide time: expected %v, got %v", expectedTime, low.Time)
		}
		if math.Abs(low.HeightM-(-1.0)) > 1e-9 {
			t.Errorf("Low tide height: expected -1.0, got %.10f", low.HeightM)
		}
	}
}

// TestFindExtrema_TooShort returns empty, non-nil slices rather than nil
// ones for any series too short to contain an interior point.
func TestFindExtrema_TooShort(t *testing.T) {
	extrema := FindExtrema([]TideLevel{{HeightM: 0}, {HeightM: 1}})
	if extrema.Highs == nil || extrema.Lows == nil {
		t.Error("expected non-nil empty slices for a series shorter than 3 points")
	}
	if len(extrema.Highs) != 0 || len(extrema.Lows) != 0 {
		t.Error("expected no extrema for a series shorter than 3 points")
	}
}

// TestRefineExtremum fits a known parabola and checks the recovered vertex.
func TestRefineExtremum(t *testing.T) {
	refTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// h(t) = 1 - (t-1)^2 sampled at t=0,1,2 hours: peak at t=1, h=1.
	before := TideLevel{Time: refTime, HeightM: 0.0}
	peak := TideLevel{Time: refTime.Add(time.Hour), HeightM: 1.0}
	after := TideLevel{Time: refTime.Add(2 * time.Hour), HeightM: 0.0}

	refinedTime, refinedHeight := RefineExtremum(before, peak, after)
	if !refinedTime.Equal(peak.Time) {
		t.Errorf("refined time: expected %v, got %v", peak.Time, refinedTime)
	}
	if math.Abs(refinedHeight-1.0) > 1e-9 {
		t.Errorf("refined height: expected 1.0, got %.10f", refinedHeight)
	}
}

// TestRefineExtremum_NonUniformSpacing falls back to the discrete peak when
// the three samples are not evenly spaced in time.
func TestRefineExtremum_NonUniformSpacing(t *testing.T) {
	refTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	before := TideLevel{Time: refTime, HeightM: 0.0}
	peak := TideLevel{Time: refTime.Add(time.Hour), HeightM: 1.0}
	after := TideLevel{Time: refTime.Add(3 * time.Hour), HeightM: 0.0}

	refinedTime, refinedHeight := RefineExtremum(before, peak, after)
	if !refinedTime.Equal(peak.Time) || refinedHeight != peak.HeightM {
		t.Errorf("expected discrete peak fallback, got (%v, %.6f)", refinedTime, refinedHeight)
	}
}

// TestRefineExtrema applies the parabolic refinement across a full extrema
// set and checks ordering is preserved.
func TestRefineExtrema(t *testing.T) {
	refTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	predictions := []TideLevel{
		{Time: refTime, HeightM: 0.0},
		{Time: refTime.Add(1 * time.Hour), HeightM: 0.8},
		{Time: refTime.Add(2 * time.Hour), HeightM: 1.0},
		{Time: refTime.Add(3 * time.Hour), HeightM: 0.8},
		{Time: refTime.Add(4 * time.Hour), HeightM: 0.0},
		{Time: refTime.Add(5 * time.Hour), HeightM: -0.8},
		{Time: refTime.Add(6 * time.Hour), HeightM: -1.0},
		{Time: refTime.Add(7 * time.Hour), HeightM: -0.8},
		{Time: refTime.Add(8 * time.Hour), HeightM: 0.0},
	}

	extrema := FindExtrema(predictions)
	refined := RefineExtrema(predictions, extrema)

	if len(refined.Highs) != len(extrema.Highs) || len(refined.Lows) != len(extrema.Lows) {
		t.Fatalf("refinement changed extrema counts: highs %d->%d, lows %d->%d",
			len(extrema.Highs), len(refined.Highs), len(extrema.Lows), len(refined.Lows))
	}
	for i := 1; i < len(refined.Highs); i++ {
		if !refined.Highs[i-1].Time.Before(refined.Highs[i].Time) {
			t.Error("refined highs are not sorted by time")
		}
	}
}

// TestDeg2Rad tests degree to radian conversion.
func TestDeg2Rad(t *testing.T) {
	tests := []struct {
		deg      float64
		expected float64
	}{
		{0, 0},
		{90, math.Pi / 2},
		{180, math.Pi},
		{360, 2 * math.Pi},
		{-90, -math.Pi / 2},
	}

	for _, tt := range tests {
		result := Deg2Rad(tt.deg)
		if math.Abs(result-tt.expected) > 1e-9 {
			t.Errorf("Deg2Rad(%.1f): expected %.10f, got %.10f", tt.deg, tt.expected, result)
		}
	}
}

// TestRad2Deg tests radian to degree conversion, the inverse of Deg2Rad.
func TestRad2Deg(t *testing.T) {
	for _, deg := range []float64{0, 45, 90, 180, 270, 360} {
		rad := Deg2Rad(deg)
		if got := Rad2Deg(rad); math.Abs(got-deg) > 1e-9 {
			t.Errorf("Rad2Deg(Deg2Rad(%.1f)): expected %.10f, got %.10f", deg, deg, got)
		}
	}
}
