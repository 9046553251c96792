package interp

import (
	"math"
	"testing"

	"go.ngs.io/tides-api/internal/domain/angle"
)

func TestMaskedBilinearAllCornersDefined(t *testing.T) {
	c := Corners{
		X0: 0, X1: 1, Y0: 0, Y1: 1,
		V:       [4]complex128{1, 2, 3, 4},
		Defined: [4]bool{true, true, true, true},
	}
	got, quality := MaskedBilinear(c, 0.5, 0.5)
	if quality != 4 {
		t.Fatalf("quality = %d, want 4", quality)
	}
	want := complex(2.5, 0)
	if math.Abs(real(got)-real(want)) > 1e-9 {
		t.Errorf("MaskedBilinear = %v, want %v", got, want)
	}
}

func TestMaskedBilinearSingleCornerDefined(t *testing.T) {
	c := Corners{
		X0: 0, X1: 1, Y0: 0, Y1: 1,
		V:       [4]complex128{complex(7, -3), 0, 0, 0},
		Defined: [4]bool{true, false, false, false},
	}
	got, quality := MaskedBilinear(c, 0.5, 0.5)
	if quality != 1 {
		t.Fatalf("quality = %d, want 1", quality)
	}
	if got != complex(7, -3) {
		t.Errorf("single-corner MaskedBilinear = %v, want the corner's own value unchanged", got)
	}
}

func TestMaskedBilinearAllUndefined(t *testing.T) {
	c := Corners{X0: 0, X1: 1, Y0: 0, Y1: 1}
	got, quality := MaskedBilinear(c, 0.5, 0.5)
	if quality != 0 {
		t.Fatalf("quality = %d, want 0", quality)
	}
	if !math.IsNaN(real(got)) {
		t.Errorf("MaskedBilinear with no defined corners = %v, want NaN", got)
	}
}

func TestMaskedBilinearDegenerateAtCellEdge(t *testing.T) {
	c := Corners{
		X0: 0, X1: 1, Y0: 0, Y1: 1,
		V:       [4]complex128{1, 2, 3, 4},
		Defined: [4]bool{true, true, true, true},
	}
	got, quality := MaskedBilinear(c, 0, 0)
	if quality != 4 {
		t.Fatalf("quality = %d, want 4", quality)
	}
	if got != 1 {
		t.Errorf("query exactly at (X0,Y0) = %v, want corner V00 = 1", got)
	}
}

func TestAxisWeightsDegenerateWhenBoundsEqual(t *testing.T) {
	w0, w1 := axisWeights(5, 5, 5)
	if w0 != 1 || w1 != 0 {
		t.Errorf("axisWeights(5,5,5) = (%v,%v), want (1,0)", w0, w1)
	}
}

func TestAcceleratorAngleStaleness(t *testing.T) {
	acc := NewAccelerator(60)
	calls := 0
	compute := func(epoch float64) angle.Angles {
		calls++
		return angle.Angles{T: epoch}
	}

	first := acc.Angles(1000, compute)
	if calls != 1 || first.T != 1000 {
		t.Fatalf("first call should always recompute, got calls=%d angles=%v", calls, first)
	}
	within := acc.Angles(1010, compute)
	if calls != 1 || within.T != 1000 {
		t.Errorf("within tolerance should reuse the cached angles, got calls=%d angles=%v", calls, within)
	}
	far := acc.Angles(2000, compute)
	if calls != 2 || far.T != 2000 {
		t.Errorf("far outside tolerance should recompute, got calls=%d angles=%v", calls, far)
	}
}

func TestAcceleratorCellCaching(t *testing.T) {
	acc := NewAccelerator(60)
	if acc.SameCell(0, 1, 0, 1) {
		t.Errorf("first call should never report a cache hit")
	}
	if !acc.SameCell(0, 1, 0, 1) {
		t.Errorf("repeating the same cell bounds should report a cache hit")
	}
	if acc.SameCell(1, 2, 0, 1) {
		t.Errorf("a different cell should not report a cache hit")
	}
}
