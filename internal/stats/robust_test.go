package stats

import (
	"math"
	"testing"
)

func TestFilterOutliersIQR(t *testing.T) {
	values := []float64{10, 11, 12, 11, 10, 12, 11, 60}
	f := FilterOutliersIQR(values)

	if len(f.Kept) != 7 {
		t.Fatalf("expected 7 kept values, got %d (%v)", len(f.Kept), f.Kept)
	}
	for _, v := range f.Kept {
		if v == 60 {
			t.Errorf("outlier 60 was not removed")
		}
	}
	if f.Removed(len(values)) != 1 {
		t.Errorf("Removed() = %d, want 1", f.Removed(len(values)))
	}
	if f.Lower > f.Q1 || f.Upper < f.Q3 {
		t.Errorf("fences do not bracket quartiles: %+v", f)
	}
}

func TestFilterOutliersIQR_ConstantKeepsAll(t *testing.T) {
	f := FilterOutliersIQR([]float64{5, 5, 5})
	if len(f.Kept) != 3 {
		t.Errorf("expected all values kept, got %v", f.Kept)
	}
}

func TestNormalInterval(t *testing.T) {
	lo, hi := NormalInterval(100, 10, 0.95)
	if !almostEqual(lo, 80.4004, 1e-3) || !almostEqual(hi, 119.5996, 1e-3) {
		t.Errorf("NormalInterval() = (%v, %v)", lo, hi)
	}

	lo, hi = NormalInterval(42, 0, 0.95)
	if lo != 42 || hi != 42 {
		t.Errorf("zero std should collapse to mean, got (%v, %v)", lo, hi)
	}
	if math.IsNaN(lo) || math.IsNaN(hi) {
		t.Errorf("NormalInterval returned NaN")
	}
}
