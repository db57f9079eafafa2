package stats

import "testing"

func TestLinearTrend(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"Empty", nil, 0},
		{"Single", []float64{0.7}, 0},
		{"Flat", []float64{0.9, 0.9, 0.9, 0.9, 0.9}, 0},
		{"Rising", []float64{0.1, 0.2, 0.3, 0.4}, 0.1},
		{"Falling", []float64{1, 0.5, 0}, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LinearTrend(tt.values); !almostEqual(got, tt.want, 1e-12) {
				t.Errorf("LinearTrend() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeightedBaseline(t *testing.T) {
	values := []float64{0.2, 0.2, 0.8, 0.8}

	if got := WeightedBaseline(values, 2, 0.6); !almostEqual(got, 0.8*0.6+0.2*0.4, 1e-12) {
		t.Errorf("WeightedBaseline() = %v", got)
	}
	if got := WeightedBaseline(values, 10, 0.6); !almostEqual(got, 0.5, 1e-12) {
		t.Errorf("window larger than history should fall back to mean, got %v", got)
	}
}
