package taguchi

import (
	"errors"
	"math"
	"testing"

	"crewopt/internal/workforce"
)

func TestAnalyzeHistory(t *testing.T) {
	h, ok := AnalyzeHistory([]float64{8, 9, 10, 11, 12, 40}, 0.95)
	if !ok {
		t.Fatal("expected analysis")
	}
	if h.Count != 6 || h.FilteredCount != 5 {
		t.Errorf("counts = %d/%d, want 6/5", h.Count, h.FilteredCount)
	}
	if h.Mean != 10 || h.Min != 8 {
		t.Errorf("filtered mean/min = %v/%v, want 10/8", h.Mean, h.Min)
	}
	wantOpt := h.CILow*0.4 + 10*0.4 + 8*0.2
	if math.Abs(h.Optimum-wantOpt) > 1e-12 {
		t.Errorf("Optimum = %v, want %v", h.Optimum, wantOpt)
	}

	if _, ok := AnalyzeHistory(nil, 0.95); ok {
		t.Error("expected no analysis for empty history")
	}
}

func TestAnalyzeHistory_SinglePoint(t *testing.T) {
	h, ok := AnalyzeHistory([]float64{12}, 0.95)
	if !ok {
		t.Fatal("expected analysis")
	}
	for name, got := range map[string]float64{"CILow": h.CILow, "CIHigh": h.CIHigh, "Optimum": h.Optimum} {
		if math.Abs(got-12) > 1e-9 {
			t.Errorf("%s = %v, degenerate history should collapse to the sample", name, got)
		}
	}
}

func TestLevels(t *testing.T) {
	task := workforce.TaskType{Code: "T", EstimatedDuration: 100}
	hist := &HistoricalStats{Optimum: 50, Min: 46}

	tests := []struct {
		name   string
		hist   *HistoricalStats
		levels int
		want   []float64
	}{
		{"EstimateThree", nil, 3, []float64{80, 100, 120}},
		{"EstimateFive", nil, 5, []float64{75, 87.5, 100, 112.5, 125}},
		{"HistoryThree", hist, 3, []float64{46, 50, 55}},
		{"HistoryFive", hist, 5, []float64{46, 46.25, 50, 53.75, 57.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Levels(task, tt.hist, tt.levels)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("level %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}

	if _, err := Levels(task, nil, 4); !errors.Is(err, ErrInvalidLevelCount) {
		t.Errorf("expected ErrInvalidLevelCount, got %v", err)
	}
}

func TestAnalyzeHistory_ProcessShift(t *testing.T) {
	steady := []float64{10, 11, 10, 9, 10, 11, 9, 10, 11, 10}
	h, _ := AnalyzeHistory(steady, 0.95)
	if h.Shifted || h.Outliers != 0 {
		t.Errorf("steady history flagged: shifted=%v outliers=%d", h.Shifted, h.Outliers)
	}

	drifted := []float64{8, 8, 8, 8, 8, 8, 8, 8, 14, 14, 14, 14, 14, 14, 14, 14}
	h, _ = AnalyzeHistory(drifted, 0.95)
	if !h.Shifted {
		t.Error("expected a shift after eight points on each side of the average")
	}
}
