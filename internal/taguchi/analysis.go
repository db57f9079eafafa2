package taguchi

import (
	"fmt"

	"crewopt/internal/stats"
	"crewopt/internal/workforce"
)

// HistoricalStats summarizes the recorded durations of one task. Outliers and
// Shifted come from an XmR chart of the raw series in recorded order.
type HistoricalStats struct {
	Count         int     `json:"count"`
	FilteredCount int     `json:"filtered_count"`
	RawMean       float64 `json:"raw_mean"`
	RawStd        float64 `json:"raw_std"`
	Mean          float64 `json:"mean"`
	Std           float64 `json:"std"`
	Min           float64 `json:"min"`
	CILow         float64 `json:"ci_low"`
	CIHigh        float64 `json:"ci_high"`
	Q1            float64 `json:"q1"`
	Q3            float64 `json:"q3"`
	Optimum       float64 `json:"optimum"`
	Outliers      int     `json:"xmr_outliers"`
	Shifted       bool    `json:"shifted"`
}

// AnalyzeHistory filters outliers and derives the level center.
// ok is false when there are no samples.
func AnalyzeHistory(durations []float64, confidence float64) (HistoricalStats, bool) {
	if len(durations) == 0 {
		return HistoricalStats{}, false
	}

	h := HistoricalStats{
		Count:   len(durations),
		RawMean: stats.Mean(durations),
		RawStd:  stats.StdDev(durations),
	}

	xmr := stats.CalculateXmR(durations)
	h.Outliers = xmr.Count(stats.SignalOutlier)
	h.Shifted = xmr.Count(stats.SignalShift) > 0

	f := stats.FilterOutliersIQR(durations)
	h.Q1, h.Q3 = f.Q1, f.Q3
	h.FilteredCount = len(f.Kept)

	kept := f.Kept
	if len(kept) == 0 {
		kept = durations
	}
	h.Mean = stats.Mean(kept)
	h.Std = stats.StdDev(kept)
	h.Min = stats.Min(kept)
	h.CILow, h.CIHigh = stats.NormalInterval(h.Mean, h.Std, confidence)

	h.Optimum = h.CILow*0.4 + h.Mean*0.4 + h.Min*0.2
	if h.Optimum <= 0 {
		// A very wide interval can push the blend negative.
		h.Optimum = h.Mean
	}
	return h, true
}

// Levels returns the candidate durations for a task.
func Levels(task workforce.TaskType, hist *HistoricalStats, levelCount int) ([]float64, error) {
	if hist != nil {
		c, lo := hist.Optimum, hist.Min
		switch levelCount {
		case 3:
			return []float64{max(c*0.9, lo), c, c * 1.1}, nil
		case 5:
			return []float64{max(c*0.85, lo), max(c*0.925, lo), c, c * 1.075, c * 1.15}, nil
		}
	} else {
		e := task.EstimatedDuration
		switch levelCount {
		case 3:
			return []float64{e * 0.8, e, e * 1.2}, nil
		case 5:
			return []float64{e * 0.75, e * 0.875, e, e * 1.125, e * 1.25}, nil
		}
	}
	return nil, fmt.Errorf("%w: got %d", ErrInvalidLevelCount, levelCount)
}
