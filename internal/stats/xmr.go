package stats

import "math"

// Wheeler's scaling constant for an individuals chart.
const xmrScale = 2.66

// shiftRun is the run length on one side of the average that signals a shift.
const shiftRun = 8

type SignalKind string

const (
	SignalOutlier SignalKind = "outlier"
	SignalShift   SignalKind = "shift"
)

// Signal is a point of special-cause variation.
type Signal struct {
	Index int        `json:"index"`
	Kind  SignalKind `json:"kind"`
}

// XmR is an individuals and moving range process behavior chart.
// Lower is floored at zero; every series charted here is non-negative.
type XmR struct {
	Average        float64  `json:"average"`
	AvgMovingRange float64  `json:"average_moving_range"`
	Upper          float64  `json:"upper_limit"`
	Lower          float64  `json:"lower_limit"`
	Signals        []Signal `json:"signals,omitempty"`
}

// CalculateXmR charts values in their recorded order.
func CalculateXmR(values []float64) XmR {
	if len(values) == 0 {
		return XmR{}
	}

	x := XmR{Average: Mean(values)}
	if len(values) > 1 {
		sum := 0.0
		for i := 1; i < len(values); i++ {
			sum += math.Abs(values[i] - values[i-1])
		}
		x.AvgMovingRange = sum / float64(len(values)-1)
	}
	x.Upper = x.Average + xmrScale*x.AvgMovingRange
	x.Lower = math.Max(0, x.Average-xmrScale*x.AvgMovingRange)

	for i, v := range values {
		if v > x.Upper || v < x.Lower {
			x.Signals = append(x.Signals, Signal{Index: i, Kind: SignalOutlier})
		}
	}

	side, run := 0, 0
	for i, v := range values {
		s := 0
		switch {
		case v > x.Average:
			s = 1
		case v < x.Average:
			s = -1
		}
		if s != 0 && s == side {
			run++
		} else {
			side, run = s, 1
		}
		if side != 0 && run == shiftRun {
			x.Signals = append(x.Signals, Signal{Index: i, Kind: SignalShift})
		}
	}
	return x
}

// Stable reports a chart without signals.
func (x XmR) Stable() bool {
	return len(x.Signals) == 0
}

// Count returns the number of signals of one kind.
func (x XmR) Count(kind SignalKind) int {
	n := 0
	for _, s := range x.Signals {
		if s.Kind == kind {
			n++
		}
	}
	return n
}
