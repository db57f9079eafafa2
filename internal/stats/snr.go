package stats

import (
	"fmt"
	"math"
	"strings"
)

// SNRType selects the Taguchi signal-to-noise formula.
type SNRType string

const (
	SmallerIsBetter SNRType = "smaller"
	LargerIsBetter  SNRType = "larger"
	NominalIsBest   SNRType = "nominal"
)

const snrFloor = 1e-12

// ParseSNRType accepts the canonical names plus a few common aliases.
func ParseSNRType(s string) (SNRType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "smaller", "smaller-is-better", "smaller_is_better":
		return SmallerIsBetter, nil
	case "larger", "larger-is-better", "larger_is_better":
		return LargerIsBetter, nil
	case "nominal", "nominal-is-best", "nominal_is_best":
		return NominalIsBest, nil
	}
	return "", fmt.Errorf("unknown snr type %q", s)
}

// SNR scores a set of responses. Degenerate inputs are floored so the
// result is always finite.
func SNR(values []float64, kind SNRType) float64 {
	if len(values) == 0 {
		return 0
	}

	switch kind {
	case LargerIsBetter:
		sum, n := 0.0, 0
		for _, v := range values {
			if v == 0 {
				continue
			}
			sum += 1 / (v * v)
			n++
		}
		if n == 0 {
			return 0
		}
		return -10 * math.Log10(math.Max(sum/float64(n), snrFloor))

	case NominalIsBest:
		m := Mean(values)
		v := Variance(values)
		if v <= 0 || m == 0 {
			return 0
		}
		return 10 * math.Log10(math.Max((m*m)/v, snrFloor))

	default:
		sum := 0.0
		for _, v := range values {
			sum += v * v
		}
		return -10 * math.Log10(math.Max(sum/float64(len(values)), snrFloor))
	}
}
