package stats

import "math"

// IQRFilter is the outcome of Tukey-fence outlier removal.
type IQRFilter struct {
	Kept  []float64 `json:"-"`
	Q1    float64   `json:"q1"`
	Q3    float64   `json:"q3"`
	Lower float64   `json:"lower_fence"`
	Upper float64   `json:"upper_fence"`
}

// Removed returns how many inputs fell outside the fences.
func (f IQRFilter) Removed(total int) int {
	return total - len(f.Kept)
}

// FilterOutliersIQR keeps values within [Q1-1.5·IQR, Q3+1.5·IQR], in input order.
func FilterOutliersIQR(values []float64) IQRFilter {
	if len(values) == 0 {
		return IQRFilter{}
	}

	q := Quantiles(values, 0.25, 0.75)
	iqr := q[1] - q[0]
	f := IQRFilter{
		Q1:    q[0],
		Q3:    q[1],
		Lower: q[0] - 1.5*iqr,
		Upper: q[1] + 1.5*iqr,
	}

	f.Kept = make([]float64, 0, len(values))
	for _, v := range values {
		if v >= f.Lower && v <= f.Upper {
			f.Kept = append(f.Kept, v)
		}
	}
	return f
}

// NormalInterval returns the two-sided confidence interval of a normal
// distribution with the given mean and standard deviation.
// A non-positive std collapses the interval onto the mean.
func NormalInterval(mean, std, confidence float64) (lo, hi float64) {
	if std <= 0 || math.IsNaN(std) || confidence <= 0 || confidence >= 1 {
		return mean, mean
	}
	z := math.Sqrt2 * math.Erfinv(confidence)
	return mean - z*std, mean + z*std
}
