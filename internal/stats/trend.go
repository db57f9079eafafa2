package stats

// LinearTrend returns the least-squares slope of values against their index.
func LinearTrend(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	xMean := float64(n-1) / 2
	yMean := Mean(values)

	var num, den float64
	for i, y := range values {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// WeightedBaseline blends the mean of the most recent window with the mean of
// everything before it. With no prior observations it is the recent mean.
func WeightedBaseline(values []float64, window int, recentWeight float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if window <= 0 || window >= len(values) {
		return Mean(values)
	}

	split := len(values) - window
	recent := Mean(values[split:])
	prior := Mean(values[:split])
	return recent*recentWeight + prior*(1-recentWeight)
}
