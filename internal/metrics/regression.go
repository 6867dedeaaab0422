package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RSquared returns the coefficient of determination 1 - SSres/SStot of
// predictions against targets. Fewer than 2 pairs yields 0. When the targets
// have no variance the result is 1 for a perfect fit and 0 otherwise.
// Slices of unequal length are compared over their common prefix.
func RSquared(predicted, target []float64) float64 {
	n := min(len(predicted), len(target))
	if n < 2 {
		return 0
	}
	predicted, target = predicted[:n], target[:n]

	ybar := stat.Mean(target, nil)
	residuals := make([]float64, n)
	floats.SubTo(residuals, target, predicted)
	ssRes := floats.Dot(residuals, residuals)

	ssTot := 0.0
	for _, y := range target {
		d := y - ybar
		ssTot += d * d
	}

	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
