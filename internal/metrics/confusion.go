package metrics

import "github.com/Virrpe/onbrd/internal/models"

// Accumulate adds one labelled observation to the confusion counts.
func Accumulate(c models.ConfusionCounts, expected, predicted bool) models.ConfusionCounts {
	switch {
	case expected && predicted:
		c.TP++
	case !expected && predicted:
		c.FP++
	case !expected && !predicted:
		c.TN++
	case expected && !predicted:
		c.FN++
	}
	return c
}

// Precision is tp/(tp+fp), or 1 when nothing was predicted positive.
func Precision(c models.ConfusionCounts) float64 {
	return divideOrOne(float64(c.TP), float64(c.TP+c.FP))
}

// Recall is tp/(tp+fn), or 1 when nothing was labelled positive.
func Recall(c models.ConfusionCounts) float64 {
	return divideOrOne(float64(c.TP), float64(c.TP+c.FN))
}

// F1 is the harmonic mean of precision and recall, 0 when both are 0.
func F1(c models.ConfusionCounts) float64 {
	p, r := Precision(c), Recall(c)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// ComputeCheckMetrics derives precision, recall and F1 from counts.
func ComputeCheckMetrics(c models.ConfusionCounts) models.CheckMetrics {
	return models.CheckMetrics{
		Counts:    c,
		Precision: Precision(c),
		Recall:    Recall(c),
		F1:        F1(c),
		Support:   c.Support(),
	}
}

func divideOrOne(num, den float64) float64 {
	if den == 0 {
		return 1.0
	}
	return num / den
}
