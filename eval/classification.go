package eval

import (
	"fmt"
	"math"
)

type accuracyEvaluator struct{}
type macroPrecisionEvaluator struct{}
type macroRecallEvaluator struct{}

// FMeasure computes f-measure over macro precision and recall, with the beta
// parameter controlling the precision and recall trade-off.
type FMeasure struct {
	beta float64
}

var (
	// Accuracy calculates the fraction of correctly predicted rows. It is
	// always within [0,1].
	Accuracy = accuracyEvaluator{}
	// MacroPrecision calculates precision per class and averages over classes.
	MacroPrecision = macroPrecisionEvaluator{}
	// MacroRecall calculates recall per class and averages over classes.
	MacroRecall = macroRecallEvaluator{}

	// F1Measure is f-measure with beta=1.
	F1Measure = FMeasure{beta: 1}
	// F05Measure is f-measure with beta=0.5.
	F05Measure = FMeasure{beta: 0.5}
)

// NewFMeasure creates an f-measure with the specified beta parameter.
func NewFMeasure(beta float64) FMeasure {
	return FMeasure{beta: beta}
}

func (accuracyEvaluator) Name() string {
	return "Accuracy"
}

func (accuracyEvaluator) Score(results *Results) float64 {
	if len(results.Truth) == 0 {
		return 0.0
	}
	correct := 0.0
	for i, truth := range results.Truth {
		if results.Predicted[i] == truth {
			correct++
		}
	}
	return correct / float64(len(results.Truth))
}

func (macroPrecisionEvaluator) Name() string {
	return "MacroPrecision"
}

func (macroPrecisionEvaluator) Score(results *Results) float64 {
	m := ConfusionMatrix(results)
	if len(m) == 0 {
		return 0.0
	}
	sum := 0.0
	for c := range m {
		predicted := 0.0
		for truth := range m {
			predicted += m[truth][c]
		}
		if predicted > 0 {
			sum += m[c][c] / predicted
		}
	}
	return sum / float64(len(m))
}

func (macroRecallEvaluator) Name() string {
	return "MacroRecall"
}

func (macroRecallEvaluator) Score(results *Results) float64 {
	m := ConfusionMatrix(results)
	if len(m) == 0 {
		return 0.0
	}
	sum := 0.0
	for c := range m {
		truth := 0.0
		for pred := range m {
			truth += m[c][pred]
		}
		if truth > 0 {
			sum += m[c][c] / truth
		}
	}
	return sum / float64(len(m))
}

// Score uses the beta parameter to compute f-measure.
func (f FMeasure) Score(results *Results) float64 {
	precision := MacroPrecision.Score(results)
	recall := MacroRecall.Score(results)
	if precision == 0 || recall == 0 {
		return 0
	}
	betaSquared := math.Pow(f.beta, 2)
	return ((1 + betaSquared) * (precision * recall)) / ((betaSquared * precision) + recall)
}

// Name calculates the name of the f-measure with beta parameter.
func (f FMeasure) Name() string {
	return fmt.Sprintf("F%vMeasure", f.beta)
}
