package analysis

import (
	"math"

	"github.com/sepalml/sepal/pipeline"
	"github.com/sepalml/sepal/stats"
)

type classBalance struct{}

// ClassBalance is the normalised entropy of the class distribution. Perfectly even classes
// score 1, and the score approaches 0 as one class comes to dominate the dataset.
var ClassBalance = classBalance{}

func (cb classBalance) Name() string {
	return "ClassBalance"
}

func (cb classBalance) Execute(e pipeline.Experiment, s stats.StatisticsSource) (float64, error) {
	dist, err := s.ClassDistribution()
	if err != nil {
		return 0.0, err
	}
	if len(dist) <= 1 {
		return 1.0, nil
	}
	h := 0.0
	for _, p := range dist {
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h / math.Log2(float64(len(dist))), nil
}
