package analysis

import (
	"math"

	"github.com/sepalml/sepal/pipeline"
	"github.com/sepalml/sepal/stats"
)

type meanFeatureVariance struct{}

// MeanFeatureVariance is the variance of each feature column, averaged over all features.
var MeanFeatureVariance = meanFeatureVariance{}

type maxAbsCorrelation struct{}

// MaxAbsCorrelation is the largest absolute Pearson correlation between any pair of feature
// columns. High values suggest redundant features.
var MaxAbsCorrelation = maxAbsCorrelation{}

func (mv meanFeatureVariance) Name() string {
	return "MeanFeatureVariance"
}

func (mv meanFeatureVariance) Execute(e pipeline.Experiment, s stats.StatisticsSource) (float64, error) {
	d, err := s.FeatureSize()
	if err != nil {
		return 0.0, err
	}
	if d == 0 {
		return 0.0, nil
	}
	sum := 0.0
	for i := 0; i < int(d); i++ {
		sd, err := s.FeatureStdDev(i)
		if err != nil {
			return 0.0, err
		}
		sum += sd * sd
	}
	return sum / d, nil
}

func (mc maxAbsCorrelation) Name() string {
	return "MaxAbsCorrelation"
}

func (mc maxAbsCorrelation) Execute(e pipeline.Experiment, s stats.StatisticsSource) (float64, error) {
	d, err := s.FeatureSize()
	if err != nil {
		return 0.0, err
	}
	max := 0.0
	for i := 0; i < int(d); i++ {
		for j := i + 1; j < int(d); j++ {
			c, err := s.Correlation(i, j)
			if err != nil {
				return 0.0, err
			}
			if math.Abs(c) > max {
				max = math.Abs(c)
			}
		}
	}
	return max, nil
}
