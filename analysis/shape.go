package analysis

import (
	"github.com/sepalml/sepal/pipeline"
	"github.com/sepalml/sepal/stats"
)

type sampleCount struct{}

// SampleCount is a measurement that counts the number of samples in the dataset.
var SampleCount = sampleCount{}

type featureCount struct{}

// FeatureCount is a measurement that counts the number of feature columns in the dataset.
var FeatureCount = featureCount{}

func (sc sampleCount) Name() string {
	return "SampleCount"
}

func (sc sampleCount) Execute(e pipeline.Experiment, s stats.StatisticsSource) (float64, error) {
	return s.SampleSize()
}

func (fc featureCount) Name() string {
	return "FeatureCount"
}

func (fc featureCount) Execute(e pipeline.Experiment, s stats.StatisticsSource) (float64, error) {
	return s.FeatureSize()
}
