// Package stats provides implementations of statistics sources for datasets.
package stats

import "github.com/pkg/errors"

// ErrNoSuchFeature is returned when a statistic is requested for a feature
// column the source does not have.
var ErrNoSuchFeature = errors.New("no such feature")

// StatisticsSource represents the way statistics are calculated for a dataset.
type StatisticsSource interface {
	Parameters() map[string]float64

	SampleSize() (float64, error)
	FeatureSize() (float64, error)
	FeatureMean(feature int) (float64, error)
	FeatureStdDev(feature int) (float64, error)
	FeatureMin(feature int) (float64, error)
	FeatureMax(feature int) (float64, error)
	Correlation(i, j int) (float64, error)
	ClassDistribution() ([]float64, error)
}
