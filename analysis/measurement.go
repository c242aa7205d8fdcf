// Package analysis provides measurements and analysis tools for datasets.
package analysis

import (
	"github.com/sepalml/sepal/pipeline"
	"github.com/sepalml/sepal/stats"
)

// Measurement is a representation for how a measurement fits into the pipeline.
type Measurement interface {
	// Name is the name of the measurement in the output. It should not contain any spaces.
	Name() string
	// Execute computes the implemented measurement for an experiment, optionally using the specified statistics.
	Execute(e pipeline.Experiment, s stats.StatisticsSource) (float64, error)
}
