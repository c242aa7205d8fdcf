// Package pipeline provides the types that flow through a sepal pipeline.
package pipeline

import (
	"github.com/sepalml/sepal/config"
	"github.com/sepalml/sepal/dataset"
)

// Experiment stores information about a dataset before it is measured, trained
// on, or evaluated, together with the parameters the run is configured with.
type Experiment struct {
	Name    string
	Dataset dataset.Table
	Params  config.Params
}

// NewExperiment creates a new sepal pipeline experiment.
func NewExperiment(name string, table dataset.Table, params config.Params) Experiment {
	return Experiment{Name: name, Dataset: table, Params: params}
}
