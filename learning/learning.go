// Package learning provides estimators that can be trained on tables under a
// configuration, and the solvers used to fit them.
package learning

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/sepalml/sepal/config"
	"github.com/sepalml/sepal/dataset"
)

// ErrNotFitted is returned when predictions or fitted state are requested
// from an estimator that has not been trained.
var ErrNotFitted = errors.New("estimator has not been fitted")

// Solver names accepted for the solver parameter.
const (
	SolverLBFGS           = "lbfgs"
	SolverNewtonCG        = "newton-cg"
	SolverGradientDescent = "gd"
	SolverSAG             = "sag"
	SolverSAGA            = "saga"
)

// Multi-class strategies accepted for the multi_class parameter.
const (
	MultiClassAuto        = "auto"
	MultiClassOVR         = "ovr"
	MultiClassMultinomial = "multinomial"
)

// Solvers lists the supported solver names.
func Solvers() []string {
	return []string{SolverLBFGS, SolverNewtonCG, SolverGradientDescent, SolverSAG, SolverSAGA}
}

// Estimator is an abstract representation of a classifier that can be fitted
// to a table under a configuration and then queried for predictions.
type Estimator interface {
	// Fit trains the estimator on a table. The supplied parameters are
	// resolved against the documented defaults before use.
	Fit(t dataset.Table, p config.Params) error
	// Predict returns the predicted class index for each row.
	Predict(rows [][]float64) ([]int, error)
	// Proba returns the per-class probabilities for each row.
	Proba(rows [][]float64) (*mat.Dense, error)
	// Params returns the resolved configuration the estimator was fitted
	// with, or nil if it has not been fitted.
	Params() config.Params
	// Name identifies the estimator in output.
	Name() string
}

// Restorable is implemented by estimators whose fitted state can be captured
// for persistence and restored without refitting.
type Restorable interface {
	CaptureState() (weights [][]float64, classes, features []string, strategy string, err error)
	RestoreState(weights [][]float64, classes, features []string, strategy string, resolved config.Params) error
}
