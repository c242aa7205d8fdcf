package learning

import (
	"log"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sepalml/sepal/config"
	"github.com/sepalml/sepal/dataset"
)

// LogisticRegression is a multiclass logistic regression classifier. The
// solver and multi-class strategy are taken from the configuration supplied
// at fit time; weights are one row per class over the features plus a
// trailing bias.
type LogisticRegression struct {
	verbose bool

	weights  *mat.Dense
	classes  []string
	features []string
	strategy string
	resolved config.Params
}

// Verbose makes the estimator log fitting progress.
func Verbose(v bool) func(*LogisticRegression) {
	return func(lr *LogisticRegression) {
		lr.verbose = v
	}
}

// NewLogisticRegression creates a new unfitted logistic regression
// estimator.
func NewLogisticRegression(options ...func(*LogisticRegression)) *LogisticRegression {
	lr := &LogisticRegression{}
	for _, option := range options {
		option(lr)
	}
	return lr
}

// Name is LogisticRegression.
func (lr *LogisticRegression) Name() string {
	return "LogisticRegression"
}

// Fit trains the classifier on a table. The parameters are resolved against
// the documented defaults; the resolved view is retained and reported by
// Params. Fitting again replaces any previously fitted state.
func (lr *LogisticRegression) Fit(t dataset.Table, p config.Params) error {
	if t.Len() == 0 {
		return errors.New("cannot fit to an empty table")
	}
	if t.Dim() == 0 {
		return errors.New("cannot fit to a table with no features")
	}
	k := len(t.Classes)
	if k < 2 {
		return errors.Errorf("need at least two classes to fit, table has %d", k)
	}
	for i, y := range t.Y {
		if y < 0 || y >= k {
			return errors.Errorf("row %d has label %d outside the %d known classes", i, y, k)
		}
	}

	resolved := p.Resolve(config.Default())

	solver := resolved.GetString(config.Solver, SolverLBFGS)
	if !supportedSolver(solver) {
		return errors.Errorf("unsupported solver %q, supported solvers are %v", solver, Solvers())
	}
	strategy, err := resolveStrategy(resolved.GetString(config.MultiClass, MultiClassAuto), k)
	if err != nil {
		return err
	}

	settings := solverSettings{
		maxIter: resolved.GetInt(config.MaxIter, 100),
		tol:     resolved.GetFloat64(config.Tol, 1e-4),
		lr:      resolved.GetFloat64(config.LearningRate, 0.1),
		seed:    int64(resolved.GetInt(config.Seed, 42)),
		verbose: lr.verbose,
	}
	if settings.maxIter <= 0 {
		return errors.Errorf("max_iter must be positive, got %d", settings.maxIter)
	}
	reg := resolved.GetFloat64(config.Reg, 1.0)
	if reg <= 0 {
		return errors.Errorf("reg must be positive, got %v", reg)
	}

	x := designMatrix(t)
	d := t.Dim() + 1
	l2 := 1 / (reg * float64(t.Len()))

	weights := mat.NewDense(k, d, nil)
	switch strategy {
	case MultiClassMultinomial:
		o := softmaxObjective{x: x, y: t.Y, k: k, d: d, l2: l2}
		w, err := minimize(o, solver, settings)
		if err != nil {
			return err
		}
		for c := 0; c < k; c++ {
			weights.SetRow(c, w[c*d:(c+1)*d])
		}
	case MultiClassOVR:
		for c := 0; c < k; c++ {
			y := make([]float64, t.Len())
			for i, label := range t.Y {
				if label == c {
					y[i] = 1
				}
			}
			o := binaryObjective{x: x, y: y, d: d, l2: l2}
			w, err := minimize(o, solver, settings)
			if err != nil {
				return errors.Wrapf(err, "fitting class %s", t.Classes[c])
			}
			weights.SetRow(c, w)
		}
	}

	if lr.verbose {
		log.Printf("fitted %s with solver %s (%s) on %d rows", lr.Name(), solver, strategy, t.Len())
	}

	lr.weights = weights
	lr.classes = append([]string(nil), t.Classes...)
	lr.features = append([]string(nil), t.Features...)
	lr.strategy = strategy
	lr.resolved = resolved
	return nil
}

// Predict returns the predicted class index for each row.
func (lr *LogisticRegression) Predict(rows [][]float64) ([]int, error) {
	proba, err := lr.Proba(rows)
	if err != nil {
		return nil, err
	}
	predicted := make([]int, len(rows))
	for i := range rows {
		predicted[i] = floats.MaxIdx(proba.RawRowView(i))
	}
	return predicted, nil
}

// Proba returns the per-class probabilities for each row. Rows of the result
// sum to one.
func (lr *LogisticRegression) Proba(rows [][]float64) (*mat.Dense, error) {
	if lr.weights == nil {
		return nil, ErrNotFitted
	}
	k := len(lr.classes)
	d := len(lr.features)
	out := mat.NewDense(len(rows), k, nil)
	z := make([]float64, k)
	for i, row := range rows {
		if len(row) != d {
			return nil, errors.Errorf("row %d has %d features, model was fitted on %d", i, len(row), d)
		}
		for c := 0; c < k; c++ {
			s := lr.weights.At(c, d)
			for j, v := range row {
				s += lr.weights.At(c, j) * v
			}
			z[c] = s
		}
		p := out.RawRowView(i)
		switch lr.strategy {
		case MultiClassMultinomial:
			lse := floats.LogSumExp(z)
			for c := range z {
				p[c] = math.Exp(z[c] - lse)
			}
		case MultiClassOVR:
			sum := 0.0
			for c := range z {
				p[c] = sigmoid(z[c])
				sum += p[c]
			}
			if sum == 0 {
				for c := range p {
					p[c] = 1 / float64(k)
				}
			} else {
				floats.Scale(1/sum, p)
			}
		}
	}
	return out, nil
}

// Params returns the resolved configuration the model was fitted with, or
// nil for an unfitted model.
func (lr *LogisticRegression) Params() config.Params {
	if lr.resolved == nil {
		return nil
	}
	return lr.resolved.Copy()
}

// Classes returns the class names the model predicts over.
func (lr *LogisticRegression) Classes() []string {
	return lr.classes
}

// FeatureNames returns the features the model was fitted on.
func (lr *LogisticRegression) FeatureNames() []string {
	return lr.features
}

// Strategy returns the multi-class strategy the fit resolved to, which for
// an auto configuration differs from the configured value.
func (lr *LogisticRegression) Strategy() string {
	return lr.strategy
}

// CaptureState extracts the fitted state for persistence.
func (lr *LogisticRegression) CaptureState() ([][]float64, []string, []string, string, error) {
	if lr.weights == nil {
		return nil, nil, nil, "", ErrNotFitted
	}
	r, c := lr.weights.Dims()
	weights := make([][]float64, r)
	for i := range weights {
		weights[i] = make([]float64, c)
		mat.Row(weights[i], i, lr.weights)
	}
	classes := append([]string(nil), lr.classes...)
	features := append([]string(nil), lr.features...)
	return weights, classes, features, lr.strategy, nil
}

// RestoreState replaces the fitted state with a previously captured one,
// making the estimator usable without refitting.
func (lr *LogisticRegression) RestoreState(weights [][]float64, classes, features []string, strategy string, resolved config.Params) error {
	if len(weights) < 2 || len(weights) != len(classes) {
		return errors.Errorf("got %d weight rows for %d classes", len(weights), len(classes))
	}
	if strategy != MultiClassMultinomial && strategy != MultiClassOVR {
		return errors.Errorf("unknown strategy %q", strategy)
	}
	d := len(features) + 1
	m := mat.NewDense(len(weights), d, nil)
	for i, row := range weights {
		if len(row) != d {
			return errors.Errorf("weight row %d has %d columns, want %d", i, len(row), d)
		}
		m.SetRow(i, row)
	}
	lr.weights = m
	lr.classes = append([]string(nil), classes...)
	lr.features = append([]string(nil), features...)
	lr.strategy = strategy
	lr.resolved = resolved.Copy()
	return nil
}

func supportedSolver(solver string) bool {
	for _, s := range Solvers() {
		if s == solver {
			return true
		}
	}
	return false
}

func resolveStrategy(multiClass string, k int) (string, error) {
	switch multiClass {
	case MultiClassAuto:
		if k == 2 {
			return MultiClassOVR, nil
		}
		return MultiClassMultinomial, nil
	case MultiClassOVR, MultiClassMultinomial:
		return multiClass, nil
	}
	return "", errors.Errorf("unsupported multi_class %q, supported strategies are [%s %s %s]",
		multiClass, MultiClassAuto, MultiClassOVR, MultiClassMultinomial)
}

// designMatrix copies the feature rows and appends the bias column.
func designMatrix(t dataset.Table) [][]float64 {
	x := make([][]float64, t.Len())
	for i, row := range t.X {
		r := make([]float64, len(row)+1)
		copy(r, row)
		r[len(row)] = 1
		x[i] = r
	}
	return x
}
