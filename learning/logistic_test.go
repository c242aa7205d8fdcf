package learning

import (
	"strings"
	"testing"

	"github.com/sepalml/sepal/config"
	"github.com/sepalml/sepal/dataset"
)

func irisPartition(t *testing.T) dataset.Partition {
	table, err := dataset.NewBundledIrisSource().Load()
	if err != nil {
		t.Fatal(err)
	}
	p, err := dataset.Split(table, 0.8, 42)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// blobs is a tiny linearly separable two-class table.
func blobs() dataset.Table {
	t := dataset.Table{
		Name:     "blobs",
		Features: []string{"a", "b"},
		Classes:  []string{"low", "high"},
	}
	offsets := []float64{-0.4, -0.2, 0, 0.2, 0.4}
	for _, o := range offsets {
		t.X = append(t.X, []float64{o, -o})
		t.Y = append(t.Y, 0)
	}
	for _, o := range offsets {
		t.X = append(t.X, []float64{10 + o, 10 - o})
		t.Y = append(t.Y, 1)
	}
	return t
}

func accuracy(predicted, truth []int) float64 {
	if len(truth) == 0 {
		return 0
	}
	correct := 0.0
	for i := range truth {
		if predicted[i] == truth[i] {
			correct++
		}
	}
	return correct / float64(len(truth))
}

func TestPredictBeforeFit(t *testing.T) {
	lr := NewLogisticRegression()
	if _, err := lr.Predict([][]float64{{1, 2}}); err != ErrNotFitted {
		t.Errorf("got %v, want ErrNotFitted", err)
	}
	if _, err := lr.Proba([][]float64{{1, 2}}); err != ErrNotFitted {
		t.Errorf("got %v, want ErrNotFitted", err)
	}
	if p := lr.Params(); p != nil {
		t.Errorf("got params %v before fit, want nil", p)
	}
}

func TestFitResolvesParams(t *testing.T) {
	p := irisPartition(t)
	lr := NewLogisticRegression()
	if err := lr.Fit(p.Train, config.Params{config.Solver: "lbfgs"}); err != nil {
		t.Fatal(err)
	}

	resolved := lr.Params()
	if got := resolved.GetString(config.Solver, ""); got != "lbfgs" {
		t.Errorf("solver: got %s, want lbfgs", got)
	}
	// Unspecified parameters resolve to the documented defaults.
	if got := resolved.GetString(config.MultiClass, ""); got != "auto" {
		t.Errorf("multi_class: got %s, want auto", got)
	}
	if got := resolved.GetInt(config.MaxIter, 0); got != 100 {
		t.Errorf("max_iter: got %d, want 100", got)
	}
	// Three classes under auto fit a multinomial model.
	if got := lr.Strategy(); got != MultiClassMultinomial {
		t.Errorf("strategy: got %s, want multinomial", got)
	}
}

func TestFitLBFGS(t *testing.T) {
	p := irisPartition(t)
	lr := NewLogisticRegression()
	if err := lr.Fit(p.Train, config.Params{config.Solver: SolverLBFGS}); err != nil {
		t.Fatal(err)
	}

	train, err := lr.Predict(p.Train.X)
	if err != nil {
		t.Fatal(err)
	}
	if acc := accuracy(train, p.Train.Y); acc < 0.9 {
		t.Errorf("training accuracy %v below 0.9", acc)
	}

	test, err := lr.Predict(p.Test.X)
	if err != nil {
		t.Fatal(err)
	}
	if acc := accuracy(test, p.Test.Y); acc < 0.8 {
		t.Errorf("held-out accuracy %v below 0.8", acc)
	}

	proba, err := lr.Proba(p.Test.X)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < p.Test.Len(); i++ {
		sum := 0.0
		for c := 0; c < 3; c++ {
			sum += proba.At(i, c)
		}
		if sum < 0.999 || sum > 1.001 {
			t.Fatalf("probabilities of row %d sum to %v", i, sum)
		}
	}
}

func TestFitNewtonCG(t *testing.T) {
	p := irisPartition(t)
	lr := NewLogisticRegression()
	if err := lr.Fit(p.Train, config.Params{config.Solver: SolverNewtonCG}); err != nil {
		t.Fatal(err)
	}
	predicted, err := lr.Predict(p.Train.X)
	if err != nil {
		t.Fatal(err)
	}
	if acc := accuracy(predicted, p.Train.Y); acc < 0.9 {
		t.Errorf("training accuracy %v below 0.9", acc)
	}
}

func TestFitOVR(t *testing.T) {
	p := irisPartition(t)
	lr := NewLogisticRegression()
	err := lr.Fit(p.Train, config.Params{
		config.Solver:     SolverLBFGS,
		config.MultiClass: MultiClassOVR,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := lr.Strategy(); got != MultiClassOVR {
		t.Errorf("strategy: got %s, want ovr", got)
	}
	predicted, err := lr.Predict(p.Train.X)
	if err != nil {
		t.Fatal(err)
	}
	if acc := accuracy(predicted, p.Train.Y); acc < 0.85 {
		t.Errorf("training accuracy %v below 0.85", acc)
	}
}

func TestFitSAGSeparable(t *testing.T) {
	table := blobs()
	lr := NewLogisticRegression()
	err := lr.Fit(table, config.Params{
		config.Solver:       SolverSAG,
		config.MaxIter:      300,
		config.LearningRate: 0.05,
	})
	if err != nil {
		t.Fatal(err)
	}
	// Two classes under auto fit one-vs-rest models.
	if got := lr.Strategy(); got != MultiClassOVR {
		t.Errorf("strategy: got %s, want ovr", got)
	}
	predicted, err := lr.Predict(table.X)
	if err != nil {
		t.Fatal(err)
	}
	if acc := accuracy(predicted, table.Y); acc < 0.9 {
		t.Errorf("accuracy %v below 0.9 on separable data", acc)
	}
}

func TestFitSAGADeterministic(t *testing.T) {
	table := blobs()
	p := config.Params{
		config.Solver:       SolverSAGA,
		config.MaxIter:      50,
		config.LearningRate: 0.05,
		config.Seed:         7,
	}

	a := NewLogisticRegression()
	if err := a.Fit(table, p); err != nil {
		t.Fatal(err)
	}
	b := NewLogisticRegression()
	if err := b.Fit(table, p); err != nil {
		t.Fatal(err)
	}

	wa, _, _, _, err := a.CaptureState()
	if err != nil {
		t.Fatal(err)
	}
	wb, _, _, _, err := b.CaptureState()
	if err != nil {
		t.Fatal(err)
	}
	for i := range wa {
		for j := range wa[i] {
			if wa[i][j] != wb[i][j] {
				t.Fatalf("weight (%d,%d) differs between identically seeded fits", i, j)
			}
		}
	}
}

func TestUnsupportedSolver(t *testing.T) {
	p := irisPartition(t)
	lr := NewLogisticRegression()
	err := lr.Fit(p.Train, config.Params{config.Solver: "liblinear"})
	if err == nil {
		t.Fatal("expected an error for an unsupported solver")
	}
	if !strings.Contains(err.Error(), "liblinear") {
		t.Errorf("error %q does not name the offending solver", err)
	}
}

func TestUnsupportedMultiClass(t *testing.T) {
	p := irisPartition(t)
	lr := NewLogisticRegression()
	err := lr.Fit(p.Train, config.Params{config.MultiClass: "ovo"})
	if err == nil {
		t.Fatal("expected an error for an unsupported multi_class")
	}
	if !strings.Contains(err.Error(), "ovo") {
		t.Errorf("error %q does not name the offending strategy", err)
	}
}

func TestPredictDimensionMismatch(t *testing.T) {
	p := irisPartition(t)
	lr := NewLogisticRegression()
	if err := lr.Fit(p.Train, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := lr.Predict([][]float64{{1, 2}}); err == nil {
		t.Error("expected an error for a feature count mismatch")
	}
}

func TestCaptureRestoreRoundTrip(t *testing.T) {
	p := irisPartition(t)
	lr := NewLogisticRegression()
	if err := lr.Fit(p.Train, nil); err != nil {
		t.Fatal(err)
	}

	weights, classes, features, strategy, err := lr.CaptureState()
	if err != nil {
		t.Fatal(err)
	}

	restored := NewLogisticRegression()
	if err := restored.RestoreState(weights, classes, features, strategy, lr.Params()); err != nil {
		t.Fatal(err)
	}

	want, err := lr.Predict(p.Test.X)
	if err != nil {
		t.Fatal(err)
	}
	got, err := restored.Predict(p.Test.X)
	if err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("prediction %d differs after restore", i)
		}
	}
	if got := restored.Params().GetString(config.Solver, ""); got != "lbfgs" {
		t.Errorf("restored solver: got %s, want lbfgs", got)
	}
}

func TestCaptureBeforeFit(t *testing.T) {
	lr := NewLogisticRegression()
	if _, _, _, _, err := lr.CaptureState(); err != ErrNotFitted {
		t.Errorf("got %v, want ErrNotFitted", err)
	}
}
