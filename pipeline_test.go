package sepal_test

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sepalml/sepal"
	"github.com/sepalml/sepal/analysis"
	"github.com/sepalml/sepal/config"
	"github.com/sepalml/sepal/dataset"
	"github.com/sepalml/sepal/eval"
	"github.com/sepalml/sepal/output"
	"github.com/sepalml/sepal/persist"
	"github.com/sepalml/sepal/pipeline"
	"github.com/sepalml/sepal/preprocess"
	"github.com/sepalml/sepal/tuning"
	"github.com/sepalml/sepal/validate"
)

func TestPipelineExecute(t *testing.T) {
	pipelineChannel := make(chan pipeline.Result)
	p := sepal.NewPipeline(
		dataset.NewBundledIrisSource(),
		sepal.Measurement(analysis.SampleCount, analysis.FeatureCount, analysis.ClassBalance),
		sepal.Evaluation(eval.Accuracy, eval.MacroPrecision, eval.MacroRecall),
		sepal.Validation(validate.NewAllowList(config.Solver, "lbfgs", "newton-cg")),
		sepal.MeasurementOutput(output.JsonMeasurementFormatter, output.CsvMeasurementFormatter),
		sepal.EvaluationOutput(output.JsonEvaluationFormatter),
		sepal.ValidationOutput(output.TextValidationFormatter),
		sepal.MeasurementCache(analysis.NewMemoryMeasurementExecutor()),
	)

	go p.Execute(pipelineChannel)

	var measurements, evaluations, validations []string
	for {
		result := <-pipelineChannel
		if result.Type == pipeline.Done {
			break
		}
		switch result.Type {
		case pipeline.Measurement:
			measurements = result.Measurement
		case pipeline.Evaluation:
			evaluations = result.Evaluation
		case pipeline.Validation:
			validations = result.Validation
		case pipeline.Error:
			t.Fatal(result.Error)
		}
	}

	if len(measurements) != 2 {
		t.Fatalf("got %d measurement outputs, want 2", len(measurements))
	}
	if !strings.Contains(measurements[0], `"SampleCount": 150`) {
		t.Fatalf("missing sample count in %s", measurements[0])
	}
	if !strings.Contains(measurements[1], "Run,SampleCount,FeatureCount,ClassBalance") {
		t.Fatalf("missing csv header in %s", measurements[1])
	}

	if len(evaluations) != 1 {
		t.Fatalf("got %d evaluation outputs, want 1", len(evaluations))
	}
	if !strings.Contains(evaluations[0], `"Accuracy"`) {
		t.Fatalf("missing accuracy in %s", evaluations[0])
	}

	if len(validations) != 1 {
		t.Fatalf("got %d validation outputs, want 1", len(validations))
	}
	if !strings.Contains(validations[0], "PASS iris solver=lbfgs") {
		t.Fatalf("expected the default solver to pass validation, got %s", validations[0])
	}
}

func TestPipelineRun(t *testing.T) {
	p := sepal.NewPipeline(
		dataset.NewBundledIrisSource(),
		sepal.Preprocess(preprocess.NewStandardScaler()),
		sepal.Evaluation(eval.Accuracy),
		sepal.Validation(validate.NewAllowList(config.Solver, "lbfgs", "newton-cg")),
	)

	evaluations, validations, err := p.Run()
	if err != nil {
		t.Fatal(err)
	}
	accuracy := evaluations["Accuracy"]
	if accuracy < 0.8 || accuracy > 1.0 {
		t.Fatalf("got accuracy %v, want at least 0.8", accuracy)
	}
	if len(validations) != 1 || !validations[0].OK {
		t.Fatalf("expected the default configuration to validate, got %v", validations)
	}

	// The same configuration over the same source must reproduce the result.
	q := sepal.NewPipeline(
		dataset.NewBundledIrisSource(),
		sepal.Preprocess(preprocess.NewStandardScaler()),
		sepal.Evaluation(eval.Accuracy),
	)
	again, _, err := q.Run()
	if err != nil {
		t.Fatal(err)
	}
	if again["Accuracy"] != accuracy {
		t.Fatalf("got %v then %v, want identical runs", accuracy, again["Accuracy"])
	}
}

func TestPipelineValidateFlagsDisallowedSolver(t *testing.T) {
	configuration := config.Default()
	configuration[config.Solver] = "sag"

	p := sepal.NewPipeline(
		dataset.NewBundledIrisSource(),
		sepal.Configuration(configuration),
		sepal.Validation(validate.NewAllowList(config.Solver, "lbfgs", "newton-cg")),
	)

	_, validations, err := p.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(validations) != 1 {
		t.Fatalf("got %d validation results, want 1", len(validations))
	}
	v := validations[0]
	if v.OK {
		t.Fatal("expected sag to fail validation")
	}
	if v.Param != "solver" || v.Value != "sag" {
		t.Fatalf("got param %q value %q, want solver and sag", v.Param, v.Value)
	}
	if len(v.Allowed) != 2 || v.Allowed[0] != "lbfgs" || v.Allowed[1] != "newton-cg" {
		t.Fatalf("got allowed %v", v.Allowed)
	}
	if !strings.Contains(v.Detail, `"sag"`) {
		t.Fatalf("detail must name the offending value, got %q", v.Detail)
	}
}

func TestPipelinePredictBeforeTrain(t *testing.T) {
	p := sepal.NewPipeline(dataset.NewBundledIrisSource())
	if err := p.Load(); err != nil {
		t.Fatal(err)
	}
	_, err := p.Predict([][]float64{{5.1, 3.5, 1.4, 0.2}})
	if errors.Cause(err) != sepal.ErrNotTrained {
		t.Fatalf("got %v, want %v", err, sepal.ErrNotTrained)
	}
}

func TestPipelineTrainBeforeLoad(t *testing.T) {
	p := sepal.NewPipeline(dataset.NewBundledIrisSource())
	if err := p.Train(); errors.Cause(err) != sepal.ErrNotLoaded {
		t.Fatalf("got %v, want %v", err, sepal.ErrNotLoaded)
	}
}

type countingCache struct {
	inner persist.ModelCacher
	sets  int
	hits  int
}

func (c *countingCache) Get(key string) (persist.Snapshot, error) {
	s, err := c.inner.Get(key)
	if err == nil {
		c.hits++
	}
	return s, err
}

func (c *countingCache) Set(key string, s persist.Snapshot) error {
	c.sets++
	return c.inner.Set(key, s)
}

func TestPipelineModelCache(t *testing.T) {
	cache := &countingCache{inner: persist.NewMapModelCache()}

	p := sepal.NewPipeline(dataset.NewBundledIrisSource(), sepal.ModelCache(cache))
	first, _, err := p.Run()
	if err != nil {
		t.Fatal(err)
	}
	if cache.sets != 1 || cache.hits != 0 {
		t.Fatalf("got %d sets and %d hits after the first run", cache.sets, cache.hits)
	}

	q := sepal.NewPipeline(dataset.NewBundledIrisSource(), sepal.ModelCache(cache))
	second, _, err := q.Run()
	if err != nil {
		t.Fatal(err)
	}
	if cache.hits != 1 {
		t.Fatalf("got %d hits, want the second run restored from cache", cache.hits)
	}
	if second["Accuracy"] != first["Accuracy"] {
		t.Fatalf("got %v then %v, want the restored model to score identically", first["Accuracy"], second["Accuracy"])
	}
}

func TestPipelineExecuteWithTuner(t *testing.T) {
	pipelineChannel := make(chan pipeline.Result)
	p := sepal.NewPipeline(
		dataset.NewBundledIrisSource(),
		sepal.Validation(validate.NewAllowList(config.Solver, "lbfgs", "newton-cg")),
		sepal.ValidationOutput(output.TextValidationFormatter),
		sepal.Tuner(tuning.NewSearch(tuning.SearchConcurrency(2)), tuning.Grid{
			config.Solver: {"lbfgs", "newton-cg"},
		}),
		sepal.MeasurementCache(analysis.NewMemoryMeasurementExecutor()),
	)

	go p.Execute(pipelineChannel)

	var validations []string
	for {
		result := <-pipelineChannel
		if result.Type == pipeline.Done {
			break
		}
		switch result.Type {
		case pipeline.Validation:
			validations = result.Validation
		case pipeline.Error:
			t.Fatal(result.Error)
		}
	}

	if len(validations) != 1 {
		t.Fatalf("got %d validation outputs, want 1", len(validations))
	}
	// Two trials plus the final model, all on allowed solvers.
	if got := strings.Count(validations[0], "PASS"); got != 3 {
		t.Fatalf("got %d PASS lines, want 3:\n%s", got, validations[0])
	}
	if strings.Contains(validations[0], "FAIL") {
		t.Fatalf("unexpected FAIL in %s", validations[0])
	}
}
