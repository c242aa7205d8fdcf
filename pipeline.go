// Package sepal provides a framework for constructing reproducible
// configuration experiments over classification models.
package sepal

import (
	"context"
	"log"
	"os"
	"path"

	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"

	"github.com/sepalml/sepal/analysis"
	"github.com/sepalml/sepal/config"
	"github.com/sepalml/sepal/dataset"
	"github.com/sepalml/sepal/eval"
	"github.com/sepalml/sepal/learning"
	"github.com/sepalml/sepal/output"
	"github.com/sepalml/sepal/persist"
	"github.com/sepalml/sepal/pipeline"
	"github.com/sepalml/sepal/preprocess"
	"github.com/sepalml/sepal/stats"
	"github.com/sepalml/sepal/tuning"
	"github.com/sepalml/sepal/validate"
)

// ErrNotLoaded is returned when an operation needs a dataset before Load has run.
var ErrNotLoaded = errors.New("pipeline has not loaded a dataset")

// ErrNotTrained is returned when an operation needs a fitted model before Train has run.
var ErrNotTrained = errors.New("pipeline has not trained a model")

// Pipeline contains all the information for executing an experiment over one
// dataset: how to load it, how to split it, which model to fit under which
// configuration, and how to measure, evaluate and validate the result.
type Pipeline struct {
	Source                dataset.Source
	Configuration         config.Params
	Model                 learning.Estimator
	StatisticsSource      stats.StatisticsSource
	Preprocess            []preprocess.Transformer
	Measurements          []analysis.Measurement
	MeasurementFormatters []output.MeasurementFormatter
	MeasurementExecutor   analysis.MeasurementExecutor
	Evaluations           []eval.Evaluator
	EvaluationFormatters  []output.EvaluationFormatter
	Validators            []validate.Validator
	ValidationFormatters  []output.ValidationFormatter
	ModelCache            persist.ModelCacher
	TuningSearch          tuning.Search
	TuningGrid            tuning.Grid
	Verbose               bool

	table       dataset.Table
	partition   dataset.Partition
	hasExecutor bool
	loaded      bool
	trained     bool
}

type tunerComponent struct {
	search tuning.Search
	grid   tuning.Grid
}

type verbosity bool

// Configuration sets the training configuration of the pipeline. Keys absent
// from the configuration resolve to the documented defaults.
func Configuration(p config.Params) func() interface{} {
	return func() interface{} {
		return p
	}
}

// Model sets the estimator the pipeline trains.
func Model(m learning.Estimator) func() interface{} {
	return func() interface{} {
		return m
	}
}

// Preprocess adds preprocessors to the pipeline. They are fitted on the
// training partition only and applied to everything the model sees.
func Preprocess(transformers ...preprocess.Transformer) func() interface{} {
	return func() interface{} {
		return transformers
	}
}

// Measurement adds measurements to the pipeline.
func Measurement(measurements ...analysis.Measurement) func() interface{} {
	return func() interface{} {
		return measurements
	}
}

// Evaluation adds evaluation measures to the pipeline.
func Evaluation(measures ...eval.Evaluator) func() interface{} {
	return func() interface{} {
		return measures
	}
}

// Validation adds configuration validation rules to the pipeline.
func Validation(validators ...validate.Validator) func() interface{} {
	return func() interface{} {
		return validators
	}
}

// MeasurementOutput sets the formats measurements are output in.
func MeasurementOutput(formatters ...output.MeasurementFormatter) func() interface{} {
	return func() interface{} {
		return formatters
	}
}

// EvaluationOutput sets the formats evaluation results are output in.
func EvaluationOutput(formatters ...output.EvaluationFormatter) func() interface{} {
	return func() interface{} {
		return formatters
	}
}

// ValidationOutput sets the formats validation results are output in.
func ValidationOutput(formatters ...output.ValidationFormatter) func() interface{} {
	return func() interface{} {
		return formatters
	}
}

// ModelCache attaches a cache that fitted models are restored from and
// persisted to, keyed by model, configuration and training data.
func ModelCache(cache persist.ModelCacher) func() interface{} {
	return func() interface{} {
		return cache
	}
}

// MeasurementCache sets the executor that memoises measurement values. Without
// this component, measurements are cached on disk under the user cache dir.
func MeasurementCache(executor analysis.MeasurementExecutor) func() interface{} {
	return func() interface{} {
		return executor
	}
}

// Statistics overrides the statistics source measurements read from. Without
// this component, statistics come from the loaded table.
func Statistics(source stats.StatisticsSource) func() interface{} {
	return func() interface{} {
		return source
	}
}

// Tuner makes the pipeline search a grid of candidate configurations and
// train the final model with the best candidate found.
func Tuner(search tuning.Search, grid tuning.Grid) func() interface{} {
	return func() interface{} {
		return tunerComponent{search: search, grid: grid}
	}
}

// Verbose makes the pipeline log the configuration it trains with.
func Verbose(v bool) func() interface{} {
	return func() interface{} {
		return verbosity(v)
	}
}

// NewPipeline creates a new sepal pipeline. The dataset source is required.
// Additional components are provided via the optional functional arguments.
// By default the pipeline trains logistic regression under the default
// configuration and evaluates accuracy.
func NewPipeline(source dataset.Source, components ...func() interface{}) *Pipeline {
	sp := &Pipeline{
		Source:               source,
		Configuration:        config.Default(),
		Model:                learning.NewLogisticRegression(),
		Evaluations:          []eval.Evaluator{eval.Accuracy},
		EvaluationFormatters: []output.EvaluationFormatter{output.JsonEvaluationFormatter},
		ValidationFormatters: []output.ValidationFormatter{output.TextValidationFormatter},
	}

	for _, component := range components {
		val := component()
		switch v := val.(type) {
		case config.Params:
			sp.Configuration = v
		case []preprocess.Transformer:
			sp.Preprocess = v
		case []analysis.Measurement:
			sp.Measurements = v
		case []eval.Evaluator:
			sp.Evaluations = v
		case []validate.Validator:
			sp.Validators = v
		case []output.MeasurementFormatter:
			sp.MeasurementFormatters = v
		case []output.EvaluationFormatter:
			sp.EvaluationFormatters = v
		case []output.ValidationFormatter:
			sp.ValidationFormatters = v
		case analysis.MeasurementExecutor:
			sp.MeasurementExecutor = v
			sp.hasExecutor = true
		case tunerComponent:
			sp.TuningSearch = v.search
			sp.TuningGrid = v.grid
		case verbosity:
			sp.Verbose = bool(v)
		case learning.Estimator:
			sp.Model = v
		case persist.ModelCacher:
			sp.ModelCache = v
		case stats.StatisticsSource:
			sp.StatisticsSource = v
		}
	}

	return sp
}

// Execute runs the pipeline end to end, sending formatted results down the
// channel as they are produced and closing it after the Done result.
func (p *Pipeline) Execute(c chan pipeline.Result) {
	defer close(c)
	log.Println("starting sepal pipeline...")

	if err := p.Load(); err != nil {
		c <- pipeline.Result{
			Error: err,
			Type:  pipeline.Error,
		}
		return
	}

	// Configure the measurement cache.
	if !p.hasExecutor {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			c <- pipeline.Result{
				Error: err,
				Type:  pipeline.Error,
			}
			return
		}
		p.MeasurementExecutor = analysis.NewDiskMeasurementExecutor(diskv.New(diskv.Options{
			BasePath:     path.Join(cacheDir, "sepal", "measurement_cache"),
			Transform:    persist.BlockTransform(8),
			CacheSizeMax: 4096 * 1024,
			Compression:  diskv.NewGzipCompression(),
		}))
		p.hasExecutor = true
	}

	// Compute measurements over the loaded dataset. Only performed if there
	// are some measurement formatters to output them to.
	if len(p.Measurements) > 0 && len(p.MeasurementFormatters) > 0 {
		log.Println("computing measurements...")
		experiment := pipeline.NewExperiment(p.table.Name, p.table, p.Configuration)
		headers := make([]string, len(p.Measurements))
		for i, measurement := range p.Measurements {
			headers[i] = measurement.Name()
		}

		measurements, err := p.MeasurementExecutor.Execute(experiment, p.StatisticsSource, p.Measurements...)
		if err != nil {
			c <- pipeline.Result{
				Error: err,
				Type:  pipeline.Error,
			}
			return
		}
		data := make([][]float64, len(measurements))
		for i, measurement := range measurements {
			data[i] = []float64{measurement}
		}

		outputs := make([]string, len(p.MeasurementFormatters))
		for i, formatter := range p.MeasurementFormatters {
			outputs[i], err = formatter([]string{p.table.Name}, headers, data)
			if err != nil {
				c <- pipeline.Result{
					Error: err,
					Type:  pipeline.Error,
				}
				return
			}
		}
		c <- pipeline.Result{
			Name:        p.table.Name,
			Measurement: outputs,
			Type:        pipeline.Measurement,
		}
	}

	evaluations := make(map[string]map[string]float64)
	var validations []output.ValidationResult

	// Search the configuration grid, recording one run per trial, then adopt
	// the best candidate for the final model.
	if len(p.TuningGrid) > 0 {
		log.Println("searching configuration grid...")
		trials, err := p.TuningSearch.Run(context.Background(), p.partition, p.Configuration, p.TuningGrid)
		if err != nil {
			c <- pipeline.Result{
				Error: err,
				Type:  pipeline.Error,
			}
			return
		}
		objective := p.TuningSearch.Objective().Name()
		for _, trial := range trials {
			if trial.Err != nil {
				log.Printf("trial %s failed: %v", trial.ID, trial.Err)
				continue
			}
			evaluations[trial.ID] = map[string]float64{objective: trial.Score}
			validations = append(validations, p.validateParams(trial.ID, trial.Params.Resolve(config.Default()))...)
		}
		best, err := tuning.Best(trials)
		if err != nil {
			c <- pipeline.Result{
				Error: err,
				Type:  pipeline.Error,
			}
			return
		}
		log.Printf("best trial %s scored %s %f", best.ID, objective, best.Score)
		p.Configuration = best.Params
	}

	// Train the final model and evaluate it on the held-out partition.
	if p.Verbose {
		log.Printf("training %s with configuration %v", p.Model.Name(), p.Configuration.Resolve(config.Default()))
	}
	if err := p.Train(); err != nil {
		c <- pipeline.Result{
			Error: err,
			Type:  pipeline.Error,
		}
		return
	}
	results, err := p.Evaluate()
	if err != nil {
		c <- pipeline.Result{
			Error: err,
			Type:  pipeline.Error,
		}
		return
	}
	evaluations[p.table.Name] = results

	if len(p.EvaluationFormatters) > 0 {
		outputs := make([]string, len(p.EvaluationFormatters))
		for i, formatter := range p.EvaluationFormatters {
			outputs[i], err = formatter(evaluations)
			if err != nil {
				c <- pipeline.Result{
					Error: err,
					Type:  pipeline.Error,
				}
				return
			}
		}
		c <- pipeline.Result{
			Name:       p.table.Name,
			Evaluation: outputs,
			Type:       pipeline.Evaluation,
		}
	}

	// Validate the configuration the final model was actually trained with.
	if len(p.Validators) > 0 {
		finalValidations, err := p.Validate()
		if err != nil {
			c <- pipeline.Result{
				Error: err,
				Type:  pipeline.Error,
			}
			return
		}
		validations = append(validations, finalValidations...)

		if len(p.ValidationFormatters) > 0 {
			outputs := make([]string, len(p.ValidationFormatters))
			for i, formatter := range p.ValidationFormatters {
				outputs[i], err = formatter(validations)
				if err != nil {
					c <- pipeline.Result{
						Error: err,
						Type:  pipeline.Error,
					}
					return
				}
			}
			c <- pipeline.Result{
				Name:       p.table.Name,
				Validation: outputs,
				Type:       pipeline.Validation,
			}
		}
	}

	c <- pipeline.Result{
		Type: pipeline.Done,
	}
}
