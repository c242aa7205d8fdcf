package sepal

import (
	"log"

	"github.com/pkg/errors"

	"github.com/sepalml/sepal/config"
	"github.com/sepalml/sepal/dataset"
	"github.com/sepalml/sepal/eval"
	"github.com/sepalml/sepal/learning"
	"github.com/sepalml/sepal/output"
	"github.com/sepalml/sepal/persist"
	"github.com/sepalml/sepal/stats"
	"github.com/sepalml/sepal/validate"
)

// Table returns the loaded dataset. It is the zero table until Load has run.
func (p *Pipeline) Table() dataset.Table {
	return p.table
}

// Partition returns the train and test split of the loaded dataset. It is
// empty until Load has run.
func (p *Pipeline) Partition() dataset.Partition {
	return p.partition
}

// Load reads the dataset from the source and splits it into train and test
// partitions using the ratio and seed of the resolved configuration. Loading
// twice is a no-op.
func (p *Pipeline) Load() error {
	if p.loaded {
		return nil
	}
	if p.Source == nil {
		return errors.New("pipeline has no dataset source")
	}

	table, err := p.Source.Load()
	if err != nil {
		return errors.Wrapf(err, "could not load dataset %s", p.Source.Name())
	}

	resolved := p.Configuration.Resolve(config.Default())
	ratio := resolved.GetFloat64(config.TrainRatio, 0.8)
	seed := int64(resolved.GetInt(config.Seed, 42))

	partition, err := dataset.Split(table, ratio, seed)
	if err != nil {
		return errors.Wrapf(err, "could not split dataset %s", table.Name)
	}

	p.table = table
	p.partition = partition
	if p.StatisticsSource == nil {
		p.StatisticsSource = stats.NewTableStatisticsSource(table)
	}
	p.loaded = true
	log.Printf("loaded %s with %d training and %d testing rows", table.Name, partition.Train.Len(), partition.Test.Len())
	return nil
}

// Train fits the pipeline model on the training partition under the pipeline
// configuration.
func (p *Pipeline) Train() error {
	return p.TrainWith(p.Configuration)
}

// TrainWith fits the pipeline model on the training partition under the
// supplied parameters. Preprocessors are fitted on the training partition
// first. When a model cache is attached, a previous fit of the same model,
// parameters and training data is restored instead of refitting.
func (p *Pipeline) TrainWith(params config.Params) error {
	if !p.loaded {
		return ErrNotLoaded
	}

	train := p.partition.Train
	var err error
	for _, transformer := range p.Preprocess {
		if err = transformer.Fit(train); err != nil {
			return errors.Wrapf(err, "could not fit %s", transformer.Name())
		}
		if train, err = transformer.Apply(train); err != nil {
			return errors.Wrapf(err, "could not apply %s", transformer.Name())
		}
	}

	key := ""
	if p.ModelCache != nil {
		key = persist.HashKey(p.Model.Name(), params.Resolve(config.Default()), persist.Fingerprint(train))
		if s, err := p.ModelCache.Get(key); err == nil {
			if r, ok := p.Model.(learning.Restorable); ok {
				if err := r.RestoreState(s.Weights, s.Classes, s.Features, s.Strategy, config.FromStringMap(s.Params)); err == nil {
					log.Printf("restored %s from cache", p.Model.Name())
					p.trained = true
					return nil
				}
				log.Printf("could not restore cached %s, refitting", p.Model.Name())
			}
		} else if err != persist.ErrCacheMiss {
			return errors.Wrap(err, "could not read model cache")
		}
	}

	if err := p.Model.Fit(train, params); err != nil {
		return errors.Wrapf(err, "could not fit %s", p.Model.Name())
	}
	p.trained = true

	if p.ModelCache != nil {
		if r, ok := p.Model.(learning.Restorable); ok {
			weights, classes, features, strategy, err := r.CaptureState()
			if err != nil {
				return errors.Wrap(err, "could not capture model state")
			}
			s := persist.Snapshot{
				Name:     p.Model.Name(),
				Weights:  weights,
				Classes:  classes,
				Features: features,
				Strategy: strategy,
				Params:   p.Model.Params().StringMap(),
			}
			if err := p.ModelCache.Set(key, s); err != nil {
				return errors.Wrap(err, "could not write model cache")
			}
		}
	}
	return nil
}

// Predict returns the predicted class index for each row, mapping the rows
// through any fitted preprocessors first.
func (p *Pipeline) Predict(rows [][]float64) ([]int, error) {
	if !p.trained {
		return nil, ErrNotTrained
	}
	t := dataset.Table{Name: p.table.Name, Features: p.table.Features, X: rows}
	var err error
	for _, transformer := range p.Preprocess {
		if t, err = transformer.Apply(t); err != nil {
			return nil, errors.Wrapf(err, "could not apply %s", transformer.Name())
		}
	}
	return p.Model.Predict(t.X)
}

// Evaluate scores the trained model on the test partition with every
// evaluator attached to the pipeline.
func (p *Pipeline) Evaluate() (map[string]float64, error) {
	if !p.trained {
		return nil, ErrNotTrained
	}

	test := p.partition.Test
	var err error
	for _, transformer := range p.Preprocess {
		if test, err = transformer.Apply(test); err != nil {
			return nil, errors.Wrapf(err, "could not apply %s", transformer.Name())
		}
	}

	predicted, err := p.Model.Predict(test.X)
	if err != nil {
		return nil, errors.Wrapf(err, "could not predict with %s", p.Model.Name())
	}
	return eval.Evaluate(p.Evaluations, &eval.Results{
		Predicted: predicted,
		Truth:     test.Y,
		Classes:   len(test.Classes),
	}), nil
}

// Validate checks the resolved configuration the model was trained with
// against every validation rule attached to the pipeline.
func (p *Pipeline) Validate() ([]output.ValidationResult, error) {
	if !p.trained {
		return nil, ErrNotTrained
	}
	return p.validateParams(p.table.Name, p.Model.Params()), nil
}

func (p *Pipeline) validateParams(run string, resolved config.Params) []output.ValidationResult {
	results := make([]output.ValidationResult, 0, len(p.Validators))
	for _, v := range p.Validators {
		r := output.ValidationResult{Run: run, Param: v.Name(), OK: true}
		if a, ok := v.(validate.AllowList); ok {
			r.Param = a.Param()
			r.Allowed = a.Values()
			r.Value = resolved.StringMap()[a.Param()]
		}
		if err := v.Validate(resolved); err != nil {
			r.OK = false
			r.Detail = err.Error()
			var verr *validate.Error
			if errors.As(err, &verr) {
				r.Param, r.Value, r.Allowed = verr.Param, verr.Value, verr.Allowed
			}
		}
		results = append(results, r)
	}
	return results
}

// Run loads the dataset, trains the model and returns the evaluation and
// validation results in one call.
func (p *Pipeline) Run() (map[string]float64, []output.ValidationResult, error) {
	if err := p.Load(); err != nil {
		return nil, nil, err
	}
	if err := p.Train(); err != nil {
		return nil, nil, err
	}
	evaluations, err := p.Evaluate()
	if err != nil {
		return nil, nil, err
	}
	validations, err := p.Validate()
	if err != nil {
		return nil, nil, err
	}
	return evaluations, validations, nil
}
