// Package config provides training configurations as parameter maps with
// documented defaults, and loaders for properties files.
package config

import (
	"log"
	"reflect"
	"strconv"

	"github.com/magiconair/properties"
	"github.com/pkg/errors"
)

// Parameter names understood by the learners and the pipeline.
const (
	// Solver selects the optimisation routine used to fit a model.
	Solver = "solver"
	// MultiClass selects the strategy for problems with more than two classes.
	MultiClass = "multi_class"
	// MaxIter bounds the number of iterations (or epochs) a solver may take.
	MaxIter = "max_iter"
	// Tol is the gradient tolerance at which a solver stops early.
	Tol = "tol"
	// Reg is the inverse regularisation strength; smaller values regularise more.
	Reg = "reg"
	// LearningRate is the step size for the stochastic solvers.
	LearningRate = "learning_rate"
	// Seed seeds every source of randomness in a run.
	Seed = "seed"
	// TrainRatio is the fraction of rows assigned to the training partition.
	TrainRatio = "train_ratio"
)

// Params maps parameter names to values. Values are written as the types the
// getters expect; unknown types fall back to the supplied default.
type Params map[string]interface{}

// Default returns the documented default parameters. Every run resolves its
// configuration against these, so a key absent from a supplied configuration
// always has the value recorded here.
func Default() Params {
	return Params{
		Solver:       "lbfgs",
		MultiClass:   "auto",
		MaxIter:      100,
		Tol:          1e-4,
		Reg:          1.0,
		LearningRate: 0.1,
		Seed:         42,
		TrainRatio:   0.8,
	}
}

// GetString gets a string parameter, or the default if it is unset.
func (p Params) GetString(name string, def string) string {
	if val, ok := p[name]; ok {
		switch v := val.(type) {
		case string:
			return v
		default:
			log.Printf("expected %s to be string, but got %v", name, reflect.TypeOf(val))
		}
	}
	return def
}

// GetFloat64 gets a float parameter, or the default if it is unset. Integer
// values are widened.
func (p Params) GetFloat64(name string, def float64) float64 {
	if val, ok := p[name]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case int64:
			return float64(v)
		default:
			log.Printf("expected %s to be float64, but got %v", name, reflect.TypeOf(val))
		}
	}
	return def
}

// GetInt gets an integer parameter, or the default if it is unset. Whole
// floats are narrowed.
func (p Params) GetInt(name string, def int) int {
	if val, ok := p[name]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			if v == float64(int(v)) {
				return int(v)
			}
			log.Printf("expected %s to be int, but got fractional %v", name, v)
		default:
			log.Printf("expected %s to be int, but got %v", name, reflect.TypeOf(val))
		}
	}
	return def
}

// GetBool gets a boolean parameter, or the default if it is unset.
func (p Params) GetBool(name string, def bool) bool {
	if val, ok := p[name]; ok {
		switch v := val.(type) {
		case bool:
			return v
		default:
			log.Printf("expected %s to be bool, but got %v", name, reflect.TypeOf(val))
		}
	}
	return def
}

// Copy returns a shallow copy of the parameters.
func (p Params) Copy() Params {
	q := make(Params, len(p))
	for k, v := range p {
		q[k] = v
	}
	return q
}

// Resolve overlays the parameters on a set of defaults, producing the
// resolved view of a configuration: every key of the defaults is present, and
// explicitly supplied values win. Neither receiver nor argument is modified.
func (p Params) Resolve(defaults Params) Params {
	r := defaults.Copy()
	for k, v := range p {
		r[k] = v
	}
	return r
}

// StringMap renders the parameters in their canonical flat form, suitable for
// hashing, persistence and properties output.
func (p Params) StringMap() map[string]string {
	m := make(map[string]string, len(p))
	for k, v := range p {
		switch t := v.(type) {
		case string:
			m[k] = t
		case float64:
			m[k] = strconv.FormatFloat(t, 'g', -1, 64)
		case int:
			m[k] = strconv.Itoa(t)
		case int64:
			m[k] = strconv.FormatInt(t, 10)
		case bool:
			m[k] = strconv.FormatBool(t)
		default:
			log.Printf("cannot render %s of type %v, skipping", k, reflect.TypeOf(v))
		}
	}
	return m
}

// FromStringMap parses flat string values back into typed parameters.
// Integers and floats are recognised before booleans; everything else stays a
// string, so solver names and strategies round-trip unchanged.
func FromStringMap(m map[string]string) Params {
	p := make(Params, len(m))
	for k, v := range m {
		p[k] = parseValue(v)
	}
	return p
}

func parseValue(v string) interface{} {
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return int(i)
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

// FromProperties loads parameters from a properties file.
func FromProperties(path string) (Params, error) {
	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load properties file %s", path)
	}
	p := make(Params)
	for _, k := range props.Keys() {
		if v, ok := props.Get(k); ok {
			p[k] = parseValue(v)
		}
	}
	return p, nil
}
