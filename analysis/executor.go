package analysis

import (
	"bytes"
	"encoding/gob"

	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"
	"github.com/sepalml/sepal/persist"
	"github.com/sepalml/sepal/pipeline"
	"github.com/sepalml/sepal/stats"
)

// MeasurementExecutor executes measurements while memoising the result of each computation.
// Two experiments over the same dataset share memoised values.
type MeasurementExecutor struct {
	cache *diskv.Diskv
	mem   map[string]float64
}

// NewDiskMeasurementExecutor creates a measurement executor that caches measurement
// values to disk.
func NewDiskMeasurementExecutor(d *diskv.Diskv) MeasurementExecutor {
	return MeasurementExecutor{cache: d}
}

// NewMemoryMeasurementExecutor creates a measurement executor that caches measurement
// values in memory.
func NewMemoryMeasurementExecutor() MeasurementExecutor {
	return MeasurementExecutor{mem: make(map[string]float64)}
}

func (m MeasurementExecutor) get(key string) (float64, bool) {
	if m.mem != nil {
		v, ok := m.mem[key]
		return v, ok
	}
	if m.cache != nil && m.cache.Has(key) {
		b, err := m.cache.Read(key)
		if err != nil {
			return 0, false
		}
		var v float64
		if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&v); err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func (m MeasurementExecutor) set(key string, v float64) error {
	if m.mem != nil {
		m.mem[key] = v
		return nil
	}
	if m.cache == nil {
		return nil
	}
	var buff bytes.Buffer
	if err := gob.NewEncoder(&buff).Encode(v); err != nil {
		return err
	}
	return m.cache.Write(key, buff.Bytes())
}

// Execute computes the value of each measurement for an experiment, loading memoised
// values where a measurement has been computed for the dataset before.
func (m MeasurementExecutor) Execute(e pipeline.Experiment, s stats.StatisticsSource, measurements ...Measurement) ([]float64, error) {
	results := make([]float64, len(measurements))
	fingerprint := persist.Fingerprint(e.Dataset)
	for i, measurement := range measurements {
		key := measurement.Name() + fingerprint
		if v, ok := m.get(key); ok {
			results[i] = v
			continue
		}
		v, err := measurement.Execute(e, s)
		if err != nil {
			return nil, errors.Wrapf(err, "could not compute %s", measurement.Name())
		}
		if err := m.set(key, v); err != nil {
			return nil, errors.Wrapf(err, "could not cache %s", measurement.Name())
		}
		results[i] = v
	}
	return results, nil
}
