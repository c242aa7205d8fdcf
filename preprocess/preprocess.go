// Package preprocess handles transformation of feature values ahead of
// training.
package preprocess

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/sepalml/sepal/dataset"
)

// ErrNotFitted is returned when a transformer is applied before being fitted.
var ErrNotFitted = errors.New("transformer has not been fitted")

// Transformer rescales or otherwise maps tables of feature values. Fit
// learns the transformation from a table, Apply maps a table through it.
type Transformer interface {
	Name() string
	Fit(t dataset.Table) error
	Apply(t dataset.Table) (dataset.Table, error)
}

// StandardScaler rescales every feature column to zero mean and unit
// variance.
type StandardScaler struct {
	means []float64
	scale []float64
}

// NewStandardScaler creates a new unfitted standard scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Name is StandardScaler.
func (s *StandardScaler) Name() string {
	return "StandardScaler"
}

// Fit learns the per-column means and standard deviations.
func (s *StandardScaler) Fit(t dataset.Table) error {
	if t.Len() == 0 {
		return errors.New("cannot fit a scaler to an empty table")
	}
	s.means = make([]float64, t.Dim())
	s.scale = make([]float64, t.Dim())
	col := make([]float64, t.Len())
	for j := 0; j < t.Dim(); j++ {
		for i := range t.X {
			col[i] = t.X[i][j]
		}
		s.means[j] = stat.Mean(col, nil)
		s.scale[j] = stat.StdDev(col, nil)
		if s.scale[j] == 0 {
			// A constant column maps to zero rather than dividing by zero.
			s.scale[j] = 1
		}
	}
	return nil
}

// Apply maps a table through the fitted scaling.
func (s *StandardScaler) Apply(t dataset.Table) (dataset.Table, error) {
	if s.means == nil {
		return dataset.Table{}, ErrNotFitted
	}
	if t.Dim() != len(s.means) {
		return dataset.Table{}, errors.Errorf("table has %d features, scaler was fitted on %d", t.Dim(), len(s.means))
	}
	out := t.Subset(identity(t.Len()))
	for _, row := range out.X {
		for j := range row {
			row[j] = (row[j] - s.means[j]) / s.scale[j]
		}
	}
	return out, nil
}

// MinMaxScaler rescales every feature column into [0,1].
type MinMaxScaler struct {
	min   []float64
	scale []float64
}

// NewMinMaxScaler creates a new unfitted min-max scaler.
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{}
}

// Name is MinMaxScaler.
func (s *MinMaxScaler) Name() string {
	return "MinMaxScaler"
}

// Fit learns the per-column minimum and range.
func (s *MinMaxScaler) Fit(t dataset.Table) error {
	if t.Len() == 0 {
		return errors.New("cannot fit a scaler to an empty table")
	}
	s.min = make([]float64, t.Dim())
	s.scale = make([]float64, t.Dim())
	for j := 0; j < t.Dim(); j++ {
		min, max := t.X[0][j], t.X[0][j]
		for _, row := range t.X {
			if row[j] < min {
				min = row[j]
			}
			if row[j] > max {
				max = row[j]
			}
		}
		s.min[j] = min
		if max == min {
			s.scale[j] = 1
		} else {
			s.scale[j] = max - min
		}
	}
	return nil
}

// Apply maps a table through the fitted scaling.
func (s *MinMaxScaler) Apply(t dataset.Table) (dataset.Table, error) {
	if s.min == nil {
		return dataset.Table{}, ErrNotFitted
	}
	if t.Dim() != len(s.min) {
		return dataset.Table{}, errors.Errorf("table has %d features, scaler was fitted on %d", t.Dim(), len(s.min))
	}
	out := t.Subset(identity(t.Len()))
	for _, row := range out.X {
		for j := range row {
			row[j] = (row[j] - s.min[j]) / s.scale[j]
		}
	}
	return out, nil
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
