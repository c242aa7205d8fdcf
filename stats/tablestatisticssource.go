package stats

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sepalml/sepal/dataset"
)

// TableStatisticsSource computes statistics for an in-memory table. The
// column views are built once at construction, so repeated statistics over
// the same table do not re-walk the rows.
type TableStatisticsSource struct {
	table      dataset.Table
	cols       [][]float64
	parameters map[string]float64
}

// TableStatisticsParameters sets tunable parameters attached to the source.
func TableStatisticsParameters(parameters map[string]float64) func(*TableStatisticsSource) {
	return func(s *TableStatisticsSource) {
		s.parameters = parameters
	}
}

// NewTableStatisticsSource creates a new statistics source backed by a table.
func NewTableStatisticsSource(t dataset.Table, options ...func(*TableStatisticsSource)) *TableStatisticsSource {
	s := &TableStatisticsSource{
		table:      t,
		parameters: map[string]float64{},
	}

	s.cols = make([][]float64, t.Dim())
	for j := range s.cols {
		col := make([]float64, t.Len())
		for i := range t.X {
			col[i] = t.X[i][j]
		}
		s.cols[j] = col
	}

	for _, option := range options {
		option(s)
	}
	return s
}

// Parameters gets the parameters attached to this source.
func (s *TableStatisticsSource) Parameters() map[string]float64 {
	return s.parameters
}

// SampleSize is the number of rows in the table.
func (s *TableStatisticsSource) SampleSize() (float64, error) {
	return float64(s.table.Len()), nil
}

// FeatureSize is the number of feature columns in the table.
func (s *TableStatisticsSource) FeatureSize() (float64, error) {
	return float64(s.table.Dim()), nil
}

func (s *TableStatisticsSource) column(feature int) ([]float64, error) {
	if feature < 0 || feature >= len(s.cols) {
		return nil, errors.Wrapf(ErrNoSuchFeature, "feature %d of %d", feature, len(s.cols))
	}
	if len(s.cols[feature]) == 0 {
		return nil, errors.Errorf("feature %d has no values", feature)
	}
	return s.cols[feature], nil
}

// FeatureMean is the mean value of a feature column.
func (s *TableStatisticsSource) FeatureMean(feature int) (float64, error) {
	col, err := s.column(feature)
	if err != nil {
		return 0, err
	}
	return stat.Mean(col, nil), nil
}

// FeatureStdDev is the sample standard deviation of a feature column.
func (s *TableStatisticsSource) FeatureStdDev(feature int) (float64, error) {
	col, err := s.column(feature)
	if err != nil {
		return 0, err
	}
	return stat.StdDev(col, nil), nil
}

// FeatureMin is the smallest value of a feature column.
func (s *TableStatisticsSource) FeatureMin(feature int) (float64, error) {
	col, err := s.column(feature)
	if err != nil {
		return 0, err
	}
	return floats.Min(col), nil
}

// FeatureMax is the largest value of a feature column.
func (s *TableStatisticsSource) FeatureMax(feature int) (float64, error) {
	col, err := s.column(feature)
	if err != nil {
		return 0, err
	}
	return floats.Max(col), nil
}

// Correlation is the Pearson correlation between two feature columns.
func (s *TableStatisticsSource) Correlation(i, j int) (float64, error) {
	x, err := s.column(i)
	if err != nil {
		return 0, err
	}
	y, err := s.column(j)
	if err != nil {
		return 0, err
	}
	return stat.Correlation(x, y, nil), nil
}

// ClassDistribution is the fraction of rows belonging to each class.
func (s *TableStatisticsSource) ClassDistribution() ([]float64, error) {
	n := s.table.Len()
	if n == 0 {
		return nil, errors.New("table has no rows")
	}
	dist := make([]float64, len(s.table.Classes))
	for _, y := range s.table.Y {
		if y < 0 || y >= len(dist) {
			return nil, errors.Errorf("label %d is outside the %d known classes", y, len(dist))
		}
		dist[y]++
	}
	floats.Scale(1/float64(n), dist)
	return dist, nil
}
