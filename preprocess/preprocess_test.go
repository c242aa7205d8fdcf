package preprocess

import (
	"math"
	"testing"

	"github.com/sepalml/sepal/dataset"
)

func scalerTable() dataset.Table {
	return dataset.Table{
		Features: []string{"a", "b"},
		Classes:  []string{"x", "y"},
		X: [][]float64{
			{1, 5},
			{2, 5},
			{3, 5},
		},
		Y: []int{0, 0, 1},
	}
}

func TestStandardScaler(t *testing.T) {
	table := scalerTable()
	s := NewStandardScaler()
	if err := s.Fit(table); err != nil {
		t.Fatal(err)
	}
	out, err := s.Apply(table)
	if err != nil {
		t.Fatal(err)
	}

	// The scaled column has zero mean.
	sum := 0.0
	for _, row := range out.X {
		sum += row[0]
	}
	if math.Abs(sum) > 1e-12 {
		t.Errorf("scaled column sums to %v, want 0", sum)
	}
	// A constant column maps to zero.
	for i, row := range out.X {
		if row[1] != 0 {
			t.Errorf("row %d: constant column scaled to %v, want 0", i, row[1])
		}
	}
	// The input table is left untouched.
	if table.X[0][0] != 1 {
		t.Error("apply modified the input table")
	}
}

func TestMinMaxScaler(t *testing.T) {
	table := scalerTable()
	s := NewMinMaxScaler()
	if err := s.Fit(table); err != nil {
		t.Fatal(err)
	}
	out, err := s.Apply(table)
	if err != nil {
		t.Fatal(err)
	}

	if out.X[0][0] != 0 || out.X[2][0] != 1 {
		t.Errorf("got endpoints %v and %v, want 0 and 1", out.X[0][0], out.X[2][0])
	}
	if out.X[1][0] != 0.5 {
		t.Errorf("got midpoint %v, want 0.5", out.X[1][0])
	}
}

func TestApplyBeforeFit(t *testing.T) {
	if _, err := NewStandardScaler().Apply(scalerTable()); err != ErrNotFitted {
		t.Errorf("got %v, want ErrNotFitted", err)
	}
	if _, err := NewMinMaxScaler().Apply(scalerTable()); err != ErrNotFitted {
		t.Errorf("got %v, want ErrNotFitted", err)
	}
}

func TestApplyDimensionMismatch(t *testing.T) {
	s := NewStandardScaler()
	if err := s.Fit(scalerTable()); err != nil {
		t.Fatal(err)
	}
	narrow := dataset.Table{Features: []string{"a"}, X: [][]float64{{1}}, Y: []int{0}}
	if _, err := s.Apply(narrow); err == nil {
		t.Error("expected an error for a feature count mismatch")
	}
}
