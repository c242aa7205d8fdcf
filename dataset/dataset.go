// Package dataset provides sources for loading tabular datasets and
// deterministic partitioning of them.
package dataset

import (
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Table is an in-memory tabular dataset: one row of feature values and one
// integer label per sample. Labels index into Classes.
type Table struct {
	Name     string
	Features []string
	Classes  []string
	X        [][]float64
	Y        []int
}

// Len is the number of rows in the table.
func (t Table) Len() int {
	return len(t.X)
}

// Dim is the number of feature columns in the table.
func (t Table) Dim() int {
	return len(t.Features)
}

// Row returns the feature values of row i.
func (t Table) Row(i int) []float64 {
	return t.X[i]
}

// Label returns the label of row i.
func (t Table) Label(i int) int {
	return t.Y[i]
}

// Matrix copies the feature values into a dense matrix of n rows and
// Dim columns.
func (t Table) Matrix() *mat.Dense {
	n, d := t.Len(), t.Dim()
	data := make([]float64, 0, n*d)
	for _, row := range t.X {
		data = append(data, row...)
	}
	return mat.NewDense(n, d, data)
}

// Subset returns a new table containing the rows at the supplied indices, in
// the supplied order. Feature and class names are shared, row data is copied.
// An unlabelled table stays unlabelled.
func (t Table) Subset(idx []int) Table {
	s := Table{
		Name:     t.Name,
		Features: t.Features,
		Classes:  t.Classes,
		X:        make([][]float64, len(idx)),
	}
	labelled := len(t.Y) == len(t.X)
	if labelled {
		s.Y = make([]int, len(idx))
	}
	for i, j := range idx {
		row := make([]float64, len(t.X[j]))
		copy(row, t.X[j])
		s.X[i] = row
		if labelled {
			s.Y[i] = t.Y[j]
		}
	}
	return s
}

// Dedup removes rows whose feature values and label exactly duplicate an
// earlier row, preserving first occurrences and row order.
func (t Table) Dedup() Table {
	seen := make(map[string]bool, t.Len())
	labelled := len(t.Y) == len(t.X)
	var keep []int
	for i, row := range t.X {
		label := -1
		if labelled {
			label = t.Y[i]
		}
		k := rowKey(row, label)
		if seen[k] {
			continue
		}
		seen[k] = true
		keep = append(keep, i)
	}
	if len(keep) == t.Len() {
		return t
	}
	return t.Subset(keep)
}

func rowKey(row []float64, label int) string {
	var b strings.Builder
	for _, v := range row {
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		b.WriteByte(',')
	}
	b.WriteString(strconv.Itoa(label))
	return b.String()
}

// Source represents a source for datasets and how to load them.
type Source interface {
	// Name identifies the source in output and cache keys.
	Name() string
	// Load reads the source into a table.
	Load() (Table, error)
}
