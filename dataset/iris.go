package dataset

// BundledIrisSource is a source for the iris dataset bundled with this
// package. Loading involves no I/O and no randomness, so every call returns
// an identical table.
type BundledIrisSource struct{}

// NewBundledIrisSource creates a new source for the bundled iris dataset.
func NewBundledIrisSource() BundledIrisSource {
	return BundledIrisSource{}
}

// Name is iris.
func (BundledIrisSource) Name() string {
	return "iris"
}

// Load copies the bundled measurements into a fresh table.
func (s BundledIrisSource) Load() (Table, error) {
	t := Table{
		Name:     s.Name(),
		Features: []string{"sepal_length", "sepal_width", "petal_length", "petal_width"},
		Classes:  []string{"setosa", "versicolor", "virginica"},
		X:        make([][]float64, len(irisRows)),
		Y:        make([]int, len(irisRows)),
	}
	for i, row := range irisRows {
		x := make([]float64, 4)
		copy(x, row[:4])
		t.X[i] = x
		t.Y[i] = int(row[4])
	}
	return t, nil
}
