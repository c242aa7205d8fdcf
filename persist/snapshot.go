package persist

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"

	"github.com/sepalml/sepal/config"
	"github.com/sepalml/sepal/dataset"
)

// Snapshot is the serialisable state of a fitted model. Parameters are
// stored as strings so snapshots can be gob encoded without registering
// every possible parameter type.
type Snapshot struct {
	Name     string
	Weights  [][]float64
	Classes  []string
	Features []string
	Strategy string
	Params   map[string]string
}

// Fingerprint computes a stable identifier for a table from its shape and
// contents. Two tables with the same rows in the same order share a
// fingerprint.
func Fingerprint(t dataset.Table) string {
	h := sha256.New()
	h.Write([]byte(t.Name))
	h.Write([]byte(strconv.Itoa(t.Len())))
	h.Write([]byte(strconv.Itoa(t.Dim())))
	for i, row := range t.X {
		for _, v := range row {
			h.Write([]byte(strconv.FormatFloat(v, 'g', -1, 64)))
		}
		if i < len(t.Y) {
			h.Write([]byte(strconv.Itoa(t.Y[i])))
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// HashKey computes the cache key for a model fit on the data identified by
// fingerprint with the given parameters.
func HashKey(name string, p config.Params, fingerprint string) string {
	m := p.StringMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(name))
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte(m[k]))
	}
	h.Write([]byte(fingerprint))
	return fmt.Sprintf("%x", h.Sum(nil))
}
