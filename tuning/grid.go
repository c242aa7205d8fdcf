// Package tuning provides grid search over model configurations.
package tuning

import (
	"sort"

	"github.com/sepalml/sepal/config"
)

// Grid maps a parameter name to the values a search should try for it.
type Grid map[string][]interface{}

// Candidates expands a grid into one parameter set per combination of grid values,
// overlaid on the base parameters. Parameters are expanded in sorted name order so
// the result is deterministic. An empty grid yields a single candidate, a copy of
// the base parameters.
func Candidates(base config.Params, g Grid) []config.Params {
	keys := make([]string, 0, len(g))
	for k := range g {
		if len(g[k]) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	candidates := []config.Params{base.Copy()}
	for _, k := range keys {
		next := make([]config.Params, 0, len(candidates)*len(g[k]))
		for _, c := range candidates {
			for _, v := range g[k] {
				p := c.Copy()
				p[k] = v
				next = append(next, p)
			}
		}
		candidates = next
	}
	return candidates
}
