package analysis

import (
	"github.com/bugra/kmeans"
	"github.com/pkg/errors"
	"github.com/sepalml/sepal/pipeline"
	"github.com/sepalml/sepal/stats"
)

type clusterPurity struct{}

// ClusterPurity clusters the feature rows with k-means, using as many centroids as the dataset
// has classes, and reports the fraction of samples that fall in a cluster where their label is
// the majority. A dataset whose classes form tight, separate clusters scores close to 1.
var ClusterPurity = clusterPurity{}

func (cp clusterPurity) Name() string {
	return "ClusterPurity"
}

func (cp clusterPurity) Execute(e pipeline.Experiment, s stats.StatisticsSource) (float64, error) {
	t := e.Dataset
	if t.Len() == 0 {
		return 0.0, errors.New("cannot cluster an empty dataset")
	}
	k := len(t.Classes)
	if k < 1 {
		k = 1
	}
	labels, err := kmeans.Kmeans(t.X, k, kmeans.SquaredEuclideanDistance, 10)
	if err != nil {
		return 0.0, errors.Wrap(err, "could not cluster dataset")
	}

	counts := make([]map[int]int, k)
	for i := range counts {
		counts[i] = make(map[int]int)
	}
	for i, cluster := range labels {
		if cluster < 0 || cluster >= k || i >= len(t.Y) {
			continue
		}
		counts[cluster][t.Y[i]]++
	}

	agree := 0
	for _, c := range counts {
		best := 0
		for _, n := range c {
			if n > best {
				best = n
			}
		}
		agree += best
	}
	return float64(agree) / float64(t.Len()), nil
}
