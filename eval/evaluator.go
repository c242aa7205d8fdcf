// Package eval provides evaluation measures for classification results.
package eval

// Results holds the predictions a model made for a labelled set of rows.
// Classes is the number of classes in the problem; when zero it is derived
// from the largest label seen.
type Results struct {
	Predicted []int
	Truth     []int
	Classes   int
}

// NumClasses is the number of classes the results range over.
func (r *Results) NumClasses() int {
	if r.Classes > 0 {
		return r.Classes
	}
	max := 0
	for _, y := range r.Truth {
		if y+1 > max {
			max = y + 1
		}
	}
	for _, y := range r.Predicted {
		if y+1 > max {
			max = y + 1
		}
	}
	return max
}

// Evaluator is an interface for evaluating predictions against true labels.
type Evaluator interface {
	Score(results *Results) float64
	Name() string
}

// Evaluate scores results using the supplied evaluation measures.
func Evaluate(evaluators []Evaluator, results *Results) map[string]float64 {
	scores := make(map[string]float64, len(evaluators))
	for _, evaluator := range evaluators {
		scores[evaluator.Name()] = evaluator.Score(results)
	}
	return scores
}

// ConfusionMatrix counts predictions by true class and predicted class.
// Rows are the true classes, columns the predicted ones.
func ConfusionMatrix(results *Results) [][]float64 {
	k := results.NumClasses()
	m := make([][]float64, k)
	for i := range m {
		m[i] = make([]float64, k)
	}
	for i, truth := range results.Truth {
		pred := results.Predicted[i]
		if truth >= 0 && truth < k && pred >= 0 && pred < k {
			m[truth][pred]++
		}
	}
	return m
}
