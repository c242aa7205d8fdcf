package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"sort"
	"strconv"
)

// EvaluationFormatter is used in a sepal pipeline to output evaluation results. The
// outer map is keyed by run name and the inner map by evaluator name.
type EvaluationFormatter func(map[string]map[string]float64) (string, error)

// JsonEvaluationFormatter outputs results in a JSON format.
func JsonEvaluationFormatter(results map[string]map[string]float64) (string, error) {
	v, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// CsvEvaluationFormatter outputs results in CSV format with one row per run and
// evaluator pair, ordered by run then evaluator.
func CsvEvaluationFormatter(results map[string]map[string]float64) (string, error) {
	b := bytes.NewBufferString("")
	w := csv.NewWriter(b)
	if err := w.Write([]string{"Run", "Evaluator", "Score"}); err != nil {
		return "", err
	}

	runs := make([]string, 0, len(results))
	for run := range results {
		runs = append(runs, run)
	}
	sort.Strings(runs)

	for _, run := range runs {
		evaluators := make([]string, 0, len(results[run]))
		for evaluator := range results[run] {
			evaluators = append(evaluators, evaluator)
		}
		sort.Strings(evaluators)
		for _, evaluator := range evaluators {
			record := []string{run, evaluator, strconv.FormatFloat(results[run][evaluator], 'f', -1, 64)}
			if err := w.Write(record); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	return b.String(), nil
}
