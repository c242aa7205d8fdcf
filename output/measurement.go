// Package output provides different formats of output for experiments.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
)

// MeasurementFormatter is used in a sepal pipeline to output measurements in various
// formats. The data is indexed by measurement first and run second, and each slice in
// data must have one value per run.
type MeasurementFormatter func(runs, headers []string, data [][]float64) (string, error)

// JsonMeasurementFormatter outputs results in a JSON format.
func JsonMeasurementFormatter(runs, headers []string, data [][]float64) (string, error) {
	m := map[string]map[string]float64{}
	for j, run := range runs {
		m[run] = map[string]float64{}
		for i, header := range headers {
			m[run][header] = data[i][j]
		}
	}

	v, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// CsvMeasurementFormatter outputs results in CSV format.
func CsvMeasurementFormatter(runs, headers []string, data [][]float64) (string, error) {
	b := bytes.NewBufferString("")
	w := csv.NewWriter(b)
	h := []string{"Run"}
	h = append(h, headers...)
	if err := w.Write(h); err != nil {
		return "", err
	}
	if len(data) > 0 {
		for j := range data[0] {
			record := make([]string, len(data)+1)
			record[0] = runs[j]
			for i := range data {
				record[i+1] = strconv.FormatFloat(data[i][j], 'f', -1, 64)
			}
			if err := w.Write(record); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	return b.String(), nil
}
