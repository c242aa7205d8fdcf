package output

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationResult describes the outcome of validating one parameter of one run.
type ValidationResult struct {
	Run     string
	Param   string
	Value   string
	Allowed []string
	OK      bool
	Detail  string
}

// ValidationFormatter is used in a sepal pipeline to output configuration
// validation results.
type ValidationFormatter func([]ValidationResult) (string, error)

// JsonValidationFormatter outputs validation results in a JSON format.
func JsonValidationFormatter(results []ValidationResult) (string, error) {
	v, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// TextValidationFormatter outputs one PASS or FAIL line per validation result.
func TextValidationFormatter(results []ValidationResult) (string, error) {
	var b strings.Builder
	for _, r := range results {
		if r.OK {
			fmt.Fprintf(&b, "PASS %s %s=%s\n", r.Run, r.Param, r.Value)
		} else {
			fmt.Fprintf(&b, "FAIL %s %s\n", r.Run, r.Detail)
		}
	}
	return b.String(), nil
}
