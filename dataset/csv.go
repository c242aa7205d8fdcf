package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CSVSource is a source for datasets in CSV files. Each record contains the
// feature values followed by one trailing label column. Labels are strings
// and become class indices in first-appearance order.
type CSVSource struct {
	path      string
	delimiter rune
	header    bool
}

// CSVDelimiter sets the field delimiter, for tab or semicolon separated files.
func CSVDelimiter(r rune) func(*CSVSource) {
	return func(s *CSVSource) {
		s.delimiter = r
	}
}

// CSVNoHeader marks the file as having no header record, in which case
// feature names are generated.
func CSVNoHeader() func(*CSVSource) {
	return func(s *CSVSource) {
		s.header = false
	}
}

// NewCSVSource creates a new CSV dataset source for the file at path.
func NewCSVSource(path string, options ...func(*CSVSource)) CSVSource {
	s := CSVSource{
		path:      path,
		delimiter: ',',
		header:    true,
	}
	for _, option := range options {
		option(&s)
	}
	return s
}

// Name is the base name of the file without its extension.
func (s CSVSource) Name() string {
	base := filepath.Base(s.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads and parses the file into a table.
func (s CSVSource) Load() (Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return Table{}, errors.Wrapf(err, "could not open dataset %s", s.path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = s.delimiter
	records, err := r.ReadAll()
	if err != nil {
		return Table{}, errors.Wrapf(err, "could not parse dataset %s", s.path)
	}
	if len(records) == 0 {
		return Table{}, errors.Errorf("dataset %s is empty", s.path)
	}

	t := Table{Name: s.Name()}
	line := 1
	if s.header {
		head := records[0]
		if len(head) < 2 {
			return Table{}, errors.Errorf("dataset %s needs at least one feature column and a label column", s.path)
		}
		t.Features = append(t.Features, head[:len(head)-1]...)
		records = records[1:]
		line++
	} else if len(records[0]) >= 2 {
		for i := 0; i < len(records[0])-1; i++ {
			t.Features = append(t.Features, fmt.Sprintf("f%d", i))
		}
	}

	classes := make(map[string]int)
	for _, record := range records {
		if len(record) != len(t.Features)+1 {
			return Table{}, errors.Errorf("%s:%d: record has %d fields, want %d", s.path, line, len(record), len(t.Features)+1)
		}
		row := make([]float64, len(t.Features))
		for i := range row {
			row[i], err = strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				return Table{}, errors.Wrapf(err, "%s:%d: feature %s is not numeric", s.path, line, t.Features[i])
			}
		}
		label := strings.TrimSpace(record[len(record)-1])
		class, ok := classes[label]
		if !ok {
			class = len(t.Classes)
			classes[label] = class
			t.Classes = append(t.Classes, label)
		}
		t.X = append(t.X, row)
		t.Y = append(t.Y, class)
		line++
	}
	return t, nil
}
