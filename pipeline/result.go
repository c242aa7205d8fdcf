package pipeline

// ResultType is the type of result being returned through a pipeline channel.
type ResultType uint8

const (
	// Measurement is a value computed about the dataset of an experiment.
	Measurement ResultType = iota
	// Evaluation is an evaluation result for a trained model.
	Evaluation
	// Validation is the outcome of validating a resolved configuration.
	Validation
	// Error indicates an error was raised.
	Error
	// Done indicates the pipeline has completed.
	Done
)

// Result is the output of a sepal pipeline. Measurement, Evaluation and
// Validation hold formatted output, one element per configured formatter.
type Result struct {
	Name        string
	Measurement []string
	Evaluation  []string
	Validation  []string
	Type        ResultType
	Error       error
}
