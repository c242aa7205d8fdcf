package main

import (
	"fmt"
	"github.com/alexflint/go-arg"
	"github.com/go-errors/errors"
	"github.com/sepalml/sepal"
	"github.com/sepalml/sepal/analysis"
	"github.com/sepalml/sepal/config"
	"github.com/sepalml/sepal/dataset"
	"github.com/sepalml/sepal/eval"
	"github.com/sepalml/sepal/output"
	"github.com/sepalml/sepal/pipeline"
	"github.com/sepalml/sepal/preprocess"
	"github.com/sepalml/sepal/tuning"
	"github.com/sepalml/sepal/validate"
	"os"
)

var (
	name    = "sepal"
	version = "21.Aug.2026"
)

type args struct {
	Dataset string   `help:"path to a csv dataset to load instead of the bundled iris data" arg:"-d"`
	Config  string   `help:"path to a properties file of training parameters" arg:"-c"`
	Allow   []string `help:"rule of the form param=value,value the trained configuration must satisfy" arg:"-a,separate"`
	Tune    []string `help:"grid axis of the form param=value,value to search before training" arg:"-t,separate"`
	Scale   bool     `help:"standardise features before training" arg:"-s"`
	Measure bool     `help:"compute dataset measurements" arg:"-m"`
	Csv     bool     `help:"format output as csv instead of json"`
	Verbose bool     `help:"log additional progress detail" arg:"-v"`
}

func (args) Version() string {
	return version
}

func (args) Description() string {
	return fmt.Sprintf(`%s
# %s`, name, version)
}

func measurementFormatter(csv bool) output.MeasurementFormatter {
	if csv {
		return output.CsvMeasurementFormatter
	}
	return output.JsonMeasurementFormatter
}

func main() {
	var args args
	arg.MustParse(&args)

	var source dataset.Source = dataset.NewBundledIrisSource()
	if args.Dataset != "" {
		source = dataset.NewCSVSource(args.Dataset)
	}

	components := []func() interface{}{
		sepal.Evaluation(eval.Accuracy, eval.MacroPrecision, eval.MacroRecall, eval.F1Measure),
		sepal.Verbose(args.Verbose),
	}

	if args.Config != "" {
		params, err := config.FromProperties(args.Config)
		if err != nil {
			panic(err)
		}
		components = append(components, sepal.Configuration(params))
	}

	if args.Scale {
		components = append(components, sepal.Preprocess(preprocess.NewStandardScaler()))
	}

	if args.Measure {
		components = append(components,
			sepal.Measurement(
				analysis.SampleCount,
				analysis.FeatureCount,
				analysis.ClassBalance,
				analysis.MeanFeatureVariance,
				analysis.MaxAbsCorrelation,
				analysis.ClusterPurity,
			),
			sepal.MeasurementOutput(measurementFormatter(args.Csv)))
	}

	if args.Csv {
		components = append(components, sepal.EvaluationOutput(output.CsvEvaluationFormatter))
	}

	if len(args.Allow) > 0 {
		rules := make([]validate.Validator, len(args.Allow))
		for i, rule := range args.Allow {
			r, err := validate.ParseAllowList(rule)
			if err != nil {
				panic(err)
			}
			rules[i] = r
		}
		components = append(components, sepal.Validation(rules...))
	}

	if len(args.Tune) > 0 {
		// Grid axes share the rule syntax.
		grid := make(tuning.Grid)
		for _, axis := range args.Tune {
			r, err := validate.ParseAllowList(axis)
			if err != nil {
				panic(err)
			}
			values := make([]interface{}, 0, len(r.Values()))
			for _, v := range r.Values() {
				values = append(values, config.FromStringMap(map[string]string{r.Param(): v})[r.Param()])
			}
			grid[r.Param()] = values
		}
		components = append(components, sepal.Tuner(tuning.NewSearch(tuning.SearchVerbose(args.Verbose)), grid))
	}

	p := sepal.NewPipeline(source, components...)

	pipelineChannel := make(chan pipeline.Result)
	go p.Execute(pipelineChannel)
	for {
		result := <-pipelineChannel
		if result.Type == pipeline.Done {
			break
		}
		switch result.Type {
		case pipeline.Measurement:
			for _, o := range result.Measurement {
				fmt.Println(o)
			}
		case pipeline.Evaluation:
			for _, o := range result.Evaluation {
				fmt.Println(o)
			}
		case pipeline.Validation:
			for _, o := range result.Validation {
				fmt.Println(o)
			}
		case pipeline.Error:
			fmt.Println(errors.Wrap(result.Error, 0).ErrorStack())
			os.Exit(1)
		}
	}
}
