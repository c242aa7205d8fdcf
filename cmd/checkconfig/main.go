package main

import (
	"fmt"
	"github.com/alexflint/go-arg"
	"github.com/go-errors/errors"
	"github.com/sepalml/sepal"
	"github.com/sepalml/sepal/config"
	"github.com/sepalml/sepal/dataset"
	"github.com/sepalml/sepal/output"
	"github.com/sepalml/sepal/validate"
	"log"
	"os"
)

var (
	name    = "checkconfig"
	version = "21.Aug.2026"
)

type args struct {
	Config  string   `help:"properties file of training parameters to check" arg:"required,positional"`
	Allow   []string `help:"rule of the form param=value,value, may be repeated" arg:"-a,separate,required"`
	Dataset string   `help:"path to a csv dataset to train on instead of the bundled iris data" arg:"-d"`
}

func (args) Version() string {
	return version
}

func (args) Description() string {
	return fmt.Sprintf(`%s
# %s`, name, version)
}

func main() {
	var args args
	arg.MustParse(&args)

	params, err := config.FromProperties(args.Config)
	if err != nil {
		panic(err)
	}

	rules := make([]validate.Validator, len(args.Allow))
	for i, rule := range args.Allow {
		r, err := validate.ParseAllowList(rule)
		if err != nil {
			panic(err)
		}
		rules[i] = r
	}

	var source dataset.Source = dataset.NewBundledIrisSource()
	if args.Dataset != "" {
		source = dataset.NewCSVSource(args.Dataset)
	}

	// The rules check the configuration the trained model resolved, not the
	// file as written.
	p := sepal.NewPipeline(source,
		sepal.Configuration(params),
		sepal.Validation(rules...))
	_, validations, err := p.Run()
	if err != nil {
		fmt.Println(errors.Wrap(err, 0).ErrorStack())
		os.Exit(1)
	}

	o, err := output.TextValidationFormatter(validations)
	if err != nil {
		panic(err)
	}
	fmt.Print(o)

	failed := 0
	for _, v := range validations {
		if !v.OK {
			failed++
		}
	}
	if failed > 0 {
		log.Printf("%d of %d checks failed", failed, len(validations))
		os.Exit(1)
	}
	log.Printf("all %d checks passed", len(validations))
}
