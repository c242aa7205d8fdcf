package tuning

import (
	"context"
	"runtime"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sepalml/sepal/config"
	"github.com/sepalml/sepal/dataset"
	"github.com/sepalml/sepal/eval"
	"github.com/sepalml/sepal/learning"
)

// Trial is the outcome of fitting and scoring one candidate parameter set.
type Trial struct {
	ID     string
	Params config.Params
	Score  float64
	Err    error
}

// Search fits a fresh model for every candidate parameter set and scores it on
// held-out data. Trials run concurrently.
type Search struct {
	model       func() learning.Estimator
	objective   eval.Evaluator
	concurrency int
	verbose     bool
}

// SearchModel sets the constructor used to create a model for each trial.
func SearchModel(model func() learning.Estimator) func(*Search) {
	return func(s *Search) {
		s.model = model
	}
}

// SearchObjective sets the evaluator that scores each trial.
func SearchObjective(objective eval.Evaluator) func(*Search) {
	return func(s *Search) {
		s.objective = objective
	}
}

// SearchConcurrency sets how many trials may run at once.
func SearchConcurrency(n int) func(*Search) {
	return func(s *Search) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// SearchVerbose makes the search display a progress bar.
func SearchVerbose(verbose bool) func(*Search) {
	return func(s *Search) {
		s.verbose = verbose
	}
}

// NewSearch creates a grid search. By default trials fit logistic regression,
// score with accuracy and run with one trial per CPU.
func NewSearch(options ...func(*Search)) Search {
	s := Search{
		model:       func() learning.Estimator { return learning.NewLogisticRegression() },
		objective:   eval.Accuracy,
		concurrency: runtime.NumCPU(),
	}
	for _, option := range options {
		option(&s)
	}
	return s
}

// Objective returns the evaluator trials are scored with.
func (s Search) Objective() eval.Evaluator {
	return s.objective
}

// Run fits one trial per candidate in the grid, training on the train partition
// and scoring on the test partition. A trial that fails records its error and
// does not stop the remaining trials. Trials are returned in candidate order.
func (s Search) Run(ctx context.Context, part dataset.Partition, base config.Params, grid Grid) ([]Trial, error) {
	candidates := Candidates(base, grid)
	trials := make([]Trial, len(candidates))

	var bar *pb.ProgressBar
	if s.verbose {
		bar = pb.StartNew(len(candidates))
	}

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan int)

	g.Go(func() error {
		defer close(jobs)
		for i := range candidates {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case jobs <- i:
			}
		}
		return nil
	})

	for w := 0; w < s.concurrency; w++ {
		g.Go(func() error {
			for i := range jobs {
				trials[i] = s.trial(candidates[i], part)
				if bar != nil {
					bar.Increment()
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if bar != nil {
		bar.Finish()
	}
	return trials, nil
}

func (s Search) trial(p config.Params, part dataset.Partition) Trial {
	t := Trial{ID: uuid.New().String(), Params: p}
	model := s.model()
	if err := model.Fit(part.Train, p); err != nil {
		t.Err = errors.Wrap(err, "could not fit trial model")
		return t
	}
	predicted, err := model.Predict(part.Test.X)
	if err != nil {
		t.Err = errors.Wrap(err, "could not predict with trial model")
		return t
	}
	t.Score = s.objective.Score(&eval.Results{
		Predicted: predicted,
		Truth:     part.Test.Y,
		Classes:   len(part.Test.Classes),
	})
	return t
}

// Best returns the successful trial with the highest score. Ties keep the
// earliest trial.
func Best(trials []Trial) (Trial, error) {
	best := -1
	for i, t := range trials {
		if t.Err != nil {
			continue
		}
		if best < 0 || t.Score > trials[best].Score {
			best = i
		}
	}
	if best < 0 {
		return Trial{}, errors.New("no trial completed successfully")
	}
	return trials[best], nil
}
