package tuning

import (
	"context"
	"testing"

	"github.com/sepalml/sepal/config"
	"github.com/sepalml/sepal/dataset"
	"github.com/sepalml/sepal/eval"
)

func blobsPartition() dataset.Partition {
	table := dataset.Table{
		Name:     "blobs",
		Features: []string{"x", "y"},
		Classes:  []string{"left", "right"},
		X: [][]float64{
			{0.0, 0.1}, {0.2, 0.0}, {-0.1, 0.2}, {0.1, -0.2}, {0.0, 0.0},
			{10.0, 10.1}, {10.2, 9.9}, {9.8, 10.0}, {10.1, 10.2}, {10.0, 9.8},
		},
		Y: []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1},
	}
	return dataset.Partition{
		Train: table.Subset([]int{0, 1, 2, 3, 5, 6, 7, 8}),
		Test:  table.Subset([]int{4, 9}),
	}
}

func TestCandidates(t *testing.T) {
	base := config.Default()
	grid := Grid{
		config.Solver: {"lbfgs", "newton-cg"},
		config.Reg:    {0.5, 1.0},
	}

	candidates := Candidates(base, grid)
	if len(candidates) != 4 {
		t.Fatalf("got %d candidates, want 4", len(candidates))
	}
	// Sorted key order expands reg before solver.
	first, last := candidates[0], candidates[3]
	if first.GetFloat64(config.Reg, 0) != 0.5 || first.GetString(config.Solver, "") != "lbfgs" {
		t.Fatalf("got first candidate %v", first)
	}
	if last.GetFloat64(config.Reg, 0) != 1.0 || last.GetString(config.Solver, "") != "newton-cg" {
		t.Fatalf("got last candidate %v", last)
	}
	if base.GetString(config.Solver, "") != "lbfgs" {
		t.Fatal("base parameters must not be modified")
	}
}

func TestCandidatesEmptyGrid(t *testing.T) {
	candidates := Candidates(config.Default(), Grid{})
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	candidates[0][config.Solver] = "sag"
	if config.Default().GetString(config.Solver, "") != "lbfgs" {
		t.Fatal("candidates must be copies")
	}
}

func TestSearchRun(t *testing.T) {
	search := NewSearch(SearchConcurrency(2))
	trials, err := search.Run(context.Background(), blobsPartition(), config.Default(), Grid{
		config.Solver: {"lbfgs", "newton-cg"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(trials) != 2 {
		t.Fatalf("got %d trials, want 2", len(trials))
	}
	seen := map[string]bool{}
	for _, trial := range trials {
		if trial.Err != nil {
			t.Fatal(trial.Err)
		}
		if trial.ID == "" || seen[trial.ID] {
			t.Fatalf("trial IDs must be unique, got %q", trial.ID)
		}
		seen[trial.ID] = true
		if trial.Score != 1.0 {
			t.Fatalf("got score %v on separable data, want 1.0", trial.Score)
		}
	}
	if trials[0].Params.GetString(config.Solver, "") != "lbfgs" {
		t.Fatalf("trials must keep candidate order, got %v", trials[0].Params)
	}
}

func TestSearchRunRecordsTrialErrors(t *testing.T) {
	search := NewSearch(SearchObjective(eval.Accuracy))
	trials, err := search.Run(context.Background(), blobsPartition(), config.Default(), Grid{
		config.Solver: {"bogus"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(trials) != 1 {
		t.Fatalf("got %d trials, want 1", len(trials))
	}
	if trials[0].Err == nil {
		t.Fatal("expected the trial to record its error")
	}
	if _, err := Best(trials); err == nil {
		t.Fatal("expected no best trial when every trial failed")
	}
}

func TestBest(t *testing.T) {
	trials := []Trial{
		{ID: "a", Score: 0.5},
		{ID: "b", Score: 0.9},
		{ID: "c", Score: 0.9},
		{ID: "d", Err: context.Canceled, Score: 1.0},
	}
	best, err := Best(trials)
	if err != nil {
		t.Fatal(err)
	}
	if best.ID != "b" {
		t.Fatalf("got %q, want the earliest highest scoring trial b", best.ID)
	}
}
