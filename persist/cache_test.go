package persist

import (
	"testing"

	"github.com/peterbourgon/diskv"
	"github.com/sepalml/sepal/config"
	"github.com/sepalml/sepal/dataset"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Name:     "logistic_regression",
		Weights:  [][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}},
		Classes:  []string{"setosa", "versicolor"},
		Features: []string{"sepal_length", "sepal_width"},
		Strategy: "multinomial",
		Params:   config.Default().StringMap(),
	}
}

func assertRoundTrip(t *testing.T, cache ModelCache) {
	t.Helper()
	want := testSnapshot()
	if err := cache.Set("k", want); err != nil {
		t.Fatal(err)
	}
	got, err := cache.Get("k")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != want.Name || got.Strategy != want.Strategy {
		t.Fatalf("got %v, want %v", got, want)
	}
	if len(got.Weights) != len(want.Weights) {
		t.Fatalf("got %d weight rows, want %d", len(got.Weights), len(want.Weights))
	}
	for i := range want.Weights {
		for j := range want.Weights[i] {
			if got.Weights[i][j] != want.Weights[i][j] {
				t.Fatalf("weight (%d,%d) got %v, want %v", i, j, got.Weights[i][j], want.Weights[i][j])
			}
		}
	}
	if got.Params["solver"] != want.Params["solver"] {
		t.Fatalf("got solver %q, want %q", got.Params["solver"], want.Params["solver"])
	}
	if _, err := cache.Get("missing"); err != ErrCacheMiss {
		t.Fatalf("got %v, want %v", err, ErrCacheMiss)
	}
}

func TestMapModelCache(t *testing.T) {
	assertRoundTrip(t, NewMapModelCache())
}

func TestMemoryModelCache(t *testing.T) {
	cache, err := NewMemoryModelCache(16)
	if err != nil {
		t.Fatal(err)
	}
	assertRoundTrip(t, cache)
}

func TestMemoryModelCacheEvicts(t *testing.T) {
	cache, err := NewMemoryModelCache(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.Set("a", testSnapshot()); err != nil {
		t.Fatal(err)
	}
	if err := cache.Set("b", testSnapshot()); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Get("a"); err != ErrCacheMiss {
		t.Fatalf("got %v, want %v", err, ErrCacheMiss)
	}
	if _, err := cache.Get("b"); err != nil {
		t.Fatal(err)
	}
}

func TestDiskvModelCache(t *testing.T) {
	cache := NewDiskvModelCache(diskv.New(diskv.Options{
		BasePath:     t.TempDir(),
		Transform:    BlockTransform(8),
		CacheSizeMax: 4096 * 1024,
	}))
	assertRoundTrip(t, cache)
}

func TestHashKey(t *testing.T) {
	table, err := dataset.NewBundledIrisSource().Load()
	if err != nil {
		t.Fatal(err)
	}
	fp := Fingerprint(table)

	a := HashKey("logistic_regression", config.Default(), fp)
	b := HashKey("logistic_regression", config.Default(), fp)
	if a != b {
		t.Fatalf("got %q and %q for identical inputs", a, b)
	}

	p := config.Default()
	p[config.Solver] = "sag"
	c := HashKey("logistic_regression", p, fp)
	if a == c {
		t.Fatal("different parameters must produce different keys")
	}

	d := HashKey("nearest_neighbour", config.Default(), fp)
	if a == d {
		t.Fatal("different models must produce different keys")
	}
}

func TestFingerprint(t *testing.T) {
	table, err := dataset.NewBundledIrisSource().Load()
	if err != nil {
		t.Fatal(err)
	}
	if Fingerprint(table) != Fingerprint(table) {
		t.Fatal("fingerprint must be stable")
	}
	other := table.Subset([]int{0, 1, 2})
	if Fingerprint(table) == Fingerprint(other) {
		t.Fatal("different tables must produce different fingerprints")
	}
}
