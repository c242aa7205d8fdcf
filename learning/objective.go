package learning

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// objective is a differentiable training objective over weight vectors. The
// full-batch solvers use Loss and Grad; the stochastic solvers use SampleGrad.
type objective interface {
	Loss(w []float64) float64
	Grad(dst, w []float64)
	SampleGrad(dst, w []float64, i int)
	Dim() int
	Samples() int
}

// softmaxObjective is the L2-regularised multinomial cross-entropy over a
// design matrix. Rows carry a trailing bias column; the bias weights are not
// regularised. Weight vectors are the k by d weight matrix flattened row by
// row.
type softmaxObjective struct {
	x  [][]float64
	y  []int
	k  int
	d  int // columns per class, bias included
	l2 float64
}

func (o softmaxObjective) Dim() int {
	return o.k * o.d
}

func (o softmaxObjective) Samples() int {
	return len(o.x)
}

// scores computes the raw class scores of row into dst.
func (o softmaxObjective) scores(dst, w, row []float64) {
	for c := 0; c < o.k; c++ {
		dst[c] = dot(w[c*o.d:(c+1)*o.d], row)
	}
}

func (o softmaxObjective) Loss(w []float64) float64 {
	n := len(o.x)
	sum := sumChunks(n, func(lo, hi int) float64 {
		z := make([]float64, o.k)
		s := 0.0
		for i := lo; i < hi; i++ {
			o.scores(z, w, o.x[i])
			s += floats.LogSumExp(z) - z[o.y[i]]
		}
		return s
	})
	return sum/float64(n) + o.penalty(w)
}

func (o softmaxObjective) Grad(dst, w []float64) {
	n := len(o.x)
	lo, hi := chunkBounds(n)
	locals := make([][]float64, len(lo))

	var g errgroup.Group
	for c := range lo {
		c := c
		locals[c] = make([]float64, len(dst))
		g.Go(func() error {
			z := make([]float64, o.k)
			for i := lo[c]; i < hi[c]; i++ {
				o.sampleGradInto(locals[c], w, i, z)
			}
			return nil
		})
	}
	// The workers never fail; Wait only synchronises them.
	_ = g.Wait()

	for i := range dst {
		dst[i] = 0
	}
	for _, local := range locals {
		floats.Add(dst, local)
	}
	floats.Scale(1/float64(n), dst)
	o.addPenaltyGrad(dst, w)
}

func (o softmaxObjective) SampleGrad(dst, w []float64, i int) {
	for j := range dst {
		dst[j] = 0
	}
	o.sampleGradInto(dst, w, i, make([]float64, o.k))
	// Include the penalty in every sample gradient so that their average
	// matches the full gradient.
	o.addPenaltyGrad(dst, w)
}

// sampleGradInto accumulates the unregularised gradient of sample i into dst.
// z is scratch space for k scores.
func (o softmaxObjective) sampleGradInto(dst, w []float64, i int, z []float64) {
	row := o.x[i]
	o.scores(z, w, row)
	lse := floats.LogSumExp(z)
	for c := 0; c < o.k; c++ {
		p := math.Exp(z[c] - lse)
		if c == o.y[i] {
			p--
		}
		base := c * o.d
		for j, v := range row {
			dst[base+j] += p * v
		}
	}
}

func (o softmaxObjective) penalty(w []float64) float64 {
	if o.l2 == 0 {
		return 0
	}
	sum := 0.0
	for c := 0; c < o.k; c++ {
		wc := w[c*o.d : (c+1)*o.d]
		// The bias is the last column and is unregularised.
		for j := 0; j < o.d-1; j++ {
			sum += wc[j] * wc[j]
		}
	}
	return 0.5 * o.l2 * sum
}

func (o softmaxObjective) addPenaltyGrad(dst, w []float64) {
	if o.l2 == 0 {
		return
	}
	for c := 0; c < o.k; c++ {
		base := c * o.d
		for j := 0; j < o.d-1; j++ {
			dst[base+j] += o.l2 * w[base+j]
		}
	}
}

// binaryObjective is the L2-regularised logistic loss of a single weight
// vector against 0/1 targets, used for the one-vs-rest strategy.
type binaryObjective struct {
	x  [][]float64
	y  []float64
	d  int
	l2 float64
}

func (o binaryObjective) Dim() int {
	return o.d
}

func (o binaryObjective) Samples() int {
	return len(o.x)
}

func (o binaryObjective) Loss(w []float64) float64 {
	n := len(o.x)
	sum := sumChunks(n, func(lo, hi int) float64 {
		s := 0.0
		for i := lo; i < hi; i++ {
			z := dot(w, o.x[i])
			s += logOnePlusExp(z) - o.y[i]*z
		}
		return s
	})
	return sum/float64(n) + o.penalty(w)
}

func (o binaryObjective) Grad(dst, w []float64) {
	n := len(o.x)
	for j := range dst {
		dst[j] = 0
	}
	for i := range o.x {
		o.sampleGradInto(dst, w, i)
	}
	floats.Scale(1/float64(n), dst)
	o.addPenaltyGrad(dst, w)
}

func (o binaryObjective) SampleGrad(dst, w []float64, i int) {
	for j := range dst {
		dst[j] = 0
	}
	o.sampleGradInto(dst, w, i)
	o.addPenaltyGrad(dst, w)
}

func (o binaryObjective) sampleGradInto(dst, w []float64, i int) {
	row := o.x[i]
	e := sigmoid(dot(w, row)) - o.y[i]
	for j, v := range row {
		dst[j] += e * v
	}
}

func (o binaryObjective) penalty(w []float64) float64 {
	if o.l2 == 0 {
		return 0
	}
	sum := 0.0
	for j := 0; j < o.d-1; j++ {
		sum += w[j] * w[j]
	}
	return 0.5 * o.l2 * sum
}

func (o binaryObjective) addPenaltyGrad(dst, w []float64) {
	if o.l2 == 0 {
		return
	}
	for j := 0; j < o.d-1; j++ {
		dst[j] += o.l2 * w[j]
	}
}

func dot(w, row []float64) float64 {
	s := 0.0
	for j, v := range row {
		s += w[j] * v
	}
	return s
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// logOnePlusExp computes log(1+exp(z)) without overflowing for large z.
func logOnePlusExp(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

// chunkBounds splits n into one index range per worker.
func chunkBounds(n int) (lo, hi []int) {
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	size := (n + workers - 1) / workers
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		lo = append(lo, start)
		hi = append(hi, end)
	}
	return lo, hi
}

// sumChunks runs f over disjoint index ranges covering n and sums the
// returned values.
func sumChunks(n int, f func(lo, hi int) float64) float64 {
	if n == 0 {
		return 0
	}
	lo, hi := chunkBounds(n)
	partial := make([]float64, len(lo))
	var g errgroup.Group
	for c := range lo {
		c := c
		g.Go(func() error {
			partial[c] = f(lo[c], hi[c])
			return nil
		})
	}
	_ = g.Wait()
	return floats.Sum(partial)
}
