package learning

import (
	"math"
	"math/rand"

	"github.com/cheggaaa/pb/v3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

type solverSettings struct {
	maxIter int
	tol     float64
	lr      float64
	seed    int64
	verbose bool
}

// minimize fits an objective with the named solver and returns the weight
// vector it arrived at.
func minimize(o objective, solver string, s solverSettings) ([]float64, error) {
	switch solver {
	case SolverLBFGS:
		return minimizeBatch(o, &optimize.LBFGS{}, s, false)
	case SolverNewtonCG:
		return minimizeBatch(o, &optimize.Newton{}, s, true)
	case SolverGradientDescent:
		return minimizeBatch(o, &optimize.GradientDescent{}, s, false)
	case SolverSAG:
		return minimizeStochastic(o, s, false)
	case SolverSAGA:
		return minimizeStochastic(o, s, true)
	}
	return nil, errors.Errorf("unsupported solver %q, supported solvers are %v", solver, Solvers())
}

func minimizeBatch(o objective, method optimize.Method, s solverSettings, hessian bool) ([]float64, error) {
	problem := optimize.Problem{
		Func: o.Loss,
		Grad: o.Grad,
	}
	if hessian {
		// The curvature of the objective is cheap enough to approximate for
		// the problem sizes this package trains on.
		problem.Hess = func(hess *mat.SymDense, x []float64) {
			fd.Hessian(hess, o.Loss, x, nil)
		}
	}

	settings := &optimize.Settings{
		MajorIterations:   s.maxIter,
		GradientThreshold: s.tol,
	}

	x0 := make([]float64, o.Dim())
	result, err := optimize.Minimize(problem, x0, settings, method)
	if err != nil {
		return nil, errors.Wrap(err, "minimisation failed")
	}
	return result.X, nil
}

// minimizeStochastic implements stochastic average gradient descent. Gradient
// memory starts at zero for every sample, the running sum is maintained
// incrementally, and the sampling order is fully determined by the seed. With
// saga set, steps use the unbiased update instead of the plain average.
func minimizeStochastic(o objective, s solverSettings, saga bool) ([]float64, error) {
	n := o.Samples()
	if n == 0 {
		return nil, errors.New("no samples to fit")
	}
	dim := o.Dim()
	nf := float64(n)

	w := make([]float64, dim)
	g := make([]float64, dim)
	sum := make([]float64, dim)
	avg := make([]float64, dim)
	memory := make([][]float64, n)
	for i := range memory {
		memory[i] = make([]float64, dim)
	}

	rng := rand.New(rand.NewSource(s.seed))

	var bar *pb.ProgressBar
	if s.verbose {
		bar = pb.StartNew(s.maxIter)
	}

	for epoch := 0; epoch < s.maxIter; epoch++ {
		for t := 0; t < n; t++ {
			i := rng.Intn(n)
			o.SampleGrad(g, w, i)
			old := memory[i]

			if saga {
				for j := range w {
					w[j] -= s.lr * (g[j] - old[j] + sum[j]/nf)
				}
			}
			for j := range sum {
				sum[j] += g[j] - old[j]
			}
			copy(old, g)
			if !saga {
				for j := range w {
					w[j] -= s.lr * sum[j] / nf
				}
			}
		}

		if bar != nil {
			bar.Increment()
		}

		copy(avg, sum)
		floats.Scale(1/nf, avg)
		if floats.Norm(avg, math.Inf(1)) < s.tol {
			break
		}
	}

	if bar != nil {
		bar.Finish()
	}
	return w, nil
}
