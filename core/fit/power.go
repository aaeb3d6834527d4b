// Package fit fits the power-law cost scaling model
//
//	cost = A * (capacity / reference) ^ X
//
// to the members of a set. A is the reference price, X the scaling factor
// and reference the largest capacity in the set.
package fit

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"force-cost/core/determinism"
	"force-cost/core/types"
	"force-cost/internal/errors"
)

const (
	DefaultMaxIterations = 2000
	DefaultTolerance     = 1e-10

	// Decimal places kept in reports
	ScalingFactorPlaces = 5
	MAPEPlaces          = 2

	initialDamping = 1e-3
	minDamping     = 1e-12
	maxDamping     = 1e16
)

// Options controls the Levenberg-Marquardt solver
type Options struct {
	// MaxIterations bounds the number of accepted steps. Rejected trial steps
	// only raise the damping and do not count.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations" mapstructure:"max_iterations"`
	// Tolerance is the relative convergence threshold on steps and residuals
	Tolerance float64 `json:"tolerance" yaml:"tolerance" mapstructure:"tolerance"`
}

// DefaultOptions returns the solver defaults
func DefaultOptions() Options {
	return Options{MaxIterations: DefaultMaxIterations, Tolerance: DefaultTolerance}
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	return o
}

// Result is a fitted cost curve
type Result struct {
	ReferenceDriver float64
	ReferencePrice  float64

	// Exponent is the unrounded fitted X
	Exponent float64
	// ScalingFactor is Exponent rounded for reporting
	ScalingFactor float64
	// MeanAbsolutePercentageError is rounded for reporting
	MeanAbsolutePercentageError float64

	// Ratios, Predicted and PercentErrors are aligned with the inputs
	Ratios        []float64
	Predicted     []float64
	PercentErrors []float64

	SumSquaredResiduals float64
	Iterations          int
}

// Predict evaluates the fitted curve at capacity, expressed in the same unit
// as the reference driver.
func (r *Result) Predict(capacity float64) float64 {
	return r.ReferencePrice * math.Pow(capacity/r.ReferenceDriver, r.Exponent)
}

// Model converts the result into the reported cost model
func (r *Result) Model(unit string) types.FittedCostModel {
	return types.FittedCostModel{
		ReferenceDriver:             r.ReferenceDriver,
		ReferenceUnit:               unit,
		ReferencePrice:              r.ReferencePrice,
		ScalingFactor:               r.ScalingFactor,
		MeanAbsolutePercentageError: r.MeanAbsolutePercentageError,
	}
}

// PowerLaw fits cost = A * (capacity/max(capacity))^X by nonlinear least
// squares. capacity values must share one unit.
func PowerLaw(capacity, cost []float64, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if err := validate(capacity, cost); err != nil {
		return nil, err
	}

	ref := floats.Max(capacity)
	ratios := make([]float64, len(capacity))
	for i, c := range capacity {
		ratios[i] = c / ref
	}
	if err := identifiable(ratios, cost); err != nil {
		return nil, err
	}

	p := &problem{ratios: ratios, cost: cost}
	a, x := p.initialGuess()
	a, x, iterations, err := p.solve(a, x, opts)
	if err != nil {
		return nil, err
	}
	if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) || math.IsNaN(x) || math.IsInf(x, 0) {
		return nil, errors.Newf(errors.TypeCurveFit, "solver produced invalid parameters A=%g X=%g", a, x)
	}

	res := &Result{
		ReferenceDriver:     ref,
		ReferencePrice:      a,
		Exponent:            x,
		ScalingFactor:       determinism.Round(x, ScalingFactorPlaces),
		Ratios:              ratios,
		Predicted:           make([]float64, len(cost)),
		PercentErrors:       make([]float64, len(cost)),
		SumSquaredResiduals: p.ssr(a, x),
		Iterations:          iterations,
	}
	for i, obs := range cost {
		pred := p.model(a, x, i)
		res.Predicted[i] = pred
		res.PercentErrors[i] = 100 * math.Abs(obs-pred) / obs
	}
	res.MeanAbsolutePercentageError = determinism.Round(stat.Mean(res.PercentErrors, nil), MAPEPlaces)

	return res, nil
}

func validate(capacity, cost []float64) error {
	if len(capacity) == 0 {
		return errors.New(errors.TypeCurveFit, "no samples to fit")
	}
	if len(capacity) != len(cost) {
		return errors.Newf(errors.TypeCurveFit, "%d capacity values but %d cost values", len(capacity), len(cost))
	}
	for i := range capacity {
		if !positive(capacity[i]) {
			return errors.Newf(errors.TypeCurveFit, "capacity %d is not a positive number: %g", i, capacity[i])
		}
		if !positive(cost[i]) {
			return errors.Newf(errors.TypeCurveFit, "cost %d is not a positive number: %g", i, cost[i])
		}
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func identifiable(ratios, cost []float64) error {
	pairs := make(map[[2]float64]struct{}, len(ratios))
	distinct := make(map[float64]struct{}, len(ratios))
	for i, r := range ratios {
		pairs[[2]float64{r, cost[i]}] = struct{}{}
		distinct[r] = struct{}{}
	}
	if len(pairs) < 2 {
		return errors.Newf(errors.TypeCurveFit, "need at least 2 distinct (capacity, cost) samples, got %d", len(pairs))
	}
	if len(distinct) < 2 {
		return errors.New(errors.TypeCurveFit, "all samples share one capacity; the scaling factor is undetermined")
	}
	return nil
}

type problem struct {
	ratios []float64
	cost   []float64
}

func (p *problem) model(a, x float64, i int) float64 {
	return a * math.Pow(p.ratios[i], x)
}

func (p *problem) ssr(a, x float64) float64 {
	var s float64
	for i, c := range p.cost {
		r := c - p.model(a, x, i)
		s += r * r
	}
	return s
}

// initialGuess regresses ln(cost) on ln(ratio). The intercept is ln A and the
// slope is X; on noise-free data this is already the solution.
func (p *problem) initialGuess() (float64, float64) {
	lr := make([]float64, len(p.ratios))
	lc := make([]float64, len(p.cost))
	for i := range p.ratios {
		lr[i] = math.Log(p.ratios[i])
		lc[i] = math.Log(p.cost[i])
	}
	alpha, beta := stat.LinearRegression(lr, lc, nil, false)
	return math.Exp(alpha), beta
}

// solve runs Levenberg-Marquardt with Marquardt's diagonal scaling,
// solving (JᵀJ + λ·diag(JᵀJ))δ = Jᵀr at each step.
func (p *problem) solve(a, x float64, opts Options) (float64, float64, int, error) {
	n := len(p.cost)
	scale := floats.Dot(p.cost, p.cost)
	ssr := p.ssr(a, x)
	if math.Sqrt(ssr/scale) <= opts.Tolerance {
		return a, x, 0, nil
	}

	jac := mat.NewDense(n, 2, nil)
	res := mat.NewVecDense(n, nil)
	lambda := initialDamping

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		for i, r := range p.ratios {
			rx := math.Pow(r, x)
			jac.Set(i, 0, rx)
			jac.Set(i, 1, a*rx*math.Log(r))
			res.SetVec(i, p.cost[i]-a*rx)
		}
		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		var grad mat.VecDense
		grad.MulVec(jac.T(), res)

		for {
			damped := mat.DenseCopyOf(&jtj)
			for k := 0; k < 2; k++ {
				damped.Set(k, k, jtj.At(k, k)*(1+lambda))
			}

			var step mat.VecDense
			if err := step.SolveVec(damped, &grad); err == nil {
				na, nx := a+step.AtVec(0), x+step.AtVec(1)
				trial := p.ssr(na, nx)
				if !math.IsNaN(trial) && !math.IsInf(trial, 0) && trial < ssr {
					small := math.Abs(step.AtVec(0)) <= opts.Tolerance*(math.Abs(a)+opts.Tolerance) &&
						math.Abs(step.AtVec(1)) <= opts.Tolerance*(math.Abs(x)+opts.Tolerance)
					flat := ssr-trial <= opts.Tolerance*ssr

					a, x, ssr = na, nx, trial
					lambda = math.Max(lambda/10, minDamping)
					if small || flat || math.Sqrt(ssr/scale) <= opts.Tolerance {
						return a, x, iter, nil
					}
					break
				}
			}

			lambda *= 10
			if lambda > maxDamping {
				// no descent step left at working precision
				return a, x, iter, nil
			}
		}
	}

	return 0, 0, opts.MaxIterations, errors.Newf(errors.TypeCurveFit,
		"solver did not converge within %d iterations", opts.MaxIterations)
}
