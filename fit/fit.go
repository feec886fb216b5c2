// Package fit estimates Michaelis-Menten binding parameters from a
// dose-response series.
package fit

import (
	"fmt"
	"math"

	"github.com/maorshutman/lm"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

const (
	// Missing replaces NaN concentrations and responses before fitting.
	Missing = 1e-9

	// Iterations caps the Levenberg-Marquardt solver.
	Iterations = 1000

	// Places is the rounding applied to reported parameters.
	Places = 2
)

// Result holds the fitted parameters. An unsuccessful fit is reported as
// Km = Vmax = +Inf rather than as an error.
type Result struct {
	Km       float64
	Vmax     float64
	RSquared float64
}

// Converged reports whether the fit produced finite parameters.
func (r Result) Converged() bool {
	return !math.IsInf(r.Km, 0) && !math.IsInf(r.Vmax, 0)
}

// Rounded returns r with every field rounded to Places decimal places.
// Non-finite values pass through unchanged.
func (r Result) Rounded() Result {
	return Result{
		Km:       round(r.Km),
		Vmax:     round(r.Vmax),
		RSquared: round(r.RSquared),
	}
}

func (r Result) String() string {
	return fmt.Sprintf("km=%v vmax=%v rsq=%v", r.Km, r.Vmax, r.RSquared)
}

func round(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	out, err := stats.Round(x, Places)
	if err != nil {
		return x
	}
	return out
}

// MichaelisMenten is the saturating binding model v = c*Vmax / (Km + c).
func MichaelisMenten(c, km, vmax float64) float64 {
	return (vmax * c) / (km + c)
}

// Fit fits MichaelisMenten to concentrations x and responses y by bounded
// least squares, with Km in [0, 2*max(x)] and Vmax in [0, 2*max(y)]. R² is
// always computed and may be NaN.
func Fit(x, y []float64) Result {
	x = replaceNaN(x)
	y = replaceNaN(y)

	km, vmax := solve(x, y)

	yhat := make([]float64, len(x))
	for i, c := range x {
		yhat[i] = MichaelisMenten(c, km, vmax)
	}

	return Result{Km: km, Vmax: vmax, RSquared: RSquared(y, yhat)}
}

// RSquared is the coefficient of determination 1 - SSres/SStot.
func RSquared(y, yhat []float64) float64 {
	if len(y) == 0 || len(y) != len(yhat) {
		return math.NaN()
	}
	return stat.RSquaredFrom(yhat, y, nil)
}

// bounds maps an unbounded solver parameter onto [lo, hi].
type bounds struct {
	lo, hi float64
}

func (b bounds) degenerate() bool {
	return !(b.hi > b.lo) || math.IsInf(b.hi, 0) || math.IsNaN(b.hi)
}

func (b bounds) toParam(u float64) float64 {
	return b.lo + (b.hi-b.lo)*(1+math.Sin(u))/2
}

// fromParam is the inverse of toParam. p is pulled slightly inside the
// interval so the transform's derivative is not zero at the start.
func (b bounds) fromParam(p float64) float64 {
	width := b.hi - b.lo
	p = math.Max(p, b.lo+1e-3*width)
	p = math.Min(p, b.hi-1e-3*width)
	return math.Asin(2*(p-b.lo)/width - 1)
}

func solve(x, y []float64) (km, vmax float64) {
	inf := math.Inf(1)
	if len(x) < 2 || len(x) != len(y) {
		return inf, inf
	}

	kmBounds := bounds{lo: 0, hi: 2 * floats.Max(x)}
	vmaxBounds := bounds{lo: 0, hi: 2 * floats.Max(y)}
	if kmBounds.degenerate() || vmaxBounds.degenerate() {
		return inf, inf
	}

	guess := floats.Max(y) / 5

	residuals := func(dst, u []float64) {
		k, v := kmBounds.toParam(u[0]), vmaxBounds.toParam(u[1])
		for i, c := range x {
			dst[i] = MichaelisMenten(c, k, v) - y[i]
		}
	}
	jacobian := lm.NumJac{Func: residuals}

	problem := lm.LMProblem{
		Dim:        2,
		Size:       len(x),
		Func:       residuals,
		Jac:        jacobian.Jac,
		InitParams: []float64{kmBounds.fromParam(guess), vmaxBounds.fromParam(guess)},
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	result, err := runLM(problem)
	if err != nil || result.Status == optimize.IterationLimit {
		return inf, inf
	}

	km, vmax = kmBounds.toParam(result.X[0]), vmaxBounds.toParam(result.X[1])
	if math.IsNaN(km) || math.IsNaN(vmax) {
		return inf, inf
	}

	return km, vmax
}

// runLM converts the solver's panic on a singular system into an error.
func runLM(problem lm.LMProblem) (result *lm.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("levenberg-marquardt: %v", r)
		}
	}()

	return lm.LM(problem, &lm.Settings{Iterations: Iterations, ObjectiveTol: 1e-16})
}

func replaceNaN(in []float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		if math.IsNaN(v) {
			v = Missing
		}
		out[i] = v
	}
	return out
}
