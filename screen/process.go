package screen

import (
	"fmt"
	"math"

	"github.com/carbocation/sxfst/blank"
	"github.com/carbocation/sxfst/fit"
	"github.com/carbocation/sxfst/normalize"
	"github.com/carbocation/sxfst/response"
	"github.com/carbocation/sxfst/spectra"
	"gonum.org/v1/gonum/floats"
)

// Config holds the assay constants and tuning of one analysis.
type Config struct {
	Sigma         float64
	Concentration response.Concentration
	Wavelengths   []int // diagnostic wavelengths summed into the response

	ProteinComparator blank.Comparator
	ControlComparator blank.Comparator

	// Workers is the number of pairs processed at once.
	Workers int
}

func DefaultConfig() Config {
	return Config{
		Sigma:             normalize.DefaultSigma,
		Concentration:     response.DynamicWell,
		Wavelengths:       response.DiagnosticWavelengths,
		ProteinComparator: blank.ProteinComparator,
		ControlComparator: blank.ControlComparator,
		Workers:           1,
	}
}

// Outcome is everything computed for one pair. The tables are exposed for
// rendering elsewhere.
type Outcome struct {
	Experiment Experiment

	ProteinBlank blank.Choice
	Test         *spectra.Table // normalized, blank first
	Diff         *spectra.Table

	// Control is nil when the compound has no control wells. A failure on
	// the control side does not invalidate the fit; it lands in ControlErr.
	ControlBlank blank.Choice
	Control      *spectra.Table
	ControlErr   error

	Concentrations []float64
	Responses      []float64
	Fit            fit.Result
	Metrics        Metrics
}

// Metrics are summaries of a series beyond the binding fit.
type Metrics struct {
	MaxResponse float64
	// PeakWavelength is the diagnostic wavelength with the largest spectral
	// change. A420Peak is true when that is 420 nm, the signature of a
	// low-spin (type II) shift.
	PeakWavelength int
	A420Peak       bool
	NPoints        int
}

// Process runs one experiment: pick the protein blank, prepend it as the
// zero-dose step, normalize, take differences against step 0, reduce to a
// response per step and fit.
func (s *Samples) Process(exp Experiment, cfg Config) (*Outcome, error) {
	out := &Outcome{Experiment: exp}

	test, err := s.Table(exp.Test)
	if err != nil {
		return nil, fmt.Errorf("test wells: %w", err)
	}

	pool, err := s.BlankPool(exp.Test)
	if err != nil {
		return nil, fmt.Errorf("protein blanks: %w", err)
	}

	out.ProteinBlank, err = blank.Select(test, pool, cfg.ProteinComparator)
	if err != nil {
		return nil, fmt.Errorf("protein blanks: %w", err)
	}

	series, err := test.Prepend(out.ProteinBlank.Well, out.ProteinBlank.Values)
	if err != nil {
		return nil, err
	}

	if out.Test, err = normalize.Normalize(series, out.ProteinBlank.Values, cfg.Sigma); err != nil {
		return nil, err
	}
	if out.Diff, err = response.Diff(out.Test); err != nil {
		return nil, err
	}
	if out.Responses, err = response.Extract(out.Diff, cfg.Wavelengths...); err != nil {
		return nil, err
	}

	vols := make([]float64, 0, len(exp.Test))
	for _, r := range exp.Test {
		vols = append(vols, r.Volume)
	}
	if out.Concentrations, err = cfg.Concentration.Concentrations(vols); err != nil {
		return nil, err
	}

	out.Fit = fit.Fit(out.Concentrations, out.Responses)

	if out.Metrics, err = metrics(out.Diff, out.Responses, cfg.Wavelengths); err != nil {
		return nil, err
	}

	if len(exp.Control) > 0 {
		out.ControlBlank, out.Control, out.ControlErr = s.control(exp, cfg)
	}

	return out, nil
}

// control normalizes the compound-only wells against their own blank,
// matched on the mean of the control wells.
func (s *Samples) control(exp Experiment, cfg Config) (blank.Choice, *spectra.Table, error) {
	ctrl, err := s.Table(exp.Control)
	if err != nil {
		return blank.Choice{}, nil, err
	}

	pool, err := s.BlankPool(exp.Control)
	if err != nil {
		return blank.Choice{}, nil, err
	}

	choice, err := blank.Select(ctrl, pool, cfg.ControlComparator)
	if err != nil {
		return blank.Choice{}, nil, err
	}

	series, err := ctrl.Prepend(choice.Well, choice.Values)
	if err != nil {
		return choice, nil, err
	}

	norm, err := normalize.Normalize(series, choice.Values, cfg.Sigma)
	return choice, norm, err
}

func metrics(diff *spectra.Table, responses []float64, wavelengths []int) (Metrics, error) {
	m := Metrics{NPoints: len(responses), MaxResponse: math.NaN()}
	if len(responses) > 0 {
		m.MaxResponse = floats.Max(responses)
	}

	if len(wavelengths) == 0 {
		wavelengths = response.DiagnosticWavelengths
	}

	peak := -1.0
	for _, nm := range wavelengths {
		col, err := diff.Column(nm)
		if err != nil {
			return m, err
		}
		if a := maxAbs(col); a > peak {
			m.PeakWavelength, peak = nm, a
		}
	}
	m.A420Peak = m.PeakWavelength == 420

	return m, nil
}

func maxAbs(x []float64) float64 {
	out := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > out {
			out = a
		}
	}
	return out
}
