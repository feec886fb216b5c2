// Package blank picks the no-compound well used as the zero reference for a
// set of sample spectra.
package blank

import (
	"errors"
	"fmt"
	"math"

	"github.com/carbocation/sxfst/spectra"
	"gonum.org/v1/gonum/stat"
)

var ErrNoBlanksAvailable = errors.New("no blank wells available")

// Comparator decides how well a blank matches a sample: both are reduced to
// their reading at one wavelength and compared with Distance. Nearest
// absorbance at one wavelength is a heuristic, so other strategies can be
// swapped in without touching the normalization code.
type Comparator struct {
	Wavelength int
	Distance   func(blank, sample float64) float64
}

// AbsoluteDifference is the default distance.
func AbsoluteDifference(blank, sample float64) float64 {
	return math.Abs(blank - sample)
}

// ProteinComparator matches protein samples on the baseline at 400 nm, where
// the heme Soret band sits.
var ProteinComparator = Comparator{Wavelength: 400, Distance: AbsoluteDifference}

// ControlComparator matches buffer-only controls at 300 nm.
var ControlComparator = Comparator{Wavelength: 300, Distance: AbsoluteDifference}

// Choice is the selected blank.
type Choice struct {
	Well   string
	Values []float64 // a copy of the blank's spectrum
	Score  float64   // distance to the sample mean
}

// Select returns the blank in pool whose reading at the comparator's
// wavelength is closest to the mean sample reading at that wavelength.
// Sample wells without a reading there are left out of the mean. Ties go to
// the blank that appears first in the pool.
func Select(sample, pool *spectra.Table, cmp Comparator) (Choice, error) {
	if pool == nil || pool.Len() == 0 {
		return Choice{}, ErrNoBlanksAvailable
	}
	if sample == nil || sample.Len() == 0 {
		return Choice{}, fmt.Errorf("no sample wells to match a blank against")
	}

	distance := cmp.Distance
	if distance == nil {
		distance = AbsoluteDifference
	}

	sampleCol, err := sample.Column(cmp.Wavelength)
	if err != nil {
		return Choice{}, fmt.Errorf("sample: %w", err)
	}
	finite := sampleCol[:0:0]
	for _, v := range sampleCol {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return Choice{}, fmt.Errorf("sample: no well has a reading at %d nm", cmp.Wavelength)
	}
	target := stat.Mean(finite, nil)

	blankCol, err := pool.Column(cmp.Wavelength)
	if err != nil {
		return Choice{}, fmt.Errorf("blanks: %w", err)
	}

	best := -1
	bestScore := math.Inf(1)
	for i, v := range blankCol {
		score := distance(v, target)
		if math.IsNaN(score) {
			continue
		}
		if best < 0 || score < bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Choice{}, fmt.Errorf("%w: every blank reads NaN at %d nm", ErrNoBlanksAvailable, cmp.Wavelength)
	}

	return Choice{
		Well:   pool.Wells[best],
		Values: append([]float64(nil), pool.Values[best]...),
		Score:  bestScore,
	}, nil
}
