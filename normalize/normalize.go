package normalize

import (
	"fmt"

	"github.com/carbocation/sxfst/spectra"
)

// DefaultSigma is the standard deviation, in wavelength steps, of the
// smoothing kernel.
const DefaultSigma = 3.0

// Subtract returns a copy of t with blank subtracted from every row. blank
// must be aligned with t's wavelengths.
func Subtract(t *spectra.Table, blank []float64) (*spectra.Table, error) {
	if len(blank) != len(t.Wavelengths) {
		return nil, fmt.Errorf("blank has %d values but the table has %d wavelengths", len(blank), len(t.Wavelengths))
	}

	out := t.Clone()
	for _, row := range out.Values {
		for j := range row {
			row[j] -= blank[j]
		}
	}

	return out, nil
}

// Normalize subtracts blank from every row and then smooths each spectrum.
// When the blank is itself a row of t, that row becomes all zeros and serves
// as the zero-dose reference.
func Normalize(t *spectra.Table, blank []float64, sigma float64) (*spectra.Table, error) {
	sub, err := Subtract(t, blank)
	if err != nil {
		return nil, err
	}

	return Smooth(sub, sigma)
}
