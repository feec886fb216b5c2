package response

import (
	"fmt"
	"math"

	"github.com/carbocation/sxfst/spectra"
)

// DiagnosticWavelengths are where a ligand-induced spin-state shift shows up:
// the high-spin peak grows near 390 nm as the low-spin peak at 420 nm falls.
var DiagnosticWavelengths = []int{390, 420}

// Diff returns a copy of t with its first row, the zero-dose reference,
// subtracted from every row.
func Diff(t *spectra.Table) (*spectra.Table, error) {
	if t.Len() == 0 {
		return nil, fmt.Errorf("cannot take a difference of an empty table")
	}

	out := t.Clone()
	ref := t.Values[0]
	for _, row := range out.Values {
		for j := range row {
			row[j] -= ref[j]
		}
	}

	return out, nil
}

// Extract reduces each row to the sum of the absolute readings at the given
// wavelengths (DiagnosticWavelengths when none are given).
func Extract(diff *spectra.Table, wavelengths ...int) ([]float64, error) {
	if len(wavelengths) == 0 {
		wavelengths = DiagnosticWavelengths
	}

	out := make([]float64, diff.Len())
	for _, nm := range wavelengths {
		col, err := diff.Column(nm)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			out[i] += math.Abs(v)
		}
	}

	return out, nil
}
