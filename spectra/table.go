package spectra

import (
	"fmt"
	"math"
)

// Table holds absorbance spectra: one row per well, one column per
// wavelength in nanometers. Wavelengths are strictly increasing and shared by
// every row; well labels are unique.
type Table struct {
	Wells       []string
	Wavelengths []int
	Values      [][]float64

	index map[string]int
}

// New validates and indexes a table. The slices are retained, not copied.
func New(wells []string, wavelengths []int, values [][]float64) (*Table, error) {
	if len(wells) != len(values) {
		return nil, fmt.Errorf("%d wells but %d rows of values", len(wells), len(values))
	}

	for i := 1; i < len(wavelengths); i++ {
		if wavelengths[i] <= wavelengths[i-1] {
			return nil, fmt.Errorf("wavelengths must be strictly increasing, but %d follows %d", wavelengths[i], wavelengths[i-1])
		}
	}

	index := make(map[string]int, len(wells))
	for i, well := range wells {
		if _, exists := index[well]; exists {
			return nil, fmt.Errorf("well %s appears more than once", well)
		}
		index[well] = i

		if len(values[i]) != len(wavelengths) {
			return nil, fmt.Errorf("well %s has %d values but the table has %d wavelengths", well, len(values[i]), len(wavelengths))
		}
	}

	return &Table{
		Wells:       wells,
		Wavelengths: wavelengths,
		Values:      values,
		index:       index,
	}, nil
}

func (t *Table) Len() int {
	return len(t.Wells)
}

// Index returns the row number of a well.
func (t *Table) Index(well string) (int, bool) {
	i, ok := t.index[well]
	return i, ok
}

// Row returns the readings of one well. The slice is shared with the table.
func (t *Table) Row(well string) ([]float64, bool) {
	i, ok := t.index[well]
	if !ok {
		return nil, false
	}
	return t.Values[i], true
}

// WavelengthIndex returns the column number of a wavelength.
func (t *Table) WavelengthIndex(nm int) (int, bool) {
	// Wavelengths are sorted; most exports are 1nm steps so try the direct
	// offset before falling back to a scan.
	if len(t.Wavelengths) > 0 {
		if j := nm - t.Wavelengths[0]; j >= 0 && j < len(t.Wavelengths) && t.Wavelengths[j] == nm {
			return j, true
		}
	}
	for j, w := range t.Wavelengths {
		if w == nm {
			return j, true
		}
	}
	return 0, false
}

// Column returns a copy of the readings at one wavelength, in row order.
func (t *Table) Column(nm int) ([]float64, error) {
	j, ok := t.WavelengthIndex(nm)
	if !ok {
		return nil, fmt.Errorf("wavelength %d nm is not in the table (%d-%d nm)", nm, t.first(), t.last())
	}

	out := make([]float64, len(t.Values))
	for i, row := range t.Values {
		out[i] = row[j]
	}
	return out, nil
}

// At returns the reading of one well at one wavelength.
func (t *Table) At(well string, nm int) (float64, error) {
	row, ok := t.Row(well)
	if !ok {
		return math.NaN(), fmt.Errorf("well %s is not in the table", well)
	}
	j, ok := t.WavelengthIndex(nm)
	if !ok {
		return math.NaN(), fmt.Errorf("wavelength %d nm is not in the table", nm)
	}
	return row[j], nil
}

// Select returns a new table holding copies of the named rows, in the order
// given.
func (t *Table) Select(wells ...string) (*Table, error) {
	values := make([][]float64, 0, len(wells))
	for _, well := range wells {
		row, ok := t.Row(well)
		if !ok {
			return nil, fmt.Errorf("well %s is not in the table", well)
		}
		values = append(values, append([]float64(nil), row...))
	}

	return New(append([]string(nil), wells...), append([]int(nil), t.Wavelengths...), values)
}

// Prepend returns a new table with one extra row placed first. It is how the
// zero-dose reference becomes step 0 of a dilution series.
func (t *Table) Prepend(well string, values []float64) (*Table, error) {
	wells := make([]string, 0, len(t.Wells)+1)
	wells = append(wells, well)
	wells = append(wells, t.Wells...)

	rows := make([][]float64, 0, len(t.Values)+1)
	rows = append(rows, append([]float64(nil), values...))
	for _, row := range t.Values {
		rows = append(rows, append([]float64(nil), row...))
	}

	return New(wells, append([]int(nil), t.Wavelengths...), rows)
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	rows := make([][]float64, len(t.Values))
	for i, row := range t.Values {
		rows[i] = append([]float64(nil), row...)
	}

	out, _ := New(append([]string(nil), t.Wells...), append([]int(nil), t.Wavelengths...), rows)
	return out
}

// SameWavelengths reports whether two tables share their wavelength axis.
func (t *Table) SameWavelengths(other *Table) bool {
	return SameWavelengths(t.Wavelengths, other.Wavelengths)
}

func SameWavelengths(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (t *Table) first() int {
	if len(t.Wavelengths) == 0 {
		return 0
	}
	return t.Wavelengths[0]
}

func (t *Table) last() int {
	if len(t.Wavelengths) == 0 {
		return 0
	}
	return t.Wavelengths[len(t.Wavelengths)-1]
}
