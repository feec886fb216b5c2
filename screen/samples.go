// Package screen runs the dose-response analysis over a compiled sample
// table: one experiment per (protein, compound) pair, from blank selection
// through the binding fit, with results streamed to a CSV.
package screen

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/sxfst"
	"github.com/carbocation/sxfst/spectra"
)

// Column names of the sample table.
const (
	ColProtein   = "protein"
	ColCompound  = "Cpd"
	ColWell      = "Well"
	ColRunNumber = "test_run_no"
	ColVolume    = "actual_vol"
)

// Sample is one well of one plate read. An empty Protein marks a
// buffer-only control well and an empty Cpd marks a blank.
type Sample struct {
	Protein   string
	Cpd       string
	Well      string
	RunNumber string
	Volume    float64 // nL dispensed; NaN when unknown
	Spectrum  []float64
}

func (s Sample) IsBlank() bool {
	return s.Cpd == ""
}

// Samples is a sample table. Every row shares the same wavelength axis.
type Samples struct {
	Wavelengths []int
	Rows        []Sample
}

// ReadSamples reads and concatenates one or more sample tables. All tables
// must share the same wavelength columns.
func ReadSamples(ctx context.Context, client *storage.Client, srcs ...sxfst.Source) (*Samples, error) {
	if len(srcs) == 0 {
		return nil, pfx.Err(fmt.Errorf("no sample tables given"))
	}

	var out *Samples
	for _, src := range srcs {
		data, err := src.ReadAll(ctx, client)
		if err != nil {
			return nil, pfx.Err(err)
		}

		s, err := ParseSamples(data)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", src.Name(), err))
		}

		if out == nil {
			out = s
			continue
		}
		if !spectra.SameWavelengths(out.Wavelengths, s.Wavelengths) {
			return nil, pfx.Err(fmt.Errorf("%s: wavelength columns differ from the preceding tables", src.Name()))
		}
		out.Rows = append(out.Rows, s.Rows...)
	}

	return out, nil
}

// ParseSamples parses one sample table. Any column whose header is an
// integer is taken as a wavelength.
func ParseSamples(data []byte) (*Samples, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sxfst.DetermineDelimiterBytes(data, 0)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int)
	var wavelengths []int
	var spectral []int
	for j, h := range header {
		h = strings.TrimSpace(h)
		if nm, err := strconv.Atoi(h); err == nil {
			wavelengths = append(wavelengths, nm)
			spectral = append(spectral, j)
			continue
		}
		cols[h] = j
	}
	for _, name := range []string{ColProtein, ColCompound, ColWell, ColRunNumber, ColVolume} {
		if _, exists := cols[name]; !exists {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	if len(wavelengths) == 0 {
		return nil, fmt.Errorf("no wavelength columns")
	}
	for i := 1; i < len(wavelengths); i++ {
		if wavelengths[i] <= wavelengths[i-1] {
			return nil, fmt.Errorf("wavelength columns are not increasing at %d nm", wavelengths[i])
		}
	}

	out := &Samples{Wavelengths: wavelengths}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		cell := func(j int) string {
			if j >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[j])
		}

		if cell(cols[ColWell]) == "" {
			continue
		}

		well, err := spectra.NormalizeWell(cell(cols[ColWell]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		vol, err := parseFloat(cell(cols[ColVolume]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, ColVolume, err)
		}

		spectrum := make([]float64, len(spectral))
		for k, j := range spectral {
			if spectrum[k], err = parseFloat(cell(j)); err != nil {
				return nil, fmt.Errorf("line %d: %d nm: %w", line, wavelengths[k], err)
			}
		}

		out.Rows = append(out.Rows, Sample{
			Protein:   missing(cell(cols[ColProtein])),
			Cpd:       missing(cell(cols[ColCompound])),
			Well:      well,
			RunNumber: runNumber(cell(cols[ColRunNumber])),
			Volume:    vol,
			Spectrum:  spectrum,
		})
	}

	return out, nil
}

// WriteSamples writes a sample table that ParseSamples can read back.
func WriteSamples(w io.Writer, s *Samples) error {
	cw := csv.NewWriter(w)

	header := []string{ColProtein, ColCompound, ColWell, ColRunNumber, ColVolume}
	for _, nm := range s.Wavelengths {
		header = append(header, strconv.Itoa(nm))
	}
	if err := cw.Write(header); err != nil {
		return pfx.Err(err)
	}

	for _, row := range s.Rows {
		rec := []string{row.Protein, row.Cpd, row.Well, row.RunNumber, formatFloat(row.Volume)}
		for _, v := range row.Spectrum {
			rec = append(rec, formatFloat(v))
		}
		if err := cw.Write(rec); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()
	return pfx.Err(cw.Error())
}

// Proteins lists the distinct non-empty proteins in order of first
// appearance.
func (s *Samples) Proteins() []string {
	return s.distinct(func(r Sample) string { return r.Protein })
}

// Compounds lists the distinct non-empty compounds in order of first
// appearance.
func (s *Samples) Compounds() []string {
	return s.distinct(func(r Sample) string { return r.Cpd })
}

func (s *Samples) distinct(key func(Sample) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range s.Rows {
		k := key(r)
		if k == "" {
			continue
		}
		if _, exists := seen[k]; exists {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Table builds a spectral table from rows, in the order given.
func (s *Samples) Table(rows []Sample) (*spectra.Table, error) {
	wells := make([]string, 0, len(rows))
	values := make([][]float64, 0, len(rows))
	for _, r := range rows {
		wells = append(wells, r.Well)
		values = append(values, append([]float64(nil), r.Spectrum...))
	}
	return spectra.New(wells, append([]int(nil), s.Wavelengths...), values)
}

// missing maps the spellings of an absent value to the empty string.
func missing(s string) string {
	switch strings.ToLower(s) {
	case "nan", "na", "none", "null":
		return ""
	}
	return s
}

// runNumber drops the ".0" that a float-typed run number column acquires.
func runNumber(s string) string {
	return strings.TrimSuffix(missing(s), ".0")
}

func parseFloat(s string) (float64, error) {
	if missing(s) == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
