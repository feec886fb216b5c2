package plate

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/sxfst"
	"github.com/carbocation/sxfst/spectra"
)

// DefaultOverflow is the absorbance substituted for cells the instrument
// reports as "overflow". It sits just above the reader's dynamic range.
const DefaultOverflow = 3.5

// Options controls how raw cells are interpreted.
type Options struct {
	// Overflow replaces "overflow" cells. Set it to NaN to exclude them
	// instead.
	Overflow float64
}

func DefaultOptions() Options {
	return Options{Overflow: DefaultOverflow}
}

// Plate is one parsed export: its spectra and its best-effort metadata.
// Plates handed out by a Cache are shared; use Table.Select or Table.Clone
// before modifying values.
type Plate struct {
	Table    *spectra.Table
	Metadata Metadata
}

// Read parses both the table and the metadata of one export.
func Read(ctx context.Context, src sxfst.Source, client *storage.Client, opts Options) (*Plate, error) {
	data, err := src.ReadAll(ctx, client)
	if err != nil {
		return nil, err
	}

	table, err := Parse(src.Name(), data, opts)
	if err != nil {
		return nil, err
	}

	meta := ParseMetadata(data)
	meta.Path = src.Name()

	return &Plate{Table: table, Metadata: meta}, nil
}

// Parse turns the text of one export into a well-indexed spectral table.
// name is only used in error messages.
func Parse(name string, data []byte, opts Options) (*spectra.Table, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	delim := ','
	marker, err := LocateHeaderDelim(lines, delim)
	if err != nil {
		// Some instrument installs export with a locale-specific delimiter.
		delim = sxfst.DetermineDelimiter(bytes.NewReader(data))
		if delim == ',' {
			return nil, withSource(err, name)
		}
		if marker, err = LocateHeaderDelim(lines, delim); err != nil {
			return nil, withSource(err, name)
		}
	}

	headerLine := marker + 1
	if headerLine >= len(lines) {
		return nil, parseErrorf(name, marker, "no column header follows the table marker")
	}

	cr := csv.NewReader(strings.NewReader(strings.Join(lines[headerLine:], "\n")))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, parseErrorf(name, headerLine, "reading column header: %v", err)
	}

	wellCols, err := detectWellLayout(header)
	if err != nil {
		return nil, withSource(withLine(err, headerLine), name)
	}

	wavelengths := make([]int, 0, len(header))
	valueCols := make([]int, 0, len(header))
	for j, h := range header {
		if j < wellCols || dropColumn(h) {
			continue
		}
		nm, err := strconv.Atoi(strings.TrimSpace(h))
		if err != nil {
			return nil, parseErrorf(name, headerLine, "column header %q is not a wavelength", h)
		}
		wavelengths = append(wavelengths, nm)
		valueCols = append(valueCols, j)
	}
	if len(wavelengths) == 0 {
		return nil, parseErrorf(name, headerLine, "no wavelength columns")
	}

	wells := make([]string, 0, 384)
	values := make([][]float64, 0, 384)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			return nil, parseErrorf(name, headerLine+csvErr.StartLine-1, "%v", csvErr.Err)
		} else if err != nil {
			return nil, parseErrorf(name, -1, "%v", err)
		}

		// The csv reader skips empty lines and lets quoted fields span
		// lines, so ask it where the record started.
		recordLine, _ := cr.FieldPos(0)
		line := headerLine + recordLine - 1

		if blankRow(row) {
			continue
		}
		if len(row) < wellCols {
			return nil, parseErrorf(name, line, "expected at least %d columns, got %d", wellCols, len(row))
		}

		var well string
		if wellCols == 2 {
			well, err = spectra.JoinWell(row[0], row[1])
		} else {
			well, err = spectra.NormalizeWell(row[0])
		}
		if err != nil {
			return nil, parseErrorf(name, line, "%v", err)
		}

		readings := make([]float64, len(valueCols))
		for k, j := range valueCols {
			if j >= len(row) {
				readings[k] = math.NaN()
				continue
			}
			v, err := parseReading(row[j], opts)
			if err != nil {
				return nil, parseErrorf(name, line, "well %s at %d nm: %v", well, wavelengths[k], err)
			}
			readings[k] = v
		}

		wells = append(wells, well)
		values = append(values, readings)
	}

	table, err := spectra.New(wells, wavelengths, values)
	if err != nil {
		return nil, parseErrorf(name, -1, "%v", err)
	}

	return table, nil
}

// detectWellLayout returns how many leading columns carry the well label:
// two unlabeled columns hold row letter and column number separately, one
// unlabeled column holds a combined label such as "A01".
func detectWellLayout(header []string) (int, error) {
	unlabeled := func(j int) bool {
		return j < len(header) && strings.TrimSpace(header[j]) == ""
	}

	switch {
	case unlabeled(0) && unlabeled(1):
		return 2, nil
	case unlabeled(0):
		return 1, nil
	}

	return 0, &ParseError{Line: -1, Reason: "unrecognized well layout: expected one or two unlabeled leading columns"}
}

// dropColumn reports whether a header names an index or label column rather
// than a wavelength.
func dropColumn(h string) bool {
	h = strings.TrimSpace(h)
	return h == "" || strings.Contains(h, "Wavelength") || h == "Content"
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseReading(cell string, opts Options) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN(), nil
	}
	if strings.EqualFold(cell, "overflow") {
		return opts.Overflow, nil
	}
	return strconv.ParseFloat(cell, 64)
}

func withSource(err error, name string) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		out := *pe
		out.Source = name
		return &out
	}
	return err
}

func withLine(err error, line int) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		out := *pe
		out.Line = line
		return &out
	}
	return err
}
