package picklist

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/sxfst"
	"github.com/gocarina/gocsv"
)

// Entry is one transfer made by the liquid handler.
type Entry struct {
	Cpd       string  `csv:"Cpd"`
	DestWell  string  `csv:"DestWell"`
	DestPlate string  `csv:"Destination Plate Name"`
	Volume    float64 `csv:"Transfer Volume /nl"`
}

// RequiredColumns must all be present in a picklist header.
var RequiredColumns = []string{"Cpd", "DestWell", "Destination Plate Name", "Transfer Volume /nl"}

// Read parses a picklist. A malformed picklist invalidates every compound in
// the screen, so callers should treat an error here as fatal.
func Read(ctx context.Context, src sxfst.Source, client *storage.Client) ([]Entry, error) {
	data, err := src.ReadAll(ctx, client)
	if err != nil {
		return nil, pfx.Err(err)
	}

	delim := sxfst.DetermineDelimiterBytes(data, 0)

	header, err := newReader(data, delim).Read()
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: reading header: %w", src.Name(), err))
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}
	for _, col := range RequiredColumns {
		if !present[col] {
			return nil, pfx.Err(fmt.Errorf("%s: picklist is missing column %q", src.Name(), col))
		}
	}

	records := []*Entry{}
	if err := gocsv.UnmarshalCSV(newReader(data, delim), &records); err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", src.Name(), err))
	}

	out := make([]Entry, 0, len(records))
	for _, rec := range records {
		if rec.Cpd == "" && rec.DestWell == "" {
			continue
		}
		out = append(out, *rec)
	}

	return out, nil
}

func newReader(data []byte, delim rune) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return r
}

// Index maps compounds to the transfers that dispensed them.
type Index map[string][]Entry

// NewIndex groups entries by compound, preserving picklist order within each
// compound.
func NewIndex(entries []Entry) Index {
	idx := make(Index)
	for _, e := range entries {
		idx[e.Cpd] = append(idx[e.Cpd], e)
	}
	return idx
}

// Compounds lists the compounds in the index, sorted.
func (idx Index) Compounds() []string {
	out := make([]string, 0, len(idx))
	for cpd := range idx {
		out = append(out, cpd)
	}
	sort.Strings(out)
	return out
}

func (idx Index) Wells(cpd string) []string {
	out := make([]string, 0, len(idx[cpd]))
	for _, e := range idx[cpd] {
		out = append(out, e.DestWell)
	}
	return out
}

// Volumes returns the transfer volumes of a compound in nanoliters, aligned
// with Wells.
func (idx Index) Volumes(cpd string) []float64 {
	out := make([]float64, 0, len(idx[cpd]))
	for _, e := range idx[cpd] {
		out = append(out, e.Volume)
	}
	return out
}

// VolumeByWell maps each destination well of a compound to its volume.
func (idx Index) VolumeByWell(cpd string) map[string]float64 {
	out := make(map[string]float64, len(idx[cpd]))
	for _, e := range idx[cpd] {
		out[e.DestWell] = e.Volume
	}
	return out
}

// Plate returns the single destination plate of a compound. A dilution series
// split across plates is not supported.
func (idx Index) Plate(cpd string) (string, error) {
	entries, exists := idx[cpd]
	if !exists {
		return "", fmt.Errorf("compound %s is not in the picklist", cpd)
	}

	name := entries[0].DestPlate
	for _, e := range entries[1:] {
		if e.DestPlate != name {
			return "", fmt.Errorf("compound %s was dispensed to more than one plate (%s, %s)", cpd, name, e.DestPlate)
		}
	}

	return name, nil
}

// DestinationPlates lists the distinct destination plate names, sorted.
func (idx Index) DestinationPlates() []string {
	seen := make(map[string]struct{})
	for _, entries := range idx {
		for _, e := range entries {
			seen[e.DestPlate] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

var compoundNumber = regexp.MustCompile(`(S[0-9]+)`)

// CompoundNumber extracts the short library number (e.g. "S1234") from a
// compound identifier, or returns the identifier unchanged.
func CompoundNumber(cpd string) string {
	if m := compoundNumber.FindStringSubmatch(cpd); len(m) > 1 {
		return m[1]
	}
	return cpd
}
