package screen

import (
	"fmt"
	"math"

	"github.com/carbocation/sxfst/picklist"
	"github.com/carbocation/sxfst/plate"
	"github.com/carbocation/sxfst/spectra"
)

type dispense struct {
	cpd    string
	volume float64
}

// Compile builds a sample table from parsed plate reads and the picklist.
// plates is keyed by run number. The i-th destination plate of the picklist,
// in sorted order, is the i-th plate of each role. Test plates carry protein
// and control plates carry none. Control rows are recorded under the run
// number of their test plate so that an Experiment finds them. When a slot's
// control and test plate are the same read, as in two-run screens, it is
// added once as a test plate. Unclassified plates are left out.
func Compile(idx picklist.Index, group picklist.RunGroup, plates map[string]*plate.Plate, protein string) (*Samples, error) {
	destinations := idx.DestinationPlates()

	byPlate := make(map[string]map[string]dispense)
	for _, cpd := range idx.Compounds() {
		for _, e := range idx[cpd] {
			well, err := spectra.NormalizeWell(e.DestWell)
			if err != nil {
				return nil, fmt.Errorf("picklist %s: %w", cpd, err)
			}

			wells, exists := byPlate[e.DestPlate]
			if !exists {
				wells = make(map[string]dispense)
				byPlate[e.DestPlate] = wells
			}

			d := wells[well]
			if d.cpd != "" && d.cpd != cpd {
				return nil, fmt.Errorf("picklist: %s %s receives both %s and %s", e.DestPlate, well, d.cpd, cpd)
			}
			wells[well] = dispense{cpd: cpd, volume: d.volume + e.Volume}
		}
	}

	out := &Samples{}
	add := func(run, recordAs, protein string, dispensed map[string]dispense) error {
		p, exists := plates[run]
		if !exists {
			return fmt.Errorf("no plate read for run %s", run)
		}

		if out.Wavelengths == nil {
			out.Wavelengths = append([]int(nil), p.Table.Wavelengths...)
		} else if !spectra.SameWavelengths(out.Wavelengths, p.Table.Wavelengths) {
			return fmt.Errorf("run %s (%s) was read at different wavelengths", run, p.Metadata.Path)
		}

		for i, well := range p.Table.Wells {
			s := Sample{
				Protein:   protein,
				Well:      well,
				RunNumber: recordAs,
				Volume:    math.NaN(),
				Spectrum:  append([]float64(nil), p.Table.Values[i]...),
			}
			if d, ok := dispensed[well]; ok {
				s.Cpd = d.cpd
				s.Volume = d.volume
			}
			out.Rows = append(out.Rows, s)
		}

		return nil
	}

	for _, slot := range group.Slots() {
		if slot.Index > len(destinations) {
			return nil, fmt.Errorf("plate %d of the run has no destination plate in the picklist (%d listed)", slot.Index, len(destinations))
		}
		dispensed := byPlate[destinations[slot.Index-1]]

		if slot.Test == "" {
			return nil, fmt.Errorf("plate %d of the run has no test plate", slot.Index)
		}

		if slot.Control != "" && slot.Control != slot.Test {
			if err := add(slot.Control, slot.Test, "", dispensed); err != nil {
				return nil, err
			}
		}
		if err := add(slot.Test, slot.Test, protein, dispensed); err != nil {
			return nil, err
		}
	}

	return out, nil
}
