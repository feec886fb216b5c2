package screen

import (
	"errors"
	"fmt"
	"sort"

	"github.com/carbocation/sxfst/spectra"
)

// ErrNoSamples means no test well carries the requested protein and
// compound. Screens rarely pair every protein with every compound, so the
// Runner skips such pairs without reporting them.
var ErrNoSamples = errors.New("no samples for this protein and compound")

// Experiment gathers the wells of one dose-response series.
type Experiment struct {
	Protein   string
	Cpd       string
	RunNumber string

	// Test holds the protein + compound wells. Control holds the
	// compound-only wells recorded under the same run; Compile files a
	// control plate under the run of the test plate it pairs with.
	Test    []Sample
	Control []Sample
}

// Experiment collects the wells for one (protein, compound) pair. The test
// wells must all come from a single run.
func (s *Samples) Experiment(protein, cpd string) (Experiment, error) {
	exp := Experiment{Protein: protein, Cpd: cpd}

	runs := make(map[string]struct{})
	for _, r := range s.Rows {
		if r.Cpd == cpd && r.Protein == protein {
			exp.Test = append(exp.Test, r)
			runs[r.RunNumber] = struct{}{}
		}
	}

	switch len(runs) {
	case 0:
		return exp, ErrNoSamples
	case 1:
		exp.RunNumber = exp.Test[0].RunNumber
	default:
		return exp, fmt.Errorf("%s : %s was read in %d runs (%v), expected 1", protein, cpd, len(runs), sortedKeys(runs))
	}

	for _, r := range s.Rows {
		if r.Cpd == cpd && r.Protein == "" && r.RunNumber == exp.RunNumber {
			exp.Control = append(exp.Control, r)
		}
	}

	return exp, nil
}

// BlankPool returns the candidate blanks for a set of wells: the
// no-compound wells of the same run, the same plate row and the same protein.
// The protein match keeps a control plate's blanks apart from the test
// plate's, since both are recorded under the test run. The wells must share
// one row letter and one protein.
func (s *Samples) BlankPool(wells []Sample) (*spectra.Table, error) {
	if len(wells) == 0 {
		return nil, fmt.Errorf("no wells to find blanks for")
	}

	rows := make(map[string]struct{})
	for _, w := range wells {
		rows[spectra.WellRow(w.Well)] = struct{}{}
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("wells span plate rows %v, expected a single row", sortedKeys(rows))
	}
	row := spectra.WellRow(wells[0].Well)
	run := wells[0].RunNumber
	protein := wells[0].Protein
	for _, w := range wells[1:] {
		if w.Protein != protein {
			return nil, fmt.Errorf("wells carry proteins %q and %q, expected one", protein, w.Protein)
		}
	}

	var pool []Sample
	seen := make(map[string]struct{})
	for _, r := range s.Rows {
		if !r.IsBlank() || r.RunNumber != run || r.Protein != protein || spectra.WellRow(r.Well) != row {
			continue
		}
		if _, dup := seen[r.Well]; dup {
			return nil, fmt.Errorf("blank well %s of run %s appears more than once", r.Well, run)
		}
		seen[r.Well] = struct{}{}
		pool = append(pool, r)
	}

	return s.Table(pool)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
