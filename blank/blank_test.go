package blank

import (
	"errors"
	"math"
	"testing"

	"github.com/carbocation/sxfst/spectra"
)

func table(t *testing.T, wells []string, at400 []float64) *spectra.Table {
	t.Helper()

	values := make([][]float64, len(wells))
	for i := range wells {
		values[i] = []float64{0.5, at400[i], 0.1}
	}

	tab, err := spectra.New(wells, []int{300, 400, 500}, values)
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func TestSelectNearest(t *testing.T) {
	sample := table(t, []string{"A2", "A3"}, []float64{0.30, 0.40}) // mean 0.35
	pool := table(t, []string{"A1", "A23", "A24"}, []float64{0.10, 0.36, 0.50})

	choice, err := Select(sample, pool, ProteinComparator)
	if err != nil {
		t.Fatal(err)
	}
	if choice.Well != "A23" {
		t.Errorf("got %s, want A23", choice.Well)
	}
	if math.Abs(choice.Score-0.01) > 1e-12 {
		t.Errorf("unexpected score %v", choice.Score)
	}

	choice.Values[0] = -1
	if pool.Values[1][0] != 0.5 {
		t.Error("the returned spectrum must be a copy")
	}
}

func TestSelectTiesGoToFirst(t *testing.T) {
	sample := table(t, []string{"B2"}, []float64{0.5})
	pool := table(t, []string{"B1", "B23", "B24"}, []float64{0.4, 0.6, 0.4})

	for i := 0; i < 10; i++ {
		choice, err := Select(sample, pool, ProteinComparator)
		if err != nil {
			t.Fatal(err)
		}
		if choice.Well != "B1" {
			t.Fatalf("run %d: got %s, want the first of the tied blanks", i, choice.Well)
		}
	}
}

func TestSelectEmptyPool(t *testing.T) {
	sample := table(t, []string{"C2"}, []float64{0.5})
	empty, err := spectra.New(nil, []int{300, 400, 500}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Select(sample, empty, ProteinComparator); !errors.Is(err, ErrNoBlanksAvailable) {
		t.Errorf("expected ErrNoBlanksAvailable, got %v", err)
	}
	if _, err := Select(sample, nil, ControlComparator); !errors.Is(err, ErrNoBlanksAvailable) {
		t.Errorf("expected ErrNoBlanksAvailable, got %v", err)
	}
}

func TestSelectCustomComparator(t *testing.T) {
	sample := table(t, []string{"D2"}, []float64{0.5})
	pool := table(t, []string{"D1", "D24"}, []float64{0.45, 0.9})

	// Prefer the blank that reads furthest above the sample.
	farthest := Comparator{Wavelength: 400, Distance: func(blank, sample float64) float64 { return sample - blank }}

	choice, err := Select(sample, pool, farthest)
	if err != nil {
		t.Fatal(err)
	}
	if choice.Well != "D24" {
		t.Errorf("got %s, want D24", choice.Well)
	}
}

func TestSelectMissingWavelength(t *testing.T) {
	sample := table(t, []string{"E2"}, []float64{0.5})
	pool := table(t, []string{"E1"}, []float64{0.5})

	if _, err := Select(sample, pool, Comparator{Wavelength: 420}); err == nil {
		t.Error("expected an error for a wavelength the tables do not have")
	}
}

func TestSelectSkipsMissingSampleReadings(t *testing.T) {
	sample := table(t, []string{"A2", "A3"}, []float64{0.5, math.NaN()})
	pool := table(t, []string{"A1", "A24"}, []float64{0.1, 0.49})

	choice, err := Select(sample, pool, ProteinComparator)
	if err != nil {
		t.Fatal(err)
	}
	if choice.Well != "A24" {
		t.Errorf("got %s, want A24", choice.Well)
	}

	empty := table(t, []string{"A2"}, []float64{math.NaN()})
	if _, err := Select(empty, pool, ProteinComparator); err == nil || errors.Is(err, ErrNoBlanksAvailable) {
		t.Errorf("a sample with no reading should fail on the sample side, got %v", err)
	}
}
