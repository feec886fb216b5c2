package response

import (
	"math"
	"testing"

	"github.com/carbocation/sxfst/spectra"
)

func TestDiffAndExtract(t *testing.T) {
	tab, err := spectra.New(
		[]string{"A1", "A2", "A3"},
		[]int{390, 400, 420},
		[][]float64{
			{0.1, 0.2, 0.3},
			{0.2, 0.2, 0.2},
			{0.4, 0.0, 0.1},
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	diff, err := Diff(tab)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range diff.Values[0] {
		if v != 0 {
			t.Fatalf("first row of a difference table should be zero, got %v", diff.Values[0])
		}
	}

	got, err := Extract(diff)
	if err != nil {
		t.Fatal(err)
	}
	// |0.1| + |-0.1| and |0.3| + |-0.2|
	want := []float64{0, 0.2, 0.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("row %d: got %v, want %v", i, got[i], want[i])
		}
	}

	if _, err := Extract(diff, 500); err == nil {
		t.Error("expected a missing wavelength to fail")
	}
}

func TestConcentrationPresets(t *testing.T) {
	// 100 nL of 10 mM into 40 µL is 25 µM.
	if got := FixedWell.Of(100); math.Abs(got-25) > 1e-12 {
		t.Errorf("FixedWell: got %v", got)
	}

	// 2000 nL of 10 mM into 38 µL + 2 µL is 500 µM.
	if got := DynamicWell.Of(2000); math.Abs(got-500) > 1e-12 {
		t.Errorf("DynamicWell: got %v", got)
	}
}

func TestConcentrationSeries(t *testing.T) {
	got, err := DynamicWell.Concentrations([]float64{10, 100})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 0 {
		t.Fatalf("step 0 must be zero-dose, got %v", got)
	}
	if math.Abs(got[2]-(100*10000.0/38100)) > 1e-12 {
		t.Errorf("got %v", got[2])
	}

	if _, err := (Concentration{StockMicroMolar: 1}).Concentrations([]float64{1}); err == nil {
		t.Error("expected a zero well volume to be rejected")
	}
}
