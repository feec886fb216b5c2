package normalize

import (
	"math"
	"testing"

	"github.com/carbocation/sxfst/spectra"
)

func rampTable(t *testing.T) *spectra.Table {
	t.Helper()

	wavelengths := make([]int, 40)
	rows := [][]float64{make([]float64, 40), make([]float64, 40), make([]float64, 40)}
	for j := range wavelengths {
		wavelengths[j] = 300 + j
		rows[0][j] = 0.2
		rows[1][j] = 0.2 + 0.01*float64(j)
		rows[2][j] = math.Sin(float64(j) / 3)
	}

	tab, err := spectra.New([]string{"A1", "A2", "A3"}, wavelengths, rows)
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func TestSubtractZeroBlankIsNoOp(t *testing.T) {
	tab := rampTable(t)

	out, err := Subtract(tab, make([]float64, len(tab.Wavelengths)))
	if err != nil {
		t.Fatal(err)
	}
	for i := range tab.Values {
		for j := range tab.Values[i] {
			if out.Values[i][j] != tab.Values[i][j] {
				t.Fatalf("row %d col %d changed: %v -> %v", i, j, tab.Values[i][j], out.Values[i][j])
			}
		}
	}
}

func TestNormalizeBlankRowBecomesZero(t *testing.T) {
	tab := rampTable(t)

	out, err := Normalize(tab, tab.Values[0], DefaultSigma)
	if err != nil {
		t.Fatal(err)
	}

	for j, v := range out.Values[0] {
		if math.Abs(v) > 1e-15 {
			t.Fatalf("blank row should be zero after normalization, got %v at column %d", v, j)
		}
	}
	if tab.Values[0][0] != 0.2 {
		t.Error("Normalize must not modify its input")
	}
}

func TestSubtractMisaligned(t *testing.T) {
	if _, err := Subtract(rampTable(t), []float64{1, 2}); err == nil {
		t.Error("expected a misaligned blank to be rejected")
	}
}

func TestSmoothConstantIsIdempotent(t *testing.T) {
	tab := rampTable(t)

	once, err := Smooth(tab, DefaultSigma)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Smooth(once, DefaultSigma)
	if err != nil {
		t.Fatal(err)
	}

	for j := range twice.Values[0] {
		if math.Abs(twice.Values[0][j]-0.2) > 1e-12 {
			t.Fatalf("constant row changed at column %d: %v", j, twice.Values[0][j])
		}
	}
}

func TestSmoothPreservesShapeAndLabels(t *testing.T) {
	tab := rampTable(t)

	out, err := Smooth(tab, 2)
	if err != nil {
		t.Fatal(err)
	}

	if out.Len() != tab.Len() || len(out.Wavelengths) != len(tab.Wavelengths) {
		t.Fatalf("shape changed: %dx%d", out.Len(), len(out.Wavelengths))
	}
	for i, well := range tab.Wells {
		if out.Wells[i] != well {
			t.Errorf("well %d relabeled %s -> %s", i, well, out.Wells[i])
		}
	}

	// A linear ramp is preserved away from the edges.
	mid := 20
	if math.Abs(out.Values[1][mid]-tab.Values[1][mid]) > 1e-9 {
		t.Errorf("interior of a ramp should be unchanged, got %v want %v", out.Values[1][mid], tab.Values[1][mid])
	}
}

func TestSmoothKnownValues(t *testing.T) {
	// Reference values for a unit-sigma reflect-mode filter.
	want := []float64{1.42704095, 2.06782203, 3.0, 3.93217797, 4.57295905}

	got := Convolve([]float64{1, 2, 3, 4, 5}, GaussianKernel(1))
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-7 {
			t.Errorf("index %d: got %.8f, want %.8f", i, got[i], want[i])
		}
	}
}

func TestReflect(t *testing.T) {
	// n=4: ... 1 0 | 0 1 2 3 | 3 2 ...
	cases := map[int]int{-2: 1, -1: 0, 0: 0, 3: 3, 4: 3, 5: 2, 8: 0, -5: 3}
	for in, want := range cases {
		if got := reflect(in, 4); got != want {
			t.Errorf("reflect(%d, 4) = %d, want %d", in, got, want)
		}
	}
}

func TestSmoothRejectsNegativeSigma(t *testing.T) {
	if _, err := Smooth(rampTable(t), -1); err == nil {
		t.Error("expected a negative sigma to be rejected")
	}
}
