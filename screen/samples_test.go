package screen

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/carbocation/sxfst"
	"github.com/carbocation/sxfst/picklist"
	"github.com/carbocation/sxfst/plate"
	"github.com/carbocation/sxfst/response"
	"github.com/carbocation/sxfst/spectra"
)

const sampleTable = `,protein,Cpd,Well,test_run_no,actual_vol,300,400,420
0,P450,S1,A03,1001.0,5,0.5,0.4,0.3
1,P450,,A1,1001.0,,0.5,0.4,0.3
2,nan,S1,B3,1001.0,5,0.1,0.1,overflow
`

func TestParseSamples(t *testing.T) {
	_, err := ParseSamples([]byte(sampleTable))
	if err == nil {
		t.Fatal("expected a non-numeric reading to fail")
	}

	s, err := ParseSamples([]byte(strings.Replace(sampleTable, "overflow", "0.1", 1)))
	if err != nil {
		t.Fatal(err)
	}

	if len(s.Wavelengths) != 3 || s.Wavelengths[0] != 300 || s.Wavelengths[2] != 420 {
		t.Errorf("wavelengths: %v", s.Wavelengths)
	}
	if len(s.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(s.Rows))
	}

	first := s.Rows[0]
	if first.Well != "A3" || first.RunNumber != "1001" || first.Volume != 5 || first.Protein != "P450" {
		t.Errorf("first row: %+v", first)
	}
	if !s.Rows[1].IsBlank() || !math.IsNaN(s.Rows[1].Volume) {
		t.Errorf("second row should be a blank with no volume: %+v", s.Rows[1])
	}
	if s.Rows[2].Protein != "" {
		t.Errorf("nan protein should be empty, got %q", s.Rows[2].Protein)
	}
}

func TestParseSamplesMissingColumn(t *testing.T) {
	if _, err := ParseSamples([]byte("protein,Cpd,Well,actual_vol,300\nP,S1,A1,5,0.1\n")); err == nil {
		t.Error("expected a missing test_run_no column to fail")
	}
}

func TestWriteSamplesRoundTrip(t *testing.T) {
	want := testSamples()

	var buf bytes.Buffer
	if err := WriteSamples(&buf, want); err != nil {
		t.Fatal(err)
	}

	got, err := ReadSamples(context.Background(), nil,
		sxfst.SourceBytes("first", buf.Bytes()),
		sxfst.SourceBytes("second", buf.Bytes()),
	)
	if err != nil {
		t.Fatal(err)
	}

	if len(got.Rows) != 2*len(want.Rows) {
		t.Fatalf("expected concatenation of %d rows, got %d", 2*len(want.Rows), len(got.Rows))
	}
	if !spectra.SameWavelengths(got.Wavelengths, want.Wavelengths) {
		t.Error("wavelengths differ")
	}
	if got.Rows[4].Cpd != want.Rows[4].Cpd || got.Rows[4].Spectrum[10] != want.Rows[4].Spectrum[10] {
		t.Errorf("row 4: got %+v", got.Rows[4])
	}
}

func TestCompile(t *testing.T) {
	tab, err := spectra.New(
		[]string{"A1", "A2", "A3"},
		[]int{300, 400},
		[][]float64{{1, 2}, {3, 4}, {5, 6}},
	)
	if err != nil {
		t.Fatal(err)
	}
	plates := map[string]*plate.Plate{"1001": {Table: tab}}

	idx := picklist.NewIndex([]picklist.Entry{
		{Cpd: "S1", DestWell: "A02", DestPlate: "Destination[1]", Volume: 10},
		{Cpd: "S1", DestWell: "A03", DestPlate: "Destination[1]", Volume: 20},
	})

	group, err := picklist.GroupRuns([]string{"1001"}, 1)
	if err != nil {
		t.Fatal(err)
	}

	s, err := Compile(idx, group, plates, "P450")
	if err != nil {
		t.Fatal(err)
	}

	if len(s.Rows) != 3 {
		t.Fatalf("expected every well of the plate, got %d rows", len(s.Rows))
	}
	if !s.Rows[0].IsBlank() || !math.IsNaN(s.Rows[0].Volume) {
		t.Errorf("A1 should be a blank: %+v", s.Rows[0])
	}
	if s.Rows[2].Cpd != "S1" || s.Rows[2].Volume != 20 || s.Rows[2].Protein != "P450" {
		t.Errorf("A3: %+v", s.Rows[2])
	}

	if _, err := Compile(idx, group, map[string]*plate.Plate{}, "P450"); err == nil {
		t.Error("expected a missing plate read to fail")
	}
}

// titrationPlate reads row A of one plate: blanks in A1 and A2, then the
// seven S1 doses. withProtein adds a binding shift with Km = 20 µM.
func titrationPlate(t *testing.T, withProtein bool) *plate.Plate {
	t.Helper()

	wells := []string{"A1", "A2"}
	values := [][]float64{spectrum(0, 0), spectrum(0.1, 0)}
	for i, v := range testVolumes {
		a := 0.0
		if withProtein {
			c := response.DynamicWell.Of(v)
			a = 0.1 * c / (20 + c)
		}
		wells = append(wells, "A"+strconv.Itoa(i+3))
		values = append(values, spectrum(0, a))
	}

	tab, err := spectra.New(wells, wavelengths(), values)
	if err != nil {
		t.Fatal(err)
	}
	return &plate.Plate{Table: tab}
}

func TestCompileThenProcess(t *testing.T) {
	var entries []picklist.Entry
	for i, v := range testVolumes {
		entries = append(entries, picklist.Entry{Cpd: "S1", DestWell: "A" + strconv.Itoa(i+3), DestPlate: "Destination[1]", Volume: v})
	}
	idx := picklist.NewIndex(entries)

	tests := []struct {
		name        string
		plates      map[string]*plate.Plate
		run         string
		controls    int
		controlPool int
	}{
		{
			name:   "one run",
			plates: map[string]*plate.Plate{"1001": titrationPlate(t, true)},
			run:    "1001",
		},
		{
			name: "two runs",
			plates: map[string]*plate.Plate{
				"1001": titrationPlate(t, true),
				"1002": titrationPlate(t, false),
			},
			run: "1001",
		},
		{
			name: "three runs",
			plates: map[string]*plate.Plate{
				"1001": titrationPlate(t, false),
				"1002": titrationPlate(t, false),
				"1003": titrationPlate(t, true),
			},
			run:         "1003",
			controls:    7,
			controlPool: 2,
		},
	}

	for _, tt := range tests {
		var runs []string
		for run := range tt.plates {
			runs = append(runs, run)
		}
		group, err := picklist.GroupRuns(runs, 1)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}

		s, err := Compile(idx, group, tt.plates, "P450")
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}

		exp, err := s.Experiment("P450", "S1")
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if len(exp.Test) != 7 || len(exp.Control) != tt.controls || exp.RunNumber != tt.run {
			t.Errorf("%s: got %d test, %d control wells in run %s", tt.name, len(exp.Test), len(exp.Control), exp.RunNumber)
		}

		pool, err := s.BlankPool(exp.Test)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if pool.Len() != 2 {
			t.Errorf("%s: test blank pool %v", tt.name, pool.Wells)
		}
		if tt.controls > 0 {
			ctrlPool, err := s.BlankPool(exp.Control)
			if err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			if ctrlPool.Len() != tt.controlPool {
				t.Errorf("%s: control blank pool %v", tt.name, ctrlPool.Wells)
			}
		}

		out, err := s.Process(exp, DefaultConfig())
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if !out.Fit.Converged() || math.Abs(out.Fit.Km-20)/20 > 0.05 {
			t.Errorf("%s: fit %v, want Km ~20", tt.name, out.Fit)
		}
		if tt.controls > 0 && (out.ControlErr != nil || out.Control == nil || out.Control.Len() != tt.controls+1) {
			t.Errorf("%s: control table %v, err %v", tt.name, out.Control, out.ControlErr)
		}
	}
}

func TestCreateAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	for i := 0; i < 2; i++ {
		f, w, err := Create(path, true)
		if err != nil {
			t.Fatal(err)
		}
		if err := w.Write(Record{Cpd: "S1", Protein: "P450"}); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(data), "cpd,protein") != 1 {
		t.Errorf("header should be written once:\n%s", data)
	}
	if strings.Count(string(data), "S1,P450") != 2 {
		t.Errorf("expected two rows:\n%s", data)
	}
}
