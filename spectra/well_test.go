package spectra

import "testing"

func TestNormalizeWell(t *testing.T) {
	cases := map[string]string{
		"A01": "A1",
		"A1":  "A1",
		"p24": "P24",
		"B10": "B10",
		" C3": "C3",
	}

	for in, want := range cases {
		got, err := NormalizeWell(in)
		if err != nil {
			t.Errorf("%q: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("%q: got %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeWellRejects(t *testing.T) {
	for _, in := range []string{"", "A", "Q1", "A00", "AX", "1A"} {
		if got, err := NormalizeWell(in); err == nil {
			t.Errorf("%q: expected an error, got %q", in, got)
		}
	}
}

func TestJoinWell(t *testing.T) {
	got, err := JoinWell("H", "07")
	if err != nil {
		t.Fatal(err)
	}
	if got != "H7" {
		t.Errorf("got %q, want H7", got)
	}
}

func TestWellRow(t *testing.T) {
	if got := WellRow("c12"); got != "C" {
		t.Errorf("got %q", got)
	}
	if got := WellRow(""); got != "" {
		t.Errorf("got %q", got)
	}
}
