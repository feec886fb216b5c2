package picklist

import (
	"context"
	"testing"

	"github.com/carbocation/sxfst"
)

const testPicklist = `,Cpd,DestWell,Destination Plate Name,Transfer Volume /nl,Source Well
0,S1234-aspirin,A2,Destination[1],100,A1
1,S1234-aspirin,A3,Destination[1],200,A1
2,S1234-aspirin,A4,Destination[1],400,A1
3,S0042-caffeine,B2,Destination[1],100,A2
4,S0042-caffeine,B3,Destination[2],200,A2
`

func readTestPicklist(t *testing.T) Index {
	t.Helper()

	entries, err := Read(context.Background(), sxfst.SourceBytes("picklist.csv", []byte(testPicklist)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(entries))
	}

	return NewIndex(entries)
}

func TestReadAndIndex(t *testing.T) {
	idx := readTestPicklist(t)

	cpds := idx.Compounds()
	if len(cpds) != 2 || cpds[0] != "S0042-caffeine" || cpds[1] != "S1234-aspirin" {
		t.Errorf("unexpected compounds %v", cpds)
	}

	wells := idx.Wells("S1234-aspirin")
	vols := idx.Volumes("S1234-aspirin")
	if len(wells) != 3 || wells[2] != "A4" || vols[2] != 400 {
		t.Errorf("unexpected wells %v / volumes %v", wells, vols)
	}

	if v := idx.VolumeByWell("S1234-aspirin")["A3"]; v != 200 {
		t.Errorf("A3: got %v", v)
	}

	if plate, err := idx.Plate("S1234-aspirin"); err != nil || plate != "Destination[1]" {
		t.Errorf("Plate: got %q, %v", plate, err)
	}
	if _, err := idx.Plate("S0042-caffeine"); err == nil {
		t.Error("a compound spread over two plates should be rejected")
	}
	if _, err := idx.Plate("missing"); err == nil {
		t.Error("an unknown compound should be rejected")
	}

	if plates := idx.DestinationPlates(); len(plates) != 2 {
		t.Errorf("unexpected destination plates %v", plates)
	}
}

func TestReadMissingColumn(t *testing.T) {
	bad := "Cpd,DestWell,Transfer Volume /nl\nS1,A1,100\n"
	if _, err := Read(context.Background(), sxfst.SourceBytes("bad.csv", []byte(bad)), nil); err == nil {
		t.Error("expected a picklist without a destination plate column to fail")
	}
}

func TestCompoundNumber(t *testing.T) {
	if got := CompoundNumber("S1234-aspirin"); got != "S1234" {
		t.Errorf("got %q", got)
	}
	if got := CompoundNumber("DMSO"); got != "DMSO" {
		t.Errorf("got %q", got)
	}
}
