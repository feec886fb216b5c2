package response

import "fmt"

// Concentration converts a dispensed volume into the final concentration in
// the well: c = v * stock / (well volume [+ v]). Volumes are in nanoliters
// and the result is in the stock's units.
type Concentration struct {
	StockMicroMolar float64
	WellVolumeNL    float64 // assay volume before the transfer
	AddTransfer     bool    // the transfer adds to the well volume
}

var (
	// FixedWell is a 10 mM stock into a 40 µL well whose volume does not
	// account for the transfer.
	FixedWell = Concentration{StockMicroMolar: 10000, WellVolumeNL: 40000}

	// DynamicWell is a 10 mM stock into 38 µL of protein, where each
	// transfer adds to the total volume.
	DynamicWell = Concentration{StockMicroMolar: 10000, WellVolumeNL: 38000, AddTransfer: true}
)

// Of returns the concentration produced by dispensing v nanoliters.
func (c Concentration) Of(v float64) float64 {
	total := c.WellVolumeNL
	if c.AddTransfer {
		total += v
	}
	return (v * c.StockMicroMolar) / total
}

// Concentrations converts the volumes of a dilution series. The returned slice has
// one more element than vols: step 0, the zero-dose reference, always has
// concentration 0.
func (c Concentration) Concentrations(vols []float64) ([]float64, error) {
	if c.WellVolumeNL <= 0 {
		return nil, fmt.Errorf("well volume must be positive, got %v nL", c.WellVolumeNL)
	}

	out := make([]float64, 0, len(vols)+1)
	out = append(out, 0)
	for _, v := range vols {
		out = append(out, c.Of(v))
	}

	return out, nil
}

func (c Concentration) String() string {
	if c.AddTransfer {
		return fmt.Sprintf("%gµM stock into %gnL + transfer", c.StockMicroMolar, c.WellVolumeNL)
	}
	return fmt.Sprintf("%gµM stock into %gnL", c.StockMicroMolar, c.WellVolumeNL)
}
