package screen

import (
	"io"
	"math"
	"os"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/carbocation/sxfst/fit"
	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"
	"gopkg.in/guregu/null.v3"
)

// Record is one output row. Metric cells are null when the pair failed
// before they could be computed, in which case Error says why.
type Record struct {
	Cpd         string     `csv:"cpd"`
	Protein     string     `csv:"protein"`
	Km          null.Float `csv:"km"`
	Vmax        null.Float `csv:"vmax"`
	RSquared    null.Float `csv:"rsq"`
	MaxResponse null.Float `csv:"max_response"`
	A420Peak    null.Bool  `csv:"a420_peak"`
	NPoints     null.Int   `csv:"n_points"`
	Error       string     `csv:"error"`
}

// NewRecord summarizes a successful pair, rounding the fit.
func NewRecord(o *Outcome) Record {
	res := o.Fit.Rounded()
	return Record{
		Cpd:         o.Experiment.Cpd,
		Protein:     o.Experiment.Protein,
		Km:          floatCell(res.Km),
		Vmax:        floatCell(res.Vmax),
		RSquared:    floatCell(res.RSquared),
		MaxResponse: floatCell(round(o.Metrics.MaxResponse)),
		A420Peak:    null.BoolFrom(o.Metrics.A420Peak),
		NPoints:     null.IntFrom(int64(o.Metrics.NPoints)),
	}
}

// FailedRecord is the diagnostic row of a pair that could not be analyzed.
func FailedRecord(protein, cpd string, err error) Record {
	return Record{Cpd: cpd, Protein: protein, Error: err.Error()}
}

// floatCell keeps infinite values, which mean "no fit", and drops NaN.
func floatCell(v float64) null.Float {
	return null.NewFloat(v, !math.IsNaN(v))
}

// Writer appends records to a CSV, writing the header only before the first
// record of an empty output. It is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	header bool
}

// NewWriter writes records to w. If header is false the column header is
// assumed to be present already.
func NewWriter(w io.Writer, header bool) *Writer {
	return &Writer{w: w, header: header}
}

// Create opens path for output. In append mode existing rows are kept and
// the header is written only if the file is empty.
func Create(path string, appendMode bool) (*os.File, *Writer, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, nil, pfx.Err(err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, pfx.Err(err)
	}

	return f, NewWriter(f, info.Size() == 0), nil
}

func (w *Writer) Write(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows := []Record{rec}
	if w.header {
		if err := gocsv.Marshal(&rows, w.w); err != nil {
			return pfx.Err(err)
		}
		w.header = false
		return nil
	}

	return pfx.Err(gocsv.MarshalWithoutHeaders(&rows, w.w))
}

// ReadRecords reads back a results file.
func ReadRecords(r io.Reader) ([]Record, error) {
	out := []Record{}
	if err := gocsv.Unmarshal(r, &out); err != nil {
		return nil, pfx.Err(err)
	}
	return out, nil
}

func round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	out, err := stats.Round(v, fit.Places)
	if err != nil {
		return v
	}
	return out
}
