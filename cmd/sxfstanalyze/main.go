// sxfstanalyze fits a binding curve to every (protein, compound) pair of a
// compiled sample table and emits one CSV row per pair.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"

	"github.com/carbocation/pfx"
	"github.com/carbocation/sxfst"
	"github.com/carbocation/sxfst/buildinfo"
	"github.com/carbocation/sxfst/response"
	"github.com/carbocation/sxfst/screen"
)

var (
	BufferSize = 4096
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	defer STDOUT.Flush()

	buildinfo.Log()

	cfg := screen.DefaultConfig()

	var outPath, filter string
	var appendMode, fixedWell bool

	flag.StringVar(&outPath, "out", "", "Path to the output CSV. If empty, rows are written to stdout.")
	flag.BoolVar(&appendMode, "append", false, "Append to -out instead of replacing it. The header is only written to an empty file.")
	flag.StringVar(&filter, "filter", "", "If set, only sample tables whose path contains this text are read.")
	flag.Float64Var(&cfg.Sigma, "sigma", cfg.Sigma, "Standard deviation, in wavelength columns, of the Gaussian smoothing kernel. 0 disables smoothing.")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, fmt.Sprintf("Number of pairs to analyze at once (this machine has %d CPUs).", runtime.NumCPU()))
	flag.BoolVar(&fixedWell, "fixedwell", false, "Compute concentrations against a fixed 40 uL well instead of 38 uL plus the transferred volume.")
	flag.Float64Var(&cfg.Concentration.StockMicroMolar, "stock", cfg.Concentration.StockMicroMolar, "Compound stock concentration in uM.")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] sample_table.csv [sample_table.csv ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if fixedWell {
		stock := cfg.Concentration.StockMicroMolar
		cfg.Concentration = response.FixedWell
		cfg.Concentration.StockMicroMolar = stock
	}

	paths := flag.Args()
	if filter != "" {
		paths = sxfst.FilterPaths(paths, filter)
	}
	if len(paths) == 0 {
		flag.Usage()
		log.Fatalln("Please provide at least one sample table")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, paths, outPath, appendMode, cfg); err != nil {
		STDOUT.Flush()
		log.Fatalln(err)
	}
}

func run(ctx context.Context, paths []string, outPath string, appendMode bool, cfg screen.Config) error {
	paths, err := sxfst.ExpandPaths(paths)
	if err != nil {
		return err
	}

	client, err := sxfst.StorageClientFor(ctx, paths...)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	srcs := make([]sxfst.Source, 0, len(paths))
	for _, p := range paths {
		srcs = append(srcs, sxfst.SourcePath(p))
	}

	samples, err := screen.ReadSamples(ctx, client, srcs...)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d wells from %d sample tables\n", len(samples.Rows), len(paths))

	writer := screen.NewWriter(STDOUT, true)
	if outPath != "" {
		f, w, err := screen.Create(outPath, appendMode)
		if err != nil {
			return err
		}
		defer f.Close()
		writer = w
	}

	runner := screen.Runner{Samples: samples, Config: cfg, Writer: writer}
	return report(runner.Run(ctx))
}

func report(summary screen.Summary, err error) error {
	log.Printf("Analyzed %d pairs: %d fitted, %d without a fit, %d failed\n", summary.Pairs, summary.Fitted, summary.NoFit, summary.Failed)
	if summary.Cancelled {
		log.Println("Interrupted; the rows written so far are complete")
	}

	return pfx.Err(err)
}
