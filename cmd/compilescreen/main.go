// compilescreen joins plate reader exports to the liquid handler picklist and
// writes the sample table that sxfstanalyze reads.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/carbocation/pfx"
	"github.com/carbocation/sxfst"
	"github.com/carbocation/sxfst/buildinfo"
	"github.com/carbocation/sxfst/picklist"
	"github.com/carbocation/sxfst/plate"
	"github.com/carbocation/sxfst/screen"
)

var (
	BufferSize = 4096
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

type config struct {
	Picklist     string
	Protein      string
	Out          string
	PlatesPerRun int
	Options      plate.Options
}

func main() {
	defer STDOUT.Flush()

	buildinfo.Log()

	cfg := config{Options: plate.DefaultOptions()}
	var filter string

	flag.StringVar(&cfg.Picklist, "picklist", "", "Path to the liquid handler picklist (CSV).")
	flag.StringVar(&cfg.Protein, "protein", "", "Name of the protein in the test plates.")
	flag.StringVar(&cfg.Out, "out", "", "Path to the sample table to write. If empty, it is written to stdout.")
	flag.IntVar(&cfg.PlatesPerRun, "n", picklist.PlatesPerRun, "Number of plates read per run.")
	flag.Float64Var(&cfg.Options.Overflow, "overflow", cfg.Options.Overflow, "Absorbance substituted for 'overflow' readings. Use NaN to leave them out.")
	flag.StringVar(&filter, "filter", "", "If set, only exports whose path contains this text are read (e.g., platereader).")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -picklist picklist.csv -protein name [flags] export.CSV [export.CSV ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if cfg.Picklist == "" {
		log.Fatalln("Please provide -picklist")
	}
	if cfg.Protein == "" {
		log.Fatalln("Please provide -protein")
	}

	paths := flag.Args()
	if filter != "" {
		paths = sxfst.FilterPaths(paths, filter)
	}
	if len(paths) == 0 {
		flag.Usage()
		log.Fatalln("Please provide at least one plate reader export")
	}

	if err := run(context.Background(), cfg, paths); err != nil {
		STDOUT.Flush()
		log.Fatalln(err)
	}
}

func run(ctx context.Context, cfg config, paths []string) error {
	paths, err := sxfst.ExpandPaths(paths)
	if err != nil {
		return err
	}
	picklistPath, err := sxfst.ExpandHome(cfg.Picklist)
	if err != nil {
		return err
	}

	client, err := sxfst.StorageClientFor(ctx, append([]string{picklistPath}, paths...)...)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	entries, err := picklist.Read(ctx, sxfst.SourcePath(picklistPath), client)
	if err != nil {
		return err
	}
	idx := picklist.NewIndex(entries)
	log.Printf("Loaded %d transfers of %d compounds to %d plates\n", len(entries), len(idx), len(idx.DestinationPlates()))

	cache, err := plate.NewCache(len(paths), client, cfg.Options)
	if err != nil {
		return err
	}

	parsed, errs := cache.GetAll(ctx, paths, runtime.NumCPU())

	plates := make(map[string]*plate.Plate)
	runs := make([]string, 0, len(parsed))
	for i, p := range parsed {
		if errs[i] != nil {
			// One unreadable export only costs that plate.
			log.Println(errs[i])
			continue
		}

		runNo := p.Metadata.RunNumber
		if runNo == "" {
			log.Printf("%s: no test run number in the header; skipping\n", paths[i])
			continue
		}
		if prior, exists := plates[runNo]; exists {
			log.Printf("%s: run %s was already read from %s; skipping\n", paths[i], runNo, prior.Metadata.Path)
			continue
		}
		plates[runNo] = p
		runs = append(runs, runNo)
	}
	if len(plates) == 0 {
		return pfx.Err(fmt.Errorf("none of the %d exports could be read", len(paths)))
	}

	group, err := picklist.GroupRuns(runs, cfg.PlatesPerRun)
	if err != nil {
		return pfx.Err(err)
	}
	if len(runs) == 2*cfg.PlatesPerRun {
		log.Println("Two runs found: the first run is used as both control and test, and the second run is ignored")
	}

	samples, err := screen.Compile(idx, group, plates, cfg.Protein)
	if err != nil {
		return pfx.Err(err)
	}
	log.Printf("Compiled %d wells from %d plates\n", len(samples.Rows), len(plates))

	if cfg.Out == "" {
		return screen.WriteSamples(STDOUT, samples)
	}

	f, err := os.Create(cfg.Out)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, BufferSize)
	if err := screen.WriteSamples(w, samples); err != nil {
		return err
	}

	return pfx.Err(w.Flush())
}
