// platemeta prints the run metadata of plate reader exports as a
// tab-delimited table, along with the role each plate plays in the screen.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/carbocation/sxfst"
	"github.com/carbocation/sxfst/buildinfo"
	"github.com/carbocation/sxfst/picklist"
	"github.com/carbocation/sxfst/plate"
)

var (
	BufferSize = 4096
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	defer STDOUT.Flush()

	buildinfo.Log()

	var filter string
	var platesPerRun int

	flag.StringVar(&filter, "filter", "", "If set, only exports whose path contains this text are read (e.g., platereader).")
	flag.IntVar(&platesPerRun, "n", picklist.PlatesPerRun, "Number of plates read per run. Used to assign control and test roles.")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] export.CSV [export.CSV ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	paths := flag.Args()
	if filter != "" {
		paths = sxfst.FilterPaths(paths, filter)
	}
	if len(paths) == 0 {
		flag.Usage()
		log.Fatalln("Please provide at least one plate reader export")
	}

	if err := run(context.Background(), paths, platesPerRun); err != nil {
		STDOUT.Flush()
		log.Fatalln(err)
	}
}

func run(ctx context.Context, paths []string, platesPerRun int) error {
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

	cache, err := plate.NewCache(len(paths), client, plate.DefaultOptions())
	if err != nil {
		return err
	}

	plates, errs := cache.GetAll(ctx, paths, runtime.NumCPU())

	runs := make([]string, 0, len(plates))
	for i, p := range plates {
		if errs[i] != nil {
			log.Println(errs[i])
			continue
		}
		runs = append(runs, p.Metadata.RunNumber)
	}

	roles := make(map[string]picklist.RunPlate)
	group, err := picklist.GroupRuns(runs, platesPerRun)
	if err != nil {
		// Still print the metadata; only the role columns are left empty.
		log.Println(err)
	}
	for _, rp := range group.Plates {
		// Under the two-run layout a run is listed as both control and
		// test; report the test assignment.
		if existing, ok := roles[rp.RunNumber]; ok && existing.Role == picklist.RoleTest {
			continue
		}
		roles[rp.RunNumber] = rp
	}

	fmt.Fprintln(STDOUT, strings.Join([]string{
		"path", "test_run_no", "user", "machine", "id1", "id2",
		"timestamp", "filename_timestamp", "wells", "wavelength_min", "wavelength_max",
		"role", "slot",
	}, "\t"))

	for i, p := range plates {
		if p == nil {
			continue
		}
		m := p.Metadata

		stamp := ""
		if ts, err := m.Timestamp(); err == nil {
			stamp = ts.Format(time.RFC3339)
		}
		fileStamp := ""
		if ts, err := plate.FilenameTimestamp(paths[i]); err == nil {
			fileStamp = ts.Format(time.RFC3339)
		}

		role, slot := "", ""
		if rp, ok := roles[m.RunNumber]; ok {
			role, slot = string(rp.Role), fmt.Sprint(rp.Slot)
		}

		wl := p.Table.Wavelengths
		fmt.Fprintf(STDOUT, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			paths[i], m.RunNumber, m.User, m.Machine, m.ID1, m.ID2,
			stamp, fileStamp, p.Table.Len(), wl[0], wl[len(wl)-1],
			role, slot)
	}

	return nil
}
