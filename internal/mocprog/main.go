// Public domain.

package mocprog

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/exit"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/gwmoc/contour"
	"github.com/soniakeys/gwmoc/internal/regionstore"
	"github.com/soniakeys/gwmoc/internal/synth"
)

const versionString = "gwmoc version 0.3"
const copyrightString = "Public domain."

// synthOrder is the resolution of maps generated by -synth.
const synthOrder = 6

func Main() {
	defer exit.Handler()

	// these functions set up options and terminate on error
	cl := parseCommandLine()
	opt := readConfig(cl)
	cl.override(opt)

	var store regionstore.Store
	if opt.db != "" {
		db, err := regionstore.Open(opt.db)
		if err != nil {
			exit.Log(err)
		}
		defer db.Close()
		s, err := regionstore.NewSQLiteStore(db)
		if err != nil {
			exit.Log(err)
		}
		store = s
	}
	if cl.list {
		if store == nil {
			exit.Log("-list needs a catalog, given with -db")
		}
		event := ""
		if cl.set["e"] {
			event = opt.event
		}
		if err := listCatalog(os.Stdout, store, event, opt); err != nil {
			exit.Log(err)
		}
		return
	}

	srcs := sources(cl)
	for _, dir := range []string{opt.outDir, opt.gobDir} {
		if dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				exit.Log(err)
			}
		}
	}

	// maps are contoured concurrently.  prCh holds per-map result channels
	// in command line order so results print in that order regardless of
	// which worker finishes first.  its buffer lets fast workers drop off
	// results without waiting on a slow one ahead of them.
	maxWorkers := runtime.GOMAXPROCS(0)
	prCh := make(chan chan *mapResult, maxWorkers*2)
	srcCh := make(chan *srcSeq)

	// dispatcher.  each source gets a return channel, a ticket for picking
	// up its result.
	go func() {
		for _, s := range srcs {
			rch := make(chan *mapResult, 1)
			srcCh <- &srcSeq{s, rch}
			prCh <- rch
		}
		close(srcCh)
		close(prCh)
	}()
	nw := maxWorkers
	if len(srcs) < nw {
		nw = len(srcs)
	}
	for n := 0; n < nw; n++ {
		go contourWorker(srcCh, opt)
	}

	printHeadings(opt)

	var results []*mapResult
	for rch := range prCh {
		r := <-rch // wait here for result in submission order
		if r.err != nil {
			exit.Log(fmt.Sprintf("%s: %v", r.src.name, r.err))
		}
		printMap(r, opt)
		if err := writeOutputs(r, opt, store); err != nil {
			exit.Log(err)
		}
		results = append(results, r)
	}
	printOverlaps(results, opt)
}

// source is one probability map to contour, a file or a synthetic map.
type source struct {
	name     string // file name, or description of a synthetic map
	pipeline string
	blobs    []synth.Blob // non-nil for synthetic maps
}

type srcSeq struct {
	s   source
	rch chan *mapResult
}

type mapResult struct {
	src     source
	enc     *contour.Encoder
	regions []contour.Region
	err     error
}

// contourWorker runs until srcCh is closed.
func contourWorker(srcCh chan *srcSeq, opt *options) {
	for s := range srcCh {
		r := &mapResult{src: s.s}
		var m *contour.Map
		if m, r.err = loadMap(s.s); r.err == nil {
			var eo []contour.Option
			if opt.splitTies {
				eo = append(eo, contour.SplitTies())
			}
			r.enc = contour.NewEncoder(m, eo...)
			r.regions, r.err = r.enc.Regions(opt.levels)
		}
		s.rch <- r // buffered.  just drop off result and continue
	}
}

func loadMap(s source) (*contour.Map, error) {
	if s.blobs != nil {
		p := synth.Dense(synthOrder, s.blobs...)
		p = synth.Noisy(p, .05, synth.NewRand(1))
		return contour.NewDense(synthOrder, p)
	}
	if s.name == "-" {
		return contour.ReadMap(os.Stdin)
	}
	f, err := os.Open(s.name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return contour.ReadMap(f)
}

// sources lists the maps named on the command line, the synthetic map
// first if there is one.
func sources(cl *commandLine) (srcs []source) {
	if cl.synth != "" {
		b, err := parseBlob(cl.synth)
		if err != nil {
			exit.Log(err)
		}
		srcs = append(srcs, source{
			name:     "synthetic " + cl.synth,
			pipeline: "synth",
			blobs:    []synth.Blob{b},
		})
	}
	for _, fn := range cl.maps {
		srcs = append(srcs, source{name: fn, pipeline: pipelineName(fn)})
	}
	return
}

// pipelineName names a map by its file name less extension.
func pipelineName(fn string) string {
	if fn == "-" {
		return "stdin"
	}
	b := filepath.Base(fn)
	return strings.TrimSuffix(b, filepath.Ext(b))
}

// parseBlob parses "ra,dec,sigma" in degrees.
func parseBlob(s string) (b synth.Blob, err error) {
	f := strings.Split(s, ",")
	if len(f) != 3 {
		return b, fmt.Errorf("-synth %q: want ra,dec,sigma", s)
	}
	var v [3]float64
	for i, x := range f {
		if v[i], err = strconv.ParseFloat(strings.TrimSpace(x), 64); err != nil {
			return b, fmt.Errorf("-synth %q: %w", s, err)
		}
	}
	if v[1] < -90 || v[1] > 90 || v[2] <= 0 {
		return b, fmt.Errorf("-synth %q: dec or sigma out of range", s)
	}
	return synth.Blob{
		Center: coord.Equa{
			RA:  unit.RAFromDeg(v[0]),
			Dec: unit.AngleFromDeg(v[1]),
		},
		Sigma: unit.AngleFromDeg(v[2]),
	}, nil
}

type commandLine struct {
	dc     string   // config file
	levels string   // -l
	event  string   // -e
	format string   // -f
	outDir string   // -o
	gobDir string   // -g
	db     string   // -db
	synth  string   // -synth
	split  bool     // -splitties
	list   bool     // -list
	maps   []string // map files
	set    map[string]bool
}

func parseCommandLine() *commandLine {
	var cl commandLine
	dh := flag.Bool("h", false, "")
	dv := flag.Bool("v", false, "")
	flag.StringVar(&cl.dc, "c", "", "")
	flag.StringVar(&cl.levels, "l", "", "")
	flag.StringVar(&cl.event, "e", "", "")
	flag.StringVar(&cl.format, "f", "", "")
	flag.StringVar(&cl.outDir, "o", "", "")
	flag.StringVar(&cl.gobDir, "g", "", "")
	flag.StringVar(&cl.db, "db", "", "")
	flag.StringVar(&cl.synth, "synth", "", "")
	flag.BoolVar(&cl.split, "splitties", false, "")
	flag.BoolVar(&cl.list, "list", false, "")
	flag.Usage = func() {
		os.Stderr.WriteString(`
Usage: gwmoc [options] <mapfile>...   credible regions of probability maps
       gwmoc [options] -              credible regions of a map from stdin
       gwmoc [options] -synth ra,dec,sigma
                                      credible regions of a synthetic map
       gwmoc -db <sqlite-file> -list [-e <event>]
                                      list regions in a catalog
       gwmoc -h                       display help and quick reference
       gwmoc -v                       display version and copyright

Options:
       -c <config-file>
       -l <levels>          comma separated, default 0.5,0.9
       -e <event>
       -f txt|json|bin      MOC file format, default txt
       -o <dir>             write a MOC file per map and level
       -g <dir>             write a region archive per map
       -db <sqlite-file>    record regions in a catalog
       -splitties
`)
	}
	flag.Parse()
	switch {
	case *dh:
		printHelp()
		os.Exit(0)
	case *dv:
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	case flag.NArg() == 0 && cl.synth == "" && !cl.list:
		flag.Usage()
		os.Exit(1)
	}
	cl.maps = flag.Args()
	cl.set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { cl.set[f.Name] = true })
	return &cl
}

type options struct {
	headings  bool
	splitTies bool
	levels    []float64
	event     string
	format    string
	outDir    string
	gobDir    string
	db        string
}

func defaultOptions() *options {
	return &options{
		headings: true,
		levels:   []float64{.5, .9},
		event:    "unnamed",
		format:   "txt",
	}
}

// readConfig reads the config file named with -c, or gwmoc.config in the
// current directory if it exists.
func readConfig(cl *commandLine) *options {
	opt := defaultOptions()
	fn := cl.dc
	if fn == "" {
		fn = "gwmoc.config"
	}
	f, err := os.Open(fn)
	if err != nil {
		if cl.dc == "" {
			return opt
		}
		exit.Log(err)
	}
	defer f.Close()
	if err := opt.parseConfig(f); err != nil {
		exit.Log(err)
	}
	return opt
}

// override applies command line options over config file options.
func (cl *commandLine) override(opt *options) {
	if cl.set["l"] {
		lv, err := parseLevels(strings.Split(cl.levels, ","))
		if err != nil {
			exit.Log(err)
		}
		opt.levels = lv
	}
	if cl.set["e"] {
		opt.event = cl.event
	}
	if cl.set["f"] {
		if err := checkFormat(cl.format); err != nil {
			exit.Log(err)
		}
		opt.format = cl.format
	}
	if cl.set["splitties"] {
		opt.splitTies = cl.split
	}
	opt.outDir = cl.outDir
	opt.gobDir = cl.gobDir
	opt.db = cl.db
}

func printHelp() {
	fmt.Println(`
Gwmoc computes credible regions of gravitational wave sky localizations.
Input is one or more probability maps, each line holding a NUNIQ cell
number and a probability density per steradian.  Output is, per map, the
sky area of each credible region and then, per level, the overlap of the
regions of each pair of maps.

Config file keywords:
   levels <p> ...
   event <name>
   format txt|json|bin
   splitties
   headings
   noheadings

For full documentation:
   go doc github.com/soniakeys/gwmoc`)
}

// storeRegions records the regions of r in the catalog.  Regions stored
// earlier for the same event and pipeline at levels no longer computed
// are deleted.
func storeRegions(store regionstore.Store, r *mapResult, opt *options) error {
	ctx := context.Background()
	recs := make([]regionstore.Record, len(r.regions))
	current := map[float64]bool{}
	for i, reg := range r.regions {
		recs[i] = regionstore.Record{
			Event:    opt.event,
			Pipeline: r.src.pipeline,
			Level:    reg.Level,
			MOC:      reg.MOC,
		}
		current[reg.Level] = true
	}
	es, err := store.List(ctx, opt.event)
	if err != nil {
		return err
	}
	for _, e := range es {
		if e.Pipeline == r.src.pipeline && !current[e.Level] {
			if err := store.Delete(ctx, e.Event, e.Pipeline, e.Level); err != nil {
				return err
			}
		}
	}
	if err := store.Put(ctx, recs...); err != nil {
		return err
	}
	log.Printf("%d regions of %s recorded in %s", len(recs), r.src.pipeline, opt.db)
	return nil
}

// listCatalog prints catalog entries for event, or all events if event is
// empty.
func listCatalog(w io.Writer, store regionstore.Store, event string, opt *options) error {
	es, err := store.List(context.Background(), event)
	if err != nil {
		return err
	}
	if opt.headings {
		fmt.Fprintf(w, "%-16s %-16s %6s %5s %12s\n",
			"Event", "Pipeline", "Level", "Order", "Area deg²")
	}
	for _, e := range es {
		fmt.Fprintf(w, "%-16s %-16s %6s %5d %12.2f\n",
			e.Event, e.Pipeline, levelLabel(e.Level), e.MaxOrder, e.SqDegrees)
	}
	return nil
}
