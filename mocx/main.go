package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/soniakeys/exit"

	"github.com/soniakeys/gwmoc/internal/mocprog"
	"github.com/soniakeys/gwmoc/internal/regionfile"
	"github.com/soniakeys/gwmoc/internal/regionstore"
	"github.com/soniakeys/gwmoc/moc"
)

const parentImport = "github.com/soniakeys/gwmoc"
const versionString = "mocx version 0.2"
const copyrightString = "Public domain."

func main() {
	defer exit.Handler()

	// parse command line
	flag.Usage = func() {
		os.Stderr.WriteString(
			"Usage: mocx [options] <moc-a> <moc-b>\n"+
				"       mocx [options] -db <catalog> <event/pipeline/level> <event/pipeline/level>\n")
		flag.PrintDefaults()
		os.Stderr.WriteString(`
For full documentation:
   go doc ` + parentImport + `/mocx
`)
	}
	iFile := flag.String("i", "", "write intersection to `file`")
	uFile := flag.String("u", "", "write union to `file`")
	level := flag.Float64("l", .9, "region `level` to take from .gmoc archives")
	dbFile := flag.String("db", "", "read regions from the SQLite catalog `file`")
	vers := flag.Bool("v", false, "display version and copyright")
	flag.Parse()
	if *vers {
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	}
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}
	var store regionstore.Store
	if *dbFile != "" {
		db, err := regionstore.Open(*dbFile)
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
	a, err := load(flag.Arg(0), *level, store)
	if err != nil {
		exit.Log(err)
	}
	b, err := load(flag.Arg(1), *level, store)
	if err != nil {
		exit.Log(err)
	}
	c, err := compare(a, b)
	if err != nil {
		exit.Log(err)
	}
	if *iFile != "" {
		if err := mocprog.WriteMOCFile(*iFile, c.inter); err != nil {
			exit.Log(err)
		}
	}
	if *uFile != "" {
		if err := mocprog.WriteMOCFile(*uFile, c.union); err != nil {
			exit.Log(err)
		}
	}

	// report
	fmt.Println("\nA: ", flag.Arg(0))
	fmt.Println("B: ", flag.Arg(1))
	fmt.Println()
	fmt.Println("            Order    Cells    Area deg²")
	row := func(label string, m *moc.MOC, order int) {
		fmt.Printf("%-10s %6d %8d %12.2f\n", label, order, m.Len(), m.SquareDegrees())
	}
	row("A", a, a.MaxOrder())
	row("B", b, b.MaxOrder())
	row("A∩B", c.inter, c.inter.MaxOrder())
	row("A∪B", c.union, c.union.MaxOrder())
	row("A−B", c.aNotB, c.aNotB.MaxOrder())
	row("B−A", c.bNotA, c.bNotA.MaxOrder())
	fmt.Println()
	fmt.Printf("Fraction of A in B:  %.4f\n", c.fracA())
	fmt.Printf("Fraction of B in A:  %.4f\n", c.fracB())
}

type comparison struct {
	a, b                       *moc.MOC // aligned to a common order
	inter, union, aNotB, bNotA *moc.MOC
}

func compare(a, b *moc.MOC) (c comparison, err error) {
	c.a, c.b = moc.Align(a, b)
	if c.inter, err = c.a.Intersection(c.b); err != nil {
		return
	}
	if c.union, err = c.a.Union(c.b); err != nil {
		return
	}
	if c.aNotB, err = c.a.Difference(c.b); err != nil {
		return
	}
	c.bNotA, err = c.b.Difference(c.a)
	return
}

func (c comparison) fracA() float64 {
	if c.a.IsEmpty() {
		return 0
	}
	return c.inter.Area() / c.a.Area()
}

func (c comparison) fracB() float64 {
	if c.b.IsEmpty() {
		return 0
	}
	return c.inter.Area() / c.b.Area()
}

// load reads one map of the comparison.  With a catalog, arg is a key
// event/pipeline/level.  Otherwise it is a region archive, from which the
// region at level is taken, or a MOC file.
func load(arg string, level float64, store regionstore.Store) (*moc.MOC, error) {
	if store != nil {
		f := strings.Split(arg, "/")
		if len(f) != 3 {
			return nil, fmt.Errorf("%s: want event/pipeline/level", arg)
		}
		lv, err := strconv.ParseFloat(f[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		m, err := store.Get(context.Background(), f[0], f[1], lv)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		return m, nil
	}
	if filepath.Ext(arg) == regionfile.Ext {
		_, rs, err := regionfile.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		for _, r := range rs {
			if r.Level == level {
				return r.MOC, nil
			}
		}
		return nil, fmt.Errorf("%s: no region at level %g", arg, level)
	}
	return mocprog.ReadMOCFile(arg)
}
