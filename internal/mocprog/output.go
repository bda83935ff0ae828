// Public domain.

package mocprog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/soniakeys/exit"
	"github.com/soniakeys/sexagesimal"

	"github.com/soniakeys/gwmoc/internal/regionfile"
	"github.com/soniakeys/gwmoc/internal/regionstore"
	"github.com/soniakeys/gwmoc/moc"
)

func printHeadings(opt *options) {
	if opt.headings {
		fmt.Println(versionString)
		fmt.Println("Event:", opt.event)
	}
}

// printMap prints the peak and the area of each region of one map.
func printMap(r *mapResult, opt *options) {
	m := r.enc.Map()
	c, p := r.enc.Peak()
	fmt.Printf("\n%s (%s)\n", r.src.pipeline, r.src.name)
	fmt.Printf("  %d pixels to order %d, peak %s at %.1d %+.0d\n",
		m.Len(), m.MaxOrder(), c, sexa.FmtRA(p.RA), sexa.FmtAngle(p.Dec))
	if opt.headings {
		fmt.Println("  Level    Area deg²   Sky frac  Cells")
	}
	for _, reg := range r.regions {
		fmt.Printf("  %5s %12.2f %10.6f %6d\n", levelLabel(reg.Level),
			reg.MOC.SquareDegrees(), reg.MOC.Area(), reg.MOC.Len())
	}
}

// printOverlaps prints, for each level, intersection and union areas of
// each pair of maps.
func printOverlaps(results []*mapResult, opt *options) {
	if len(results) < 2 {
		return
	}
	fmt.Println()
	if opt.headings {
		fmt.Printf("%5s %-14s %-14s %12s %12s %8s\n",
			"Level", "Map A", "Map B", "A∩B deg²", "A∪B deg²", "Jaccard")
	}
	for lx, lv := range opt.levels {
		for i, a := range results {
			for _, b := range results[i+1:] {
				o, err := overlap(a.regions[lx].MOC, b.regions[lx].MOC)
				if err != nil {
					exit.Log(err)
				}
				fmt.Printf("%5s %-14s %-14s %12.2f %12.2f %8.4f\n",
					levelLabel(lv), a.src.pipeline, b.src.pipeline,
					o.inter, o.union, o.jaccard())
			}
		}
	}
}

type overlapArea struct {
	inter, union float64 // square degrees
}

func (o overlapArea) jaccard() float64 {
	if o.union == 0 {
		return 0
	}
	return o.inter / o.union
}

// overlap computes intersection and union of MOCs of possibly different
// max order.
func overlap(a, b *moc.MOC) (o overlapArea, err error) {
	a, b = moc.Align(a, b)
	i, err := a.Intersection(b)
	if err != nil {
		return
	}
	u, err := a.Union(b)
	if err != nil {
		return
	}
	return overlapArea{i.SquareDegrees(), u.SquareDegrees()}, nil
}

func levelLabel(p float64) string {
	return strconv.FormatFloat(p*100, 'f', -1, 64) + "%"
}

// mocFileName names the MOC file of one region.
func mocFileName(event, pipeline string, level float64, format string) string {
	ext := "." + format
	if format == "bin" {
		ext = ".moc"
	}
	return event + "_" + pipeline + "_" +
		strconv.FormatFloat(level*100, 'f', -1, 64) + ext
}

// writeOutputs writes MOC files, region archive, and catalog records as
// requested.
func writeOutputs(r *mapResult, opt *options, store regionstore.Store) error {
	if opt.outDir != "" {
		for _, reg := range r.regions {
			fn := filepath.Join(opt.outDir,
				mocFileName(opt.event, r.src.pipeline, reg.Level, opt.format))
			if err := writeMOCFile(fn, reg.MOC, opt.format); err != nil {
				return err
			}
		}
	}
	if opt.gobDir != "" {
		h := regionfile.Header{
			Event:    opt.event,
			Pipeline: r.src.pipeline,
			MaxOrder: r.enc.Map().MaxOrder(),
			Created:  time.Now().UTC(),
		}
		if r.src.blobs == nil {
			h.Map = r.src.name
		}
		fn := filepath.Join(opt.gobDir, opt.event+"_"+r.src.pipeline+regionfile.Ext)
		if err := regionfile.WriteFile(fn, h, r.regions); err != nil {
			return err
		}
	}
	if store != nil {
		return storeRegions(store, r, opt)
	}
	return nil
}

func writeMOCFile(fn string, m *moc.MOC, format string) (err error) {
	f, err := os.Create(fn)
	if err != nil {
		return
	}
	defer func() {
		if cErr := f.Close(); err == nil {
			err = cErr
		}
	}()
	return encodeMOC(f, m, format)
}

func encodeMOC(w io.Writer, m *moc.MOC, format string) error {
	var b []byte
	var err error
	switch format {
	case "json":
		b, err = json.Marshal(m)
	case "bin":
		b, err = m.MarshalBinary()
	default:
		b, err = m.MarshalText()
	}
	if err != nil {
		return err
	}
	if format != "bin" {
		b = append(b, '\n')
	}
	_, err = w.Write(b)
	return err
}

// ReadMOCFile reads a MOC file in the format given by its extension,
// .txt for MOC ASCII, .json for JSON, otherwise binary.
func ReadMOCFile(fn string) (*moc.MOC, error) {
	b, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	format := "bin"
	switch filepath.Ext(fn) {
	case ".txt":
		format = "txt"
	case ".json":
		format = "json"
	}
	m, err := decodeMOC(b, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return m, nil
}

func decodeMOC(b []byte, format string) (*moc.MOC, error) {
	switch format {
	case "json":
		m := new(moc.MOC)
		if err := json.Unmarshal(b, m); err != nil {
			return nil, err
		}
		return m, nil
	case "txt":
		return moc.ParseText(string(b))
	}
	return moc.Decode(b)
}

// WriteMOCFile writes a MOC file in the format given by its extension.
func WriteMOCFile(fn string, m *moc.MOC) error {
	format := "bin"
	switch filepath.Ext(fn) {
	case ".txt":
		format = "txt"
	case ".json":
		format = "json"
	}
	return writeMOCFile(fn, m, format)
}
