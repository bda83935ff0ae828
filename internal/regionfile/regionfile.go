// Public domain.

// Package regionfile reads and writes archives of the credible regions of
// one probability map.
//
// An archive is a gob stream: a Header, then a count, then that many
// contour.Region values.  MOCs are encoded by their MarshalBinary method.
package regionfile

import (
	"encoding/gob"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/soniakeys/gwmoc/contour"
	"github.com/soniakeys/gwmoc/moc"
)

// Ext is the conventional file extension of a region archive.
const Ext = ".gmoc"

// Header describes the map the regions came from.
type Header struct {
	Event    string
	Pipeline string
	Map      string // source file, empty for synthetic maps
	MaxOrder int
	Created  time.Time
}

// WriteFile writes an archive.
func WriteFile(fn string, h Header, regions []contour.Region) (err error) {
	f, err := os.Create(fn)
	if err != nil {
		return
	}
	defer func() {
		if cErr := f.Close(); err == nil {
			err = cErr
		}
	}()
	enc := gob.NewEncoder(f)
	if err = enc.Encode(h); err != nil {
		return
	}
	if err = enc.Encode(len(regions)); err != nil {
		return
	}
	for _, r := range regions {
		if r.MOC == nil {
			return errors.New("regionfile: region without MOC")
		}
		if err = enc.Encode(r); err != nil {
			return
		}
	}
	return
}

// ReadFile reads an archive written by WriteFile.  A file that is not a
// complete archive gives a moc.KindSerialization error.
func ReadFile(fn string) (h Header, regions []contour.Region, err error) {
	var f *os.File
	f, err = os.Open(fn)
	if err != nil {
		return
	}
	defer f.Close()
	dec := gob.NewDecoder(f)
	if err = dec.Decode(&h); err != nil {
		return h, nil, corrupt("bad header", err)
	}
	var n int
	if err = dec.Decode(&n); err != nil {
		return h, nil, corrupt("bad region count", err)
	}
	if n < 0 {
		return h, nil, corrupt("negative region count", nil)
	}
	// n is not trusted for allocation, a short file ends the loop.
	for i := 0; i < n; i++ {
		var r contour.Region
		if err = dec.Decode(&r); err != nil {
			return h, nil, corrupt("region "+strconv.Itoa(i)+" of "+strconv.Itoa(n), err)
		}
		if r.MOC == nil {
			return h, nil, corrupt("region "+strconv.Itoa(i)+" has no MOC", nil)
		}
		regions = append(regions, r)
	}
	return
}

func corrupt(msg string, cause error) error {
	return &moc.Error{
		Kind:    moc.KindSerialization,
		Op:      "regionfile.ReadFile",
		Message: msg,
		Cause:   cause,
	}
}
