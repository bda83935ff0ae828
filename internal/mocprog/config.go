// Public domain.

package mocprog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// parseConfig reads config file keywords, one per line.
func (opt *options) parseConfig(r io.Reader) error {
	for lr := bufio.NewReader(r); ; {
		l, isPre, err := lr.ReadLine()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		case isPre:
			return errors.New("unexpected long line in config file")
		}
		ls := strings.TrimSpace(string(l))
		if ls == "" || ls[0] == '#' {
			continue
		}
		f := strings.Fields(ls)
		switch f[0] {
		case "headings":
			opt.headings = true
			continue
		case "noheadings":
			opt.headings = false
			continue
		case "splitties":
			opt.splitTies = true
			continue
		case "levels":
			lv, err := parseLevels(f[1:])
			if err != nil {
				return fmt.Errorf("%w\nConfig file line: %s", err, ls)
			}
			opt.levels = lv
			continue
		case "event":
			if len(f) == 2 {
				opt.event = f[1]
				continue
			}
		case "format":
			if len(f) == 2 {
				if err := checkFormat(f[1]); err != nil {
					return fmt.Errorf("%w\nConfig file line: %s", err, ls)
				}
				opt.format = f[1]
				continue
			}
		}
		return errors.New("unrecognized line in config file: " + ls)
	}
}

// parseLevels parses probability levels.  Levels are returned ascending
// with duplicates removed.
func parseLevels(fs []string) ([]float64, error) {
	var lv []float64
	for _, s := range fs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(p) || p <= 0 || p > 1 {
			return nil, fmt.Errorf("level %s not in (0, 1]", s)
		}
		lv = append(lv, p)
	}
	if len(lv) == 0 {
		return nil, errors.New("no levels")
	}
	sort.Float64s(lv)
	u := lv[:1]
	for _, p := range lv[1:] {
		if p != u[len(u)-1] {
			u = append(u, p)
		}
	}
	return u, nil
}

func checkFormat(f string) error {
	switch f {
	case "txt", "json", "bin":
		return nil
	}
	return fmt.Errorf("unknown format %q, want txt, json, or bin", f)
}
