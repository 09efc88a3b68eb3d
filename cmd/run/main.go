// Command run reproduces the classical phase transition data of the paper:
// temperature scans of the 2D Ising model for several system sizes, with the
// critical band of each size identified from its Binder cumulant.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/fumin/cising"
	"github.com/fumin/cising/store"
)

const (
	fnameResults    = "results.db"
	fnameDone       = "done.txt"
	fnameStatistics = "statistics.txt"

	// Temperature grid of Figure 1.
	tMin       = 1.8
	tMax       = 2.8
	scanPoints = 50
)

var (
	runDir  = flag.String("d", filepath.Join("runs", "cising"), "run directory")
	seed    = flag.Uint64("seed", 1, "base random seed")
	workers = flag.Int("workers", 1, "temperatures simulated concurrently")
)

// Statistics summarizes one system size's scan.
type Statistics struct {
	L         int
	TBandLow  float64
	TBandHigh float64
	BandFound bool
	TPeakC    float64
}

func getStatistics(dir string, l int, res *cising.ScanResult) error {
	stats := Statistics{L: l}
	stats.TBandLow, stats.TBandHigh, stats.BandFound = cising.CriticalBand(res.Temperatures, res.U4, cising.DefaultBandLow, cising.DefaultBandHigh)

	peakC := math.Inf(-1)
	for i, c := range res.C {
		if c > peakC {
			peakC = c
			stats.TPeakC = res.Temperatures[i]
		}
	}

	b, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, "")
	}
	sPath := filepath.Join(dir, fnameStatistics)
	if err := os.WriteFile(sPath, b, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func writeResults(dir string, l int, res *cising.ScanResult) error {
	db, err := store.Open(filepath.Join(dir, fnameResults))
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()

	for i, t := range res.Temperatures {
		rec := store.Record{
			L:     l,
			T:     t,
			C:     res.C[i],
			Chi:   res.Chi[i],
			U4:    res.U4[i],
			EMean: res.EMean[i],
			MMean: res.MMean[i],
		}
		if err := db.Put(rec); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}

func solve(dir string, l int) error {
	donePath := filepath.Join(dir, fnameDone)
	if _, err := os.Stat(donePath); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	cfg := cising.DefaultConfig(l)
	sc := cising.ScanConfig{
		TMin: tMin, TMax: tMax, Points: scanPoints,
		Workers: *workers,
		Progress: func(i int, t float64) {
			log.Printf("L=%d T=%.3f (%d/%d)", l, t, i+1, scanPoints)
		},
	}
	res, err := cising.Scan(cfg, sc, *seed)
	if err != nil {
		return errors.Wrap(err, "")
	}

	if err := writeResults(dir, l, res); err != nil {
		return errors.Wrap(err, "")
	}
	if err := getStatistics(dir, l, res); err != nil {
		return errors.Wrap(err, "")
	}

	if err := os.WriteFile(donePath, nil, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func gather(dir string) ([]store.Record, []Statistics, error) {
	recs := make([]store.Record, 0)
	stats := make([]Statistics, 0)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, errors.Wrap(err, "")
	}
	for _, ent := range entries {
		l, err := strconv.Atoi(ent.Name())
		if err != nil {
			return nil, nil, errors.Wrap(err, fmt.Sprintf("%#v", ent))
		}

		ldir := filepath.Join(dir, ent.Name())
		db, err := store.Open(filepath.Join(ldir, fnameResults))
		if err != nil {
			return nil, nil, errors.Wrap(err, fmt.Sprintf("%#v", ent))
		}
		lrecs, err := db.List(l)
		if err1 := db.Close(); err1 != nil && err == nil {
			err = err1
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, fmt.Sprintf("%#v", ent))
		}
		recs = append(recs, lrecs...)

		sb, err := os.ReadFile(filepath.Join(ldir, fnameStatistics))
		if err != nil {
			return nil, nil, errors.Wrap(err, fmt.Sprintf("%#v", ent))
		}
		s := Statistics{}
		if err := json.Unmarshal(sb, &s); err != nil {
			return nil, nil, errors.Wrap(err, fmt.Sprintf("%#v", ent))
		}
		stats = append(stats, s)
	}
	return recs, stats, nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	if err := os.MkdirAll(*runDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	// System sizes of Figure 1.
	for _, l := range []int{8, 12, 16} {
		dir := filepath.Join(*runDir, strconv.Itoa(l))
		if err := solve(dir, l); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%d", l))
		}
		log.Printf("L=%d done", l)
	}

	// Gather results and print them.
	recs, stats, err := gather(*runDir)
	if err != nil {
		return errors.Wrap(err, "")
	}
	fmt.Printf("l,t,c,chi,u4,e_mean,m_mean\n")
	for _, r := range recs {
		fmt.Printf("%d,%f,%f,%f,%f,%f,%f\n", r.L, r.T, r.C, r.Chi, r.U4, r.EMean, r.MMean)
	}
	for _, s := range stats {
		switch {
		case s.BandFound:
			log.Printf("L=%d critical band [%.3f, %.3f], C peak at T=%.3f (exact %.3f)", s.L, s.TBandLow, s.TBandHigh, s.TPeakC, cising.OnsagerTc)
		default:
			log.Printf("L=%d critical band not found, C peak at T=%.3f (exact %.3f)", s.L, s.TPeakC, cising.OnsagerTc)
		}
	}
	return nil
}
