// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package pnps

import (
	"bufio"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"runtime"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/viralseq/pnps/hgvs"
	"golang.org/x/crypto/blake2b"
)

// Calls below MinDepth are not trusted at any frequency.
const (
	MinDepth         = 50
	MinISNVFrequency = 0.05
	FixedFrequency   = 0.5
)

// Pool is one of the four mutation pools. iSNV pools hold intra-host
// minority variants, SNP pools hold fixed variants; the _WH pools
// exclude known marker mutations, the _TOT pools don't.
type Pool int

const (
	PoolISNVExcluded Pool = iota
	PoolISNVTotal
	PoolSNPExcluded
	PoolSNPTotal
	numPools
)

// Pools lists all pools in output order.
var Pools = []Pool{PoolISNVExcluded, PoolISNVTotal, PoolSNPExcluded, PoolSNPTotal}

var poolNames = [numPools]string{"iSNV_WH", "iSNV_TOT", "SNP_WH", "SNP_TOT"}

func (p Pool) String() string {
	if p < 0 || p >= numPools {
		return fmt.Sprintf("Pool(%d)", int(p))
	}
	return poolNames[p]
}

// poolFilename is where filter-pools writes a pool and where the
// downstream commands look for it.
func poolFilename(dir string, p Pool) string {
	return filepath.Join(dir, "filtered_"+p.String()+".csv")
}

// PoolsFor returns the pools rec belongs to. Pools overlap: every
// record in a _WH pool is also in the matching _TOT pool.
func PoolsFor(rec VariantRecord, markers MarkerSet) []Pool {
	if rec.TotalDepth < MinDepth {
		return nil
	}
	var pools []Pool
	marker := markers.Contains(rec.Pos, rec.Ref, rec.Alt)
	switch {
	case rec.AltFreq >= MinISNVFrequency && rec.AltFreq < FixedFrequency:
		if !marker {
			pools = append(pools, PoolISNVExcluded)
		}
		pools = append(pools, PoolISNVTotal)
	case rec.AltFreq >= FixedFrequency:
		if !marker {
			pools = append(pools, PoolSNPExcluded)
		}
		pools = append(pools, PoolSNPTotal)
	}
	return pools
}

// PoolSet holds the records of each pool.
type PoolSet [numPools][]VariantRecord

// FilterPools sorts one sample's calls into pools.
func FilterPools(vt *VariantTable, markers MarkerSet) PoolSet {
	var ps PoolSet
	for _, rec := range vt.Records {
		for _, p := range PoolsFor(rec, markers) {
			ps[p] = append(ps[p], rec)
		}
	}
	return ps
}

// Add appends other's records to ps.
func (ps *PoolSet) Add(other PoolSet) {
	for p := range ps {
		ps[p] = append(ps[p], other[p]...)
	}
}

var poolColumns = []string{"Sample", "POS", "REF", "ALT", "TOTAL_DP", "ALT_FREQ", "REF_CODON", "REF_AA", "ALT_CODON", "ALT_AA", "HGVS"}

func writePoolTable(w io.Writer, recs []VariantRecord) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(poolColumns); err != nil {
		return err
	}
	for _, rec := range recs {
		var notation string
		if v, err := hgvs.FromCall(rec.Pos, rec.Ref, rec.Alt); err != nil {
			log.Debugf("%s: no HGVS notation for %d %s>%s: %s", rec.Sample, rec.Pos, rec.Ref, rec.Alt, err)
		} else {
			notation = v.Genomic()
		}
		err := cw.Write([]string{
			rec.Sample,
			strconv.Itoa(rec.Pos),
			rec.Ref,
			rec.Alt,
			strconv.Itoa(rec.TotalDepth),
			strconv.FormatFloat(rec.AltFreq, 'f', -1, 64),
			rec.RefCodon,
			rec.RefAA,
			rec.AltCodon,
			rec.AltAA,
			notation,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// loadMarkers reads the marker table. A missing or malformed marker
// table is not fatal: nothing gets excluded.
func loadMarkers(fnm string) (MarkerSet, error) {
	if fnm == "" {
		return MarkerSet{}, nil
	}
	f, err := zopen(fnm)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warnf("marker file %s not found, no mutations excluded", fnm)
		return MarkerSet{}, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	ms, err := ReadMarkers(f, fnm)
	var colerr *ColumnsError
	if errors.As(err, &colerr) {
		log.Warnf("%s, no mutations excluded", colerr)
		return MarkerSet{}, nil
	} else if err != nil {
		return nil, err
	}
	log.Infof("loaded %d marker mutations from %s", len(ms), fnm)
	return ms, nil
}

type loadedTable struct {
	table  *VariantTable
	digest [blake2b.Size256]byte
}

// loadVariantTable reads one sample's table, hashing its content on
// the way so duplicate inputs can be reported.
func loadVariantTable(fnm string) (*loadedTable, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	vt, err := ReadVariantTable(io.TeeReader(f, h), fnm, sampleID(fnm))
	if err != nil {
		return nil, err
	}
	lt := &loadedTable{table: vt}
	copy(lt.digest[:], h.Sum(nil))
	return lt, nil
}

// loadVariantTables reads all inputs, skipping (with a warning) the
// ones that are missing or invalid. Tables are returned in input
// order.
func loadVariantTables(infiles []string) []*VariantTable {
	loaded := make([]*loadedTable, len(infiles))
	throttle := &throttle{Max: runtime.NumCPU()}
	for i, infile := range infiles {
		i, infile := i, infile
		throttle.Go(func() error {
			lt, err := loadVariantTable(infile)
			var colerr *ColumnsError
			var valerr *ValueError
			switch {
			case errors.Is(err, fs.ErrNotExist):
				log.Warnf("input %s not found, skipped", infile)
			case errors.As(err, &colerr):
				log.Warnf("input %s skipped: %s", infile, colerr)
			case errors.As(err, &valerr):
				log.Warnf("input %s skipped: %s", infile, valerr)
			case err != nil:
				log.Warnf("input %s skipped: %s", infile, err)
			default:
				loaded[i] = lt
			}
			return nil
		})
	}
	throttle.Wait()

	var tables []*VariantTable
	seen := map[[blake2b.Size256]byte]string{}
	for _, lt := range loaded {
		if lt == nil {
			continue
		}
		if prev, ok := seen[lt.digest]; ok {
			log.Warnf("input %s has the same content as %s", lt.table.Source, prev)
		} else {
			seen[lt.digest] = lt.table.Source
		}
		tables = append(tables, lt.table)
	}
	return tables
}

type filterPools struct{}

func (cmd *filterPools) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return exitCode(cmd.run(prog, args, stdout, stderr), stderr)
}

func (cmd *filterPools) run(prog string, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [options] variants.csv [variants.csv ...]\n", prog)
		flags.PrintDefaults()
	}
	markersFilename := flags.String("markers", "mut_markers.csv", "marker mutation `file` (POS;REF;ALT) to exclude from the _WH pools")
	outputDir := flags.String("output-dir", ".", "output `directory`")
	loglevel := flags.String("loglevel", "info", "logging threshold (trace, debug, info, warn, error, fatal, or panic)")
	err := parseFlags(flags, args)
	if err != nil {
		return err
	} else if flags.NArg() == 0 {
		flags.Usage()
		return errUsage
	}
	if err = setLogLevel(*loglevel); err != nil {
		return err
	}

	markers, err := loadMarkers(*markersFilename)
	if err != nil {
		return err
	}
	var pools PoolSet
	for _, vt := range loadVariantTables(flags.Args()) {
		ps := FilterPools(vt, markers)
		log.Infof("%s: %d calls, %d iSNV (%d without markers), %d SNP (%d without markers)", vt.Sample, len(vt.Records),
			len(ps[PoolISNVTotal]), len(ps[PoolISNVExcluded]), len(ps[PoolSNPTotal]), len(ps[PoolSNPExcluded]))
		pools.Add(ps)
	}

	for _, p := range Pools {
		fnm := poolFilename(*outputDir, p)
		if len(pools[p]) == 0 {
			log.Warnf("no result for %s, %s not written", p, fnm)
			continue
		}
		err = writeOutputFile(fnm, func(w io.Writer) error {
			return writePoolTable(w, pools[p])
		})
		if err != nil {
			return err
		}
		log.Infof("wrote %d %s calls to %s", len(pools[p]), p, fnm)
	}
	return nil
}

func writeOutputFile(fnm string, write func(io.Writer) error) error {
	f, err := createOutput(fnm, nil)
	if err != nil {
		return err
	}
	defer f.Close()
	bufw := bufio.NewWriter(f)
	if err = write(bufw); err != nil {
		return fmt.Errorf("%s: %w", fnm, err)
	}
	if err = bufw.Flush(); err != nil {
		return fmt.Errorf("%s: %w", fnm, err)
	}
	return f.Close()
}
