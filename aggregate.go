// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package pnps

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/kshedden/gonpy"
	log "github.com/sirupsen/logrus"
)

type countKey struct {
	Sample string
	Region string
}

type synCount struct {
	Syn    int
	NonSyn int
}

// CountRow holds the synonymous and non-synonymous mutation counts of
// one (sample, region) pair in each pool, indexed by Pool.
type CountRow struct {
	Sample string
	Region string
	Syn    [numPools]int
	NonSyn [numPools]int
}

// classify returns (1, 0) for a synonymous call, (0, 1) for a
// non-synonymous one, and (0, 0) when the alternate amino acid is
// unknown (non-coding position).
func classify(rec VariantRecord) (syn, nonsyn int) {
	switch {
	case rec.AltAA == "":
		return 0, 0
	case rec.AltAA == rec.RefAA:
		return 1, 0
	default:
		return 0, 1
	}
}

// aggregatePool sums classified calls per (sample, region). Calls that
// classify as neither still create their key.
func aggregatePool(calls []regionCall) map[countKey]synCount {
	counts := map[countKey]synCount{}
	for _, call := range calls {
		key := countKey{Sample: call.Sample, Region: call.Region}
		syn, nonsyn := classify(call.VariantRecord)
		sc := counts[key]
		sc.Syn += syn
		sc.NonSyn += nonsyn
		counts[key] = sc
	}
	return counts
}

// mergeCounts joins the per-pool counts on (sample, region). A key
// absent from a pool gets zero counts for it. A nil map stands for a
// pool with no data. Rows are sorted by sample, then region.
func mergeCounts(perPool [numPools]map[countKey]synCount) []CountRow {
	rows := map[countKey]*CountRow{}
	for p, counts := range perPool {
		for key, sc := range counts {
			row := rows[key]
			if row == nil {
				row = &CountRow{Sample: key.Sample, Region: key.Region}
				rows[key] = row
			}
			row.Syn[p] = sc.Syn
			row.NonSyn[p] = sc.NonSyn
		}
	}
	out := make([]CountRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sample != out[j].Sample {
			return out[i].Sample < out[j].Sample
		}
		return out[i].Region < out[j].Region
	})
	return out
}

func writeCountRows(w io.Writer, rows []CountRow) error {
	bufw := bufio.NewWriter(w)
	fmt.Fprint(bufw, "Sample;Region")
	for _, p := range Pools {
		fmt.Fprintf(bufw, ";Synonymous_%s;NonSynonymous_%s", p, p)
	}
	fmt.Fprint(bufw, "\n")
	for _, row := range rows {
		fmt.Fprintf(bufw, "%s;%s", row.Sample, row.Region)
		for _, p := range Pools {
			fmt.Fprintf(bufw, ";%d;%d", row.Syn[p], row.NonSyn[p])
		}
		fmt.Fprint(bufw, "\n")
	}
	return bufw.Flush()
}

// writeCountMatrix writes the counts as a rows x 8 int64 array, with
// columns in the same order as the CSV output.
func writeCountMatrix(w io.Writer, rows []CountRow) error {
	cols := 2 * len(Pools)
	out := make([]int64, 0, len(rows)*cols)
	for _, row := range rows {
		for _, p := range Pools {
			out = append(out, int64(row.Syn[p]), int64(row.NonSyn[p]))
		}
	}
	npw, err := gonpy.NewWriter(nopCloser{w})
	if err != nil {
		return fmt.Errorf("gonpy.NewWriter: %w", err)
	}
	npw.Shape = []int{len(rows), cols}
	err = npw.WriteInt64(out)
	if err != nil {
		return fmt.Errorf("WriteInt64: %w", err)
	}
	return nil
}

// readPool loads one pool table written by filter-pools. A missing
// file yields (nil, nil).
func readPool(fnm string, required ...string) ([]VariantRecord, error) {
	f, err := zopen(fnm)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warnf("pool file %s not found, skipped", fnm)
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	return readPoolTable(f, fnm, required...)
}

type countMutations struct{}

func (cmd *countMutations) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return exitCode(cmd.run(prog, args, stdout, stderr), stderr)
}

func (cmd *countMutations) run(prog string, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputDir := flags.String("input-dir", ".", "`directory` containing the filtered_<pool>.csv files")
	regionsFilename := flags.String("regions", "", "region table `file` (yaml; default: built-in SARS-CoV-2 table)")
	outputDir := flags.String("output-dir", ".", "output `directory`")
	outputFilename := flags.String("o", "pN_pS_mutations_final.csv", "output `file` name, relative to -output-dir (\"-\" for stdout)")
	npyFilename := flags.String("npy", "", "also write the count matrix to numpy `file`, relative to -output-dir")
	loglevel := flags.String("loglevel", "info", "logging threshold (trace, debug, info, warn, error, fatal, or panic)")
	err := parseFlags(flags, args)
	if err != nil {
		return err
	} else if flags.NArg() > 0 {
		fmt.Fprintf(stderr, "errant command line arguments after parsed flags: %v\n", flags.Args())
		return errUsage
	}
	if err = setLogLevel(*loglevel); err != nil {
		return err
	}

	rt, err := LoadRegionTable(*regionsFilename)
	if err != nil {
		return err
	}
	idx := newRegionIndex(rt.AssignRegions())

	var perPool [numPools]map[countKey]synCount
	for _, p := range Pools {
		fnm := poolFilename(*inputDir, p)
		recs, err := readPool(fnm, "REF_AA", "ALT_AA")
		var colerr *ColumnsError
		var valerr *ValueError
		if errors.As(err, &colerr) || errors.As(err, &valerr) {
			log.Warnf("pool %s skipped: %s", p, err)
			continue
		} else if err != nil {
			return err
		} else if recs == nil {
			continue
		}
		calls := fanOut(idx, recs)
		perPool[p] = aggregatePool(calls)
		log.Infof("%s: %d calls, %d region assignments, %d (sample, region) pairs", p, len(recs), len(calls), len(perPool[p]))
	}
	rows := mergeCounts(perPool)

	fnm := *outputFilename
	if fnm != "-" {
		fnm = filepath.Join(*outputDir, fnm)
	}
	out, err := createOutput(fnm, stdout)
	if err != nil {
		return err
	}
	defer out.Close()
	if err = writeCountRows(out, rows); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	log.Infof("wrote %d rows to %s", len(rows), fnm)

	if *npyFilename != "" {
		fnm := filepath.Join(*outputDir, *npyFilename)
		err = writeOutputFile(fnm, func(w io.Writer) error {
			return writeCountMatrix(w, rows)
		})
		if err != nil {
			return err
		}
		log.Infof("wrote %d x %d matrix to %s", len(rows), 2*len(Pools), fnm)
	}
	return nil
}
