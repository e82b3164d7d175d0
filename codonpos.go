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
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// mutationClasses are the base changes broken down per codon position.
// C>G is not tracked; such changes only count toward position totals.
var mutationClasses = []string{"C>T", "G>A", "T>C", "A>G", "G>T", "A>T", "C>A", "G>C", "A>C", "T>G", "T>A"}

var mutationClassIndex = func() map[string]int {
	m := make(map[string]int, len(mutationClasses))
	for i, class := range mutationClasses {
		m[class] = i
	}
	return m
}()

// codonChange returns the 0-based index of the first position where
// the two codons differ and the base change there, e.g. "G>A". ok is
// false if either codon is not exactly three bases or they are equal.
func codonChange(ref, alt string) (pos int, class string, ok bool) {
	ref, alt = strings.ToUpper(ref), strings.ToUpper(alt)
	if len(ref) != 3 || len(alt) != 3 {
		return 0, "", false
	}
	for i := 0; i < 3; i++ {
		if ref[i] != alt[i] {
			return i, string([]byte{ref[i], '>', alt[i]}), true
		}
	}
	return 0, "", false
}

// CodonPositionReport summarizes where in the codon one pool's
// mutations fall.
type CodonPositionReport struct {
	Pool      Pool
	Positions [3]int   // all changes, by codon position
	Classes   [][3]int // indexed like mutationClasses
	PValue    float64  // uniformity of Positions
}

// AnalyzeCodonPositions counts codon positions of recs, considering
// only the first changed base of each record.
func AnalyzeCodonPositions(pool Pool, recs []VariantRecord) CodonPositionReport {
	rep := CodonPositionReport{
		Pool:    pool,
		Classes: make([][3]int, len(mutationClasses)),
	}
	for _, rec := range recs {
		pos, class, ok := codonChange(rec.RefCodon, rec.AltCodon)
		if !ok {
			continue
		}
		rep.Positions[pos]++
		if ci, ok := mutationClassIndex[class]; ok {
			rep.Classes[ci][pos]++
		}
	}
	rep.PValue = uniformityPvalue(rep.Positions)
	return rep
}

func writeCodonPositions(w io.Writer, reports []CodonPositionReport) error {
	bufw := bufio.NewWriter(w)
	fmt.Fprintf(bufw, "Pool;Position1;Position2;Position3;PValue\n")
	for _, rep := range reports {
		fmt.Fprintf(bufw, "%s;%d;%d;%d;%s\n", rep.Pool, rep.Positions[0], rep.Positions[1], rep.Positions[2],
			strconv.FormatFloat(rep.PValue, 'g', -1, 64))
	}
	return bufw.Flush()
}

func writeCodonPositionClasses(w io.Writer, reports []CodonPositionReport) error {
	bufw := bufio.NewWriter(w)
	fmt.Fprintf(bufw, "Pool;Class;Position1;Position2;Position3\n")
	for _, rep := range reports {
		for ci, class := range mutationClasses {
			n := rep.Classes[ci]
			fmt.Fprintf(bufw, "%s;%s;%d;%d;%d\n", rep.Pool, class, n[0], n[1], n[2])
		}
	}
	return bufw.Flush()
}

type codonPosition struct{}

func (cmd *codonPosition) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return exitCode(cmd.run(prog, args, stdout, stderr), stderr)
}

func (cmd *codonPosition) run(prog string, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputDir := flags.String("input-dir", ".", "`directory` containing the filtered_<pool>.csv files")
	outputDir := flags.String("output-dir", ".", "output `directory`")
	noPlots := flags.Bool("no-plots", false, "write the summary tables only")
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

	reports := make([]CodonPositionReport, 0, len(Pools))
	for _, p := range Pools {
		recs, err := readPool(poolFilename(*inputDir, p), "REF_CODON", "ALT_CODON")
		var colerr *ColumnsError
		var valerr *ValueError
		if errors.As(err, &colerr) || errors.As(err, &valerr) {
			log.Warnf("pool %s skipped: %s", p, err)
			recs = nil
		} else if err != nil {
			return err
		}
		rep := AnalyzeCodonPositions(p, recs)
		log.Infof("%-8s positions %v p = %.4f", p, rep.Positions, rep.PValue)
		reports = append(reports, rep)
	}

	for _, out := range []struct {
		name  string
		write func(io.Writer) error
	}{
		{"codon_positions.csv", func(w io.Writer) error { return writeCodonPositions(w, reports) }},
		{"codon_position_classes.csv", func(w io.Writer) error { return writeCodonPositionClasses(w, reports) }},
		{"codon_positions.png", func(w io.Writer) error { return plotCodonPositions(w, reports) }},
		{"codon_position_classes.png", func(w io.Writer) error { return plotCodonPositionClasses(w, reports) }},
	} {
		if *noPlots && strings.HasSuffix(out.name, ".png") {
			continue
		}
		fnm := filepath.Join(*outputDir, out.name)
		if err = writeOutputFile(fnm, out.write); err != nil {
			return err
		}
		log.Infof("wrote %s", fnm)
	}
	return nil
}
