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
	"runtime"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// SiteCount holds the synonymous and non-synonymous site totals of a
// region, in Nei-Gojobori thirds.
type SiteCount struct {
	Region        string
	Synonymous    float64
	NonSynonymous float64
}

// InvalidRegionError is returned for a region with start >= end.
type InvalidRegionError struct {
	Region Region
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("region %s invalid (start %d >= end %d), skipped", e.Region.Name, e.Region.Start, e.Region.End)
}

// codonSites returns the site contributions of the 9 single-base
// mutants of codon. Mutants that are stop codons contribute nothing,
// so syn+nonsyn is 3 minus 1/3 per stop mutant. ok is false if codon
// itself is not translatable.
func codonSites(codon string) (syn, nonsyn float64, ok bool) {
	aa, ok := translate(codon)
	if !ok {
		return 0, 0, false
	}
	mutant := []byte(codon)
	for i := 0; i < 3; i++ {
		orig := mutant[i]
		for _, b := range bases {
			if b == orig {
				continue
			}
			mutant[i] = b
			if mutaa, ok := translate(string(mutant)); !ok {
				continue
			} else if mutaa == aa {
				syn += 1.0 / 3
			} else {
				nonsyn += 1.0 / 3
			}
		}
		mutant[i] = orig
	}
	return syn, nonsyn, true
}

// CountSites walks region (already trimmed to its coding range) codon
// by codon and totals the synonymous and non-synonymous sites.
// Truncated and untranslatable codons are skipped.
func CountSites(ref Reference, region Region) (SiteCount, error) {
	sc := SiteCount{Region: region.Name}
	if region.Start >= region.End {
		return sc, &InvalidRegionError{Region: region}
	}
	for pos := region.Start; pos < region.End; pos += 3 {
		syn, nonsyn, ok := codonSites(ref.Codon(pos))
		if !ok {
			continue
		}
		sc.Synonymous += syn
		sc.NonSynonymous += nonsyn
	}
	return sc, nil
}

// countSitesTable runs CountSites on every region, skipping invalid
// ones with a warning. Results are in region order.
func countSitesTable(ref Reference, regions []Region) []SiteCount {
	results := make([]SiteCount, len(regions))
	valid := make([]bool, len(regions))
	throttle := &throttle{Max: runtime.NumCPU()}
	for i, region := range regions {
		i, region := i, region
		throttle.Go(func() error {
			sc, err := CountSites(ref, region)
			var invalid *InvalidRegionError
			if errors.As(err, &invalid) {
				log.Warn(err)
				return nil
			}
			results[i], valid[i] = sc, true
			return nil
		})
	}
	throttle.Wait()
	var out []SiteCount
	for i, sc := range results {
		if valid[i] {
			out = append(out, sc)
		}
	}
	return out
}

func writeSiteCounts(w io.Writer, counts []SiteCount) error {
	bufw := bufio.NewWriter(w)
	fmt.Fprintf(bufw, "Region;SynonymousSites;NonSynonymousSites\n")
	for _, sc := range counts {
		fmt.Fprintf(bufw, "%s;%s;%s\n", sc.Region,
			strconv.FormatFloat(sc.Synonymous, 'f', -1, 64),
			strconv.FormatFloat(sc.NonSynonymous, 'f', -1, 64))
	}
	return bufw.Flush()
}

type sitescmd struct{}

func (cmd *sitescmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return exitCode(cmd.run(prog, args, stdout, stderr), stderr)
}

func (cmd *sitescmd) run(prog string, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	refFilename := flags.String("ref", "Wuhan.fasta", "reference fasta `file`")
	regionsFilename := flags.String("regions", "", "region table `file` (yaml; default: built-in SARS-CoV-2 table)")
	outputDir := flags.String("output-dir", ".", "output `directory`")
	outputFilename := flags.String("o", "sites_syn_nonsyn.csv", "output `file` name, relative to -output-dir (\"-\" for stdout)")
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
	ref, err := LoadReference(*refFilename)
	if err != nil {
		return err
	}
	counts := countSitesTable(ref, rt.SiteRegions())
	for _, sc := range counts {
		log.Infof("%-8s synonymous %10.3f non-synonymous %10.3f", sc.Region, sc.Synonymous, sc.NonSynonymous)
	}

	fnm := *outputFilename
	if fnm != "-" {
		fnm = filepath.Join(*outputDir, fnm)
	}
	out, err := createOutput(fnm, stdout)
	if err != nil {
		return err
	}
	defer out.Close()
	if err = writeSiteCounts(out, counts); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	log.Infof("wrote %s", fnm)
	return nil
}
