// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package pnps

import (
	"bufio"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed regions/sarscov2.yaml
var defaultRegionsYAML []byte

// UnknownRegion is reported for positions outside every region.
const UnknownRegion = "Unknown"

// Region is a named genome interval, 1-based and inclusive.
type Region struct {
	Name  string
	Start int
	End   int
}

// codingRange drops the start and stop codons.
func (r Region) codingRange() Region {
	return Region{Name: r.Name, Start: r.Start + 3, End: r.End - 3}
}

type regionEntry struct {
	Name     string `yaml:"name"`
	Start    int    `yaml:"start"`
	End      int    `yaml:"end"`
	NoSites  bool   `yaml:"no_sites"`
	NoAssign bool   `yaml:"no_assign"`
}

// RegionTable is the ordered set of annotated regions of one genome.
type RegionTable struct {
	Genome  string        `yaml:"genome"`
	Entries []regionEntry `yaml:"regions"`
}

// LoadRegionTable reads a region table from a YAML file. An empty
// filename selects the built-in SARS-CoV-2 table.
func LoadRegionTable(fnm string) (*RegionTable, error) {
	if fnm == "" {
		return parseRegionTable(defaultRegionsYAML)
	}
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	rt, err := parseRegionTable(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	return rt, nil
}

func parseRegionTable(buf []byte) (*RegionTable, error) {
	var rt RegionTable
	if err := yaml.Unmarshal(buf, &rt); err != nil {
		return nil, err
	}
	if len(rt.Entries) == 0 {
		return nil, errors.New("region table has no regions")
	}
	seen := make(map[string]bool, len(rt.Entries))
	for i, e := range rt.Entries {
		switch {
		case e.Name == "":
			return nil, fmt.Errorf("region %d has no name", i)
		case e.Name == UnknownRegion:
			return nil, fmt.Errorf("region %d: name %q is reserved", i, e.Name)
		case seen[e.Name]:
			return nil, fmt.Errorf("duplicate region name %q", e.Name)
		case e.Start < 1 || e.End < 1:
			return nil, fmt.Errorf("region %q: coordinates must be positive", e.Name)
		}
		seen[e.Name] = true
	}
	return &rt, nil
}

// SiteRegions returns the regions used for synonymous/non-synonymous
// site counting, with start and stop codons removed. Ranges are not
// validated here: CountSites rejects empty ones.
func (rt *RegionTable) SiteRegions() []Region {
	var regions []Region
	for _, e := range rt.Entries {
		if !e.NoSites {
			regions = append(regions, Region{Name: e.Name, Start: e.Start, End: e.End}.codingRange())
		}
	}
	return regions
}

// AssignRegions returns the regions variants are assigned to, with
// their annotated coordinates.
func (rt *RegionTable) AssignRegions() []Region {
	var regions []Region
	for _, e := range rt.Entries {
		if !e.NoAssign {
			regions = append(regions, Region{Name: e.Name, Start: e.Start, End: e.End})
		}
	}
	return regions
}

type regionscmd struct{}

func (cmd *regionscmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return exitCode(cmd.run(prog, args, stdout, stderr), stderr)
}

// With no arguments, print the region table. Otherwise print the
// regions each given position is assigned to.
func (cmd *regionscmd) run(prog string, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	regionsFilename := flags.String("regions", "", "region table `file` (yaml; default: built-in SARS-CoV-2 table)")
	err := parseFlags(flags, args)
	if err != nil {
		return err
	}
	rt, err := LoadRegionTable(*regionsFilename)
	if err != nil {
		return err
	}
	bufw := bufio.NewWriter(stdout)
	if flags.NArg() == 0 {
		fmt.Fprintf(bufw, "Region;Start;End;CodingStart;CodingEnd;Sites;Assign\n")
		for _, e := range rt.Entries {
			cr := Region{Start: e.Start, End: e.End}.codingRange()
			fmt.Fprintf(bufw, "%s;%d;%d;%d;%d;%v;%v\n", e.Name, e.Start, e.End, cr.Start, cr.End, !e.NoSites, !e.NoAssign)
		}
		return bufw.Flush()
	}
	idx := newRegionIndex(rt.AssignRegions())
	fmt.Fprintf(bufw, "POS;Region\n")
	for _, arg := range flags.Args() {
		pos, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(stderr, "invalid position %q\n", arg)
			return errUsage
		}
		for _, name := range idx.Assign(pos) {
			fmt.Fprintf(bufw, "%d;%s\n", pos, name)
		}
	}
	return bufw.Flush()
}
