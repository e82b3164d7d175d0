// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package pnps

import (
	"bytes"
	"math"
	"strings"

	"gopkg.in/check.v1"
)

type sitesSuite struct{}

var _ = check.Suite(&sitesSuite{})

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func (s *sitesSuite) TestCodonSiteSum(c *check.C) {
	for codon := range codonTable {
		syn, nonsyn, ok := codonSites(codon)
		if _, sense := translate(codon); !sense {
			c.Check(ok, check.Equals, false, check.Commentf("%s", codon))
			continue
		}
		c.Assert(ok, check.Equals, true)
		stops := 0
		for i := 0; i < 3; i++ {
			for _, b := range bases {
				mutant := []byte(codon)
				if mutant[i] == b {
					continue
				}
				mutant[i] = b
				if codonTable[string(mutant)] == '*' {
					stops++
				}
			}
		}
		c.Check(closeTo(syn+nonsyn, 3-float64(stops)/3), check.Equals, true, check.Commentf("%s: %v + %v, %d stops", codon, syn, nonsyn, stops))
	}
}

func (s *sitesSuite) TestCodonSites(c *check.C) {
	for _, trial := range []struct {
		codon       string
		syn, nonsyn float64
	}{
		{"ATG", 0, 3},
		{"TGG", 0, 7.0 / 3},
		{"GGG", 1, 2},
		{"AAA", 1.0 / 3, 7.0 / 3},
		{"CTG", 4.0 / 3, 5.0 / 3},
	} {
		syn, nonsyn, ok := codonSites(trial.codon)
		c.Check(ok, check.Equals, true)
		c.Check(closeTo(syn, trial.syn), check.Equals, true, check.Commentf("%s syn %v", trial.codon, syn))
		c.Check(closeTo(nonsyn, trial.nonsyn), check.Equals, true, check.Commentf("%s nonsyn %v", trial.codon, nonsyn))
	}
	for _, codon := range []string{"TAA", "NNN", "AT", ""} {
		_, _, ok := codonSites(codon)
		c.Check(ok, check.Equals, false, check.Commentf("%q", codon))
	}
}

func (s *sitesSuite) TestCountSites(c *check.C) {
	ref := Reference("ATGAAATTTTAAGGGCCCAAACCCGGGTTT")
	sc, err := CountSites(ref, Region{Name: "geneA", Start: 1, End: 12}.codingRange())
	c.Assert(err, check.IsNil)
	c.Check(sc.Region, check.Equals, "geneA")
	c.Check(closeTo(sc.Synonymous, 2.0/3), check.Equals, true)
	c.Check(closeTo(sc.NonSynonymous, 5), check.Equals, true)

	// stop codon at 10 is skipped
	sc, err = CountSites(ref, Region{Name: "geneB", Start: 7, End: 18}.codingRange())
	c.Assert(err, check.IsNil)
	c.Check(closeTo(sc.Synonymous, 1), check.Equals, true)
	c.Check(closeTo(sc.NonSynonymous, 2), check.Equals, true)

	// truncated codon at the end of the reference is skipped
	sc, err = CountSites(ref, Region{Name: "tail", Start: 29, End: 40})
	c.Assert(err, check.IsNil)
	c.Check(sc.Synonymous, check.Equals, 0.0)
	c.Check(sc.NonSynonymous, check.Equals, 0.0)
}

func (s *sitesSuite) TestInvalidRegion(c *check.C) {
	ref := Reference("ATGAAATTTTAAGGGCCCAAACCCGGGTTT")
	_, err := CountSites(ref, Region{Name: "tiny", Start: 20, End: 24}.codingRange())
	c.Check(err, check.FitsTypeOf, &InvalidRegionError{})

	counts := countSitesTable(ref, []Region{
		{Name: "geneA", Start: 4, End: 9},
		{Name: "tiny", Start: 23, End: 21},
		{Name: "geneB", Start: 10, End: 15},
	})
	c.Assert(counts, check.HasLen, 2)
	c.Check(counts[0].Region, check.Equals, "geneA")
	c.Check(counts[1].Region, check.Equals, "geneB")

	var buf bytes.Buffer
	c.Assert(writeSiteCounts(&buf, counts[1:]), check.IsNil)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	c.Check(lines, check.HasLen, 2)
	c.Check(lines[0], check.Equals, "Region;SynonymousSites;NonSynonymousSites")
	c.Check(strings.HasPrefix(lines[1], "geneB;"), check.Equals, true)
}
