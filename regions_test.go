// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package pnps

import (
	"bytes"
	"os"
	"strings"

	"gopkg.in/check.v1"
)

type regionsSuite struct{}

var _ = check.Suite(&regionsSuite{})

func (s *regionsSuite) TestDefaultTable(c *check.C) {
	rt, err := LoadRegionTable("")
	c.Assert(err, check.IsNil)
	c.Check(rt.Genome, check.Equals, "NC_045512.2")

	sites := rt.SiteRegions()
	c.Check(sites, check.HasLen, 29)
	c.Check(sites[0], check.Equals, Region{Name: "orf1a", Start: 269, End: 13465})
	for _, r := range rt.AssignRegions() {
		c.Check(r.Name, check.Not(check.Equals), "orf1a")
		c.Check(r.Name, check.Not(check.Equals), "orf1b")
		if r.Name == "S" {
			c.Check(r, check.Equals, Region{Name: "S", Start: 21563, End: 25384})
		}
	}
	c.Check(rt.AssignRegions(), check.HasLen, 27)
}

func (s *regionsSuite) TestLoadFile(c *check.C) {
	rt, err := LoadRegionTable("testdata/regions.yaml")
	c.Assert(err, check.IsNil)
	c.Check(rt.Genome, check.Equals, "synthetic")
	c.Check(rt.SiteRegions(), check.DeepEquals, []Region{
		{Name: "geneA", Start: 4, End: 9},
		{Name: "geneB", Start: 10, End: 15},
		{Name: "tiny", Start: 23, End: 21},
	})
	c.Check(rt.AssignRegions(), check.DeepEquals, []Region{
		{Name: "geneA", Start: 1, End: 12},
		{Name: "geneB", Start: 7, End: 18},
	})

	_, err = LoadRegionTable("testdata/does-not-exist.yaml")
	c.Check(os.IsNotExist(err), check.Equals, true)
}

func (s *regionsSuite) TestInvalidTables(c *check.C) {
	for _, trial := range []struct {
		yaml string
		err  string
	}{
		{"regions: []", "region table has no regions"},
		{"regions:\n- {start: 1, end: 5}", "region 0 has no name"},
		{"regions:\n- {name: Unknown, start: 1, end: 5}", `region 0: name "Unknown" is reserved`},
		{"regions:\n- {name: a, start: 1, end: 5}\n- {name: a, start: 6, end: 9}", `duplicate region name "a"`},
		{"regions:\n- {name: a, start: 0, end: 5}", `region "a": coordinates must be positive`},
		{"regions: {", ".*yaml.*"},
	} {
		_, err := parseRegionTable([]byte(trial.yaml))
		c.Check(err, check.ErrorMatches, trial.err, check.Commentf("%q", trial.yaml))
	}
}

func (s *regionsSuite) TestCommand(c *check.C) {
	var stdout, stderr bytes.Buffer
	code := (&regionscmd{}).RunCommand("pnps regions", []string{"-regions", "testdata/regions.yaml"}, nil, &stdout, &stderr)
	c.Check(code, check.Equals, 0)
	c.Check(stdout.String(), check.Equals, `Region;Start;End;CodingStart;CodingEnd;Sites;Assign
geneA;1;12;4;9;true;true
geneB;7;18;10;15;true;true
tiny;20;24;23;21;true;false
`)

	stdout.Reset()
	code = (&regionscmd{}).RunCommand("pnps regions", []string{"28300", "100"}, nil, &stdout, &stderr)
	c.Check(code, check.Equals, 0)
	c.Check(stdout.String(), check.Equals, "POS;Region\n28300;N\n28300;ORF9b\n100;Unknown\n")

	stderr.Reset()
	code = (&regionscmd{}).RunCommand("pnps regions", []string{"abc"}, nil, &stdout, &stderr)
	c.Check(code, check.Equals, 2)
	c.Check(strings.Contains(stderr.String(), `invalid position "abc"`), check.Equals, true)
}
