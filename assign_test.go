// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package pnps

import (
	"math/rand"

	"gopkg.in/check.v1"
)

type assignSuite struct{}

var _ = check.Suite(&assignSuite{})

func (s *assignSuite) TestDefaultTable(c *check.C) {
	rt, err := LoadRegionTable("")
	c.Assert(err, check.IsNil)
	idx := newRegionIndex(rt.AssignRegions())
	c.Check(idx.Assign(28300), check.DeepEquals, []string{"N", "ORF9b"})
	c.Check(idx.Assign(28284), check.DeepEquals, []string{"N", "ORF9b"})
	c.Check(idx.Assign(28000), check.DeepEquals, []string{"ORF8"})
	c.Check(idx.Assign(23403), check.DeepEquals, []string{"S"})
	c.Check(idx.Assign(100), check.DeepEquals, []string{UnknownRegion})
	c.Check(idx.Assign(29700), check.DeepEquals, []string{UnknownRegion})
	// boundaries are inclusive; nsp11 and nsp12 share 13468
	c.Check(idx.Assign(13468), check.DeepEquals, []string{"nsp11", "nsp12"})
	c.Check(idx.Assign(266), check.DeepEquals, []string{"nsp1"})
	c.Check(idx.Assign(265), check.DeepEquals, []string{UnknownRegion})
}

func (s *assignSuite) TestEmptyIndex(c *check.C) {
	idx := newRegionIndex(nil)
	c.Check(idx.Assign(1), check.DeepEquals, []string{UnknownRegion})
}

// Compare the interval tree against a linear scan.
func (s *assignSuite) TestRandomRegions(c *check.C) {
	for trial := 0; trial < 20; trial++ {
		regions := make([]Region, 1+rand.Intn(100))
		for i := range regions {
			start := 1 + rand.Intn(10000)
			regions[i] = Region{Name: string(rune('a'+i%26)) + string(rune('0'+i/26)), Start: start, End: start + rand.Intn(2000)}
		}
		idx := newRegionIndex(regions)
		for i := 0; i < 1000; i++ {
			pos := rand.Intn(13000)
			var expect []string
			for _, r := range regions {
				if r.Start <= pos && pos <= r.End {
					expect = append(expect, r.Name)
				}
			}
			if expect == nil {
				expect = []string{UnknownRegion}
			}
			c.Check(idx.Assign(pos), check.DeepEquals, expect, check.Commentf("trial %d pos %d", trial, pos))
		}
	}
}

func (s *assignSuite) TestFanOut(c *check.C) {
	idx := newRegionIndex([]Region{
		{Name: "N", Start: 28274, End: 29533},
		{Name: "ORF9b", Start: 28284, End: 28577},
	})
	calls := fanOut(idx, []VariantRecord{
		{Sample: "s1", Pos: 28300, AltAA: "L"},
		{Sample: "s1", Pos: 100},
		{Sample: "s1", Pos: 29000},
	})
	c.Assert(calls, check.HasLen, 4)
	c.Check(calls[0].Region, check.Equals, "N")
	c.Check(calls[1].Region, check.Equals, "ORF9b")
	c.Check(calls[1].AltAA, check.Equals, "L")
	c.Check(calls[2].Region, check.Equals, UnknownRegion)
	c.Check(calls[3].Region, check.Equals, "N")
}
