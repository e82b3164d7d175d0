// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package pnps

import (
	"bytes"

	"github.com/kshedden/gonpy"
	"gopkg.in/check.v1"
)

type aggregateSuite struct{}

var _ = check.Suite(&aggregateSuite{})

func (s *aggregateSuite) TestClassify(c *check.C) {
	for _, trial := range []struct {
		ref, alt    string
		syn, nonsyn int
	}{
		{"K", "K", 1, 0},
		{"K", "T", 0, 1},
		{"", "T", 0, 1},
		{"K", "", 0, 0},
		{"", "", 0, 0},
	} {
		syn, nonsyn := classify(VariantRecord{RefAA: trial.ref, AltAA: trial.alt})
		c.Check(syn, check.Equals, trial.syn)
		c.Check(nonsyn, check.Equals, trial.nonsyn)
	}
}

func (s *aggregateSuite) TestAggregatePool(c *check.C) {
	counts := aggregatePool([]regionCall{
		{VariantRecord{Sample: "s1", RefAA: "K", AltAA: "K"}, "N"},
		{VariantRecord{Sample: "s1", RefAA: "K", AltAA: "T"}, "N"},
		{VariantRecord{Sample: "s1", RefAA: "K", AltAA: "T"}, "ORF9b"},
		{VariantRecord{Sample: "s2"}, UnknownRegion},
	})
	c.Check(counts, check.DeepEquals, map[countKey]synCount{
		{"s1", "N"}:           {Syn: 1, NonSyn: 1},
		{"s1", "ORF9b"}:       {Syn: 0, NonSyn: 1},
		{"s2", UnknownRegion}: {},
	})
}

func (s *aggregateSuite) TestMerge(c *check.C) {
	var perPool [numPools]map[countKey]synCount
	perPool[PoolISNVExcluded] = map[countKey]synCount{
		{"s2", "S"}: {Syn: 2, NonSyn: 3},
		{"s1", "S"}: {Syn: 1},
	}
	perPool[PoolSNPTotal] = map[countKey]synCount{
		{"s1", "S"}: {NonSyn: 4},
		{"s1", "N"}: {Syn: 5},
	}
	rows := mergeCounts(perPool)
	c.Check(rows, check.DeepEquals, []CountRow{
		{Sample: "s1", Region: "N", Syn: [numPools]int{0, 0, 0, 5}},
		{Sample: "s1", Region: "S", Syn: [numPools]int{1, 0, 0, 0}, NonSyn: [numPools]int{0, 0, 0, 4}},
		{Sample: "s2", Region: "S", Syn: [numPools]int{2, 0, 0, 0}, NonSyn: [numPools]int{3, 0, 0, 0}},
	})

	var buf bytes.Buffer
	c.Assert(writeCountRows(&buf, rows), check.IsNil)
	c.Check(buf.String(), check.Equals, `Sample;Region;Synonymous_iSNV_WH;NonSynonymous_iSNV_WH;Synonymous_iSNV_TOT;NonSynonymous_iSNV_TOT;Synonymous_SNP_WH;NonSynonymous_SNP_WH;Synonymous_SNP_TOT;NonSynonymous_SNP_TOT
s1;N;0;0;0;0;0;0;5;0
s1;S;1;0;0;0;0;0;0;4
s2;S;2;3;0;0;0;0;0;0
`)

	buf.Reset()
	c.Assert(writeCountMatrix(&buf, rows), check.IsNil)
	npy, err := gonpy.NewReader(&buf)
	c.Assert(err, check.IsNil)
	c.Check(npy.Shape, check.DeepEquals, []int{3, 8})
	data, err := npy.GetInt64()
	c.Assert(err, check.IsNil)
	c.Check(data[:8], check.DeepEquals, []int64{0, 0, 0, 0, 0, 0, 5, 0})
	c.Check(data[16:], check.DeepEquals, []int64{2, 3, 0, 0, 0, 0, 0, 0})
}

func (s *aggregateSuite) TestMergeEmpty(c *check.C) {
	var perPool [numPools]map[countKey]synCount
	c.Check(mergeCounts(perPool), check.HasLen, 0)
}
