// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package pnps

import (
	"sort"
)

type interval struct {
	start int
	end   int
	idx   int // index in regionIndex.names
}

type intervalTreeNode struct {
	interval interval
	maxend   int
}

// intervalTree is an implicit binary tree (children of node i are
// 2i+1 and 2i+2) of intervals sorted by start. Unused slots have
// maxend == -1.
type intervalTree []intervalTreeNode

// regionIndex finds all regions containing a genome position.
type regionIndex struct {
	names []string
	itree intervalTree
}

func newRegionIndex(regions []Region) *regionIndex {
	ri := &regionIndex{names: make([]string, len(regions))}
	in := make([]interval, len(regions))
	for i, r := range regions {
		ri.names[i] = r.Name
		in[i] = interval{start: r.Start, end: r.End, idx: i}
	}
	ri.itree = buildIntervalTree(in)
	return ri
}

// Assign returns the names of all regions whose [start, end] contains
// pos, in region table order, or UnknownRegion if there are none.
func (ri *regionIndex) Assign(pos int) []string {
	found := ri.itree.collect(0, pos, nil)
	if len(found) == 0 {
		return []string{UnknownRegion}
	}
	sort.Ints(found)
	names := make([]string, len(found))
	for i, idx := range found {
		names[i] = ri.names[idx]
	}
	return names
}

func buildIntervalTree(in []interval) intervalTree {
	if len(in) == 0 {
		return nil
	}
	sort.SliceStable(in, func(i, j int) bool {
		return in[i].start < in[j].start
	})
	itreesize := 1
	for itreesize < len(in) {
		itreesize = itreesize * 2
	}
	itree := make(intervalTree, itreesize*2)
	for i := range itree {
		itree[i].maxend = -1
	}
	itree.importSlice(0, in)
	return itree
}

func (itree intervalTree) importSlice(root int, in []interval) int {
	mid := len(in) / 2
	node := intervalTreeNode{interval: in[mid], maxend: in[mid].end}
	if mid > 0 {
		end := itree.importSlice(root*2+1, in[0:mid])
		if end > node.maxend {
			node.maxend = end
		}
	}
	if mid+1 < len(in) {
		end := itree.importSlice(root*2+2, in[mid+1:])
		if end > node.maxend {
			node.maxend = end
		}
	}
	itree[root] = node
	return node.maxend
}

func (itree intervalTree) collect(root, pos int, found []int) []int {
	if root >= len(itree) || itree[root].maxend < pos {
		return found
	}
	node := itree[root]
	found = itree.collect(root*2+1, pos, found)
	if node.interval.start <= pos && node.interval.end >= pos {
		found = append(found, node.interval.idx)
	}
	if node.interval.start <= pos {
		found = itree.collect(root*2+2, pos, found)
	}
	return found
}

// regionCall is one variant attributed to one region. A variant inside
// overlapping regions yields one regionCall per region.
type regionCall struct {
	VariantRecord
	Region string
}

func fanOut(idx *regionIndex, records []VariantRecord) []regionCall {
	calls := make([]regionCall, 0, len(records))
	for _, rec := range records {
		for _, name := range idx.Assign(rec.Pos) {
			calls = append(calls, regionCall{VariantRecord: rec, Region: name})
		}
	}
	return calls
}
