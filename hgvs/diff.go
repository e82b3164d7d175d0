// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package hgvs spells variant calls in HGVS genomic ("g.") notation.
package hgvs

import (
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Variant is a single substitution, insertion, deletion or delins at
// 1-based Position.
type Variant struct {
	Position int
	Ref      string
	New      string
}

func (v *Variant) String() string {
	switch {
	case len(v.New) == 0 && len(v.Ref) == 0:
		return fmt.Sprintf("%d=", v.Position)
	case len(v.New) == 0 && len(v.Ref) == 1:
		return fmt.Sprintf("%ddel", v.Position)
	case len(v.New) == 0:
		return fmt.Sprintf("%d_%ddel", v.Position, v.Position+len(v.Ref)-1)
	case len(v.Ref) == 1 && len(v.New) == 1:
		return fmt.Sprintf("%d%s>%s", v.Position, v.Ref, v.New)
	case len(v.Ref) == 0:
		return fmt.Sprintf("%d_%dins%s", v.Position-1, v.Position, v.New)
	case len(v.Ref) == 1:
		return fmt.Sprintf("%ddelins%s", v.Position, v.New)
	default:
		return fmt.Sprintf("%d_%ddelins%s", v.Position, v.Position+len(v.Ref)-1, v.New)
	}
}

// IsSubstitution reports whether v replaces exactly one base with
// another.
func (v *Variant) IsSubstitution() bool {
	return len(v.Ref) == 1 && len(v.New) == 1 && v.Ref != v.New
}

// Diff returns the one variant that turns ref into alt, with Position
// counted from the first base of ref. Bases shared at the start of
// both alleles are skipped first, then bases shared at the end, so an
// indel inside a repeat lands at its 3'-most position. ok is false if
// ref and alt are equal.
func Diff(ref, alt string) (v Variant, ok bool) {
	if ref == alt {
		return Variant{Position: 1}, false
	}
	dmp := diffmatchpatch.New()
	a, b := []rune(ref), []rune(alt)
	prefix := dmp.DiffCommonPrefix(string(a), string(b))
	a, b = a[prefix:], b[prefix:]
	suffix := dmp.DiffCommonSuffix(string(a), string(b))
	a, b = a[:len(a)-suffix], b[:len(b)-suffix]
	return Variant{Position: prefix + 1, Ref: string(a), New: string(b)}, true
}
