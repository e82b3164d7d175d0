// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package hgvs

import (
	"errors"
	"strings"
)

var (
	errEmptyRef = errors.New("empty reference allele")
	errEmptyAlt = errors.New("empty alternate allele")
)

// FromCall converts a variant call at 1-based genome position pos into
// a Variant. alt may be a plain allele ("G", "GT") or an ivar-style
// indel relative to ref: "+AT" inserts AT after ref, "-AT" deletes the
// AT that follows ref.
func FromCall(pos int, ref, alt string) (Variant, error) {
	ref, alt = strings.ToUpper(ref), strings.ToUpper(alt)
	if ref == "" {
		return Variant{}, errEmptyRef
	} else if alt == "" || alt == "+" || alt == "-" {
		return Variant{}, errEmptyAlt
	}
	if v := (Variant{Position: pos, Ref: ref, New: alt}); v.IsSubstitution() {
		return v, nil
	}
	before, after := ref, alt
	switch alt[0] {
	case '+':
		after = ref + alt[1:]
	case '-':
		before = ref + alt[1:]
		after = ref
	}
	v, ok := Diff(before, after)
	if !ok {
		return Variant{Position: pos}, nil
	}
	v.Position += pos - 1
	return v, nil
}

// Genomic returns the "g." spelling of v, e.g. "g.23403A>G".
func (v *Variant) Genomic() string {
	return "g." + v.String()
}
