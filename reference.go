// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package pnps

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	log "github.com/sirupsen/logrus"
)

// Reference is an uppercase genome sequence. Positions passed to its
// methods are 1-based, like the region table.
type Reference string

// Codon returns the three bases starting at 1-based position pos. Near
// the end of the sequence the result is truncated, and it is empty if
// pos is out of range.
func (ref Reference) Codon(pos int) string {
	start := pos - 1
	if start < 0 || start >= len(ref) {
		return ""
	}
	end := start + 3
	if end > len(ref) {
		end = len(ref)
	}
	return string(ref[start:end])
}

// LoadReference reads the first sequence of a (possibly gzipped or
// remote) FASTA file. A missing file yields an error wrapping
// fs.ErrNotExist.
func LoadReference(fnm string) (Reference, error) {
	f, err := zopen(fnm)
	if err != nil {
		return "", fmt.Errorf("reference: %w", err)
	}
	defer f.Close()
	sc := seqio.NewScanner(fasta.NewReader(f, linear.NewSeq("", nil, alphabet.DNA)))
	if !sc.Next() {
		if err := sc.Error(); err != nil {
			return "", fmt.Errorf("reference %s: %w", fnm, err)
		}
		return "", fmt.Errorf("reference %s: %w", fnm, errNoSequence)
	}
	s, ok := sc.Seq().(*linear.Seq)
	if !ok {
		return "", fmt.Errorf("reference %s: unexpected sequence type %T", fnm, sc.Seq())
	}
	buf := make([]byte, len(s.Seq))
	for i, l := range s.Seq {
		buf[i] = byte(l)
	}
	log.Infof("reference %s: loaded %s, %d bases", fnm, s.Name(), len(buf))
	return Reference(bytes.ToUpper(buf)), nil
}

var errNoSequence = errors.New("no sequence found")
