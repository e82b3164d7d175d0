// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package pnps

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// VariantRecord is one variant call of one sample. Text fields are
// empty when the table has no value (e.g. ALT_AA outside coding
// regions). TotalDepth is -1 and AltFreq is NaN when missing, so a
// missing value never passes a threshold.
type VariantRecord struct {
	Sample     string
	Pos        int
	Ref        string
	Alt        string
	TotalDepth int
	AltFreq    float64
	RefCodon   string
	AltCodon   string
	RefAA      string
	AltAA      string
}

// VariantTable is a decoded and validated variant table of one sample.
type VariantTable struct {
	Source  string
	Sample  string
	Records []VariantRecord
}

var variantColumns = []string{"POS", "REF", "ALT", "TOTAL_DP", "ALT_FREQ", "REF_CODON", "ALT_CODON", "REF_AA", "ALT_AA"}

var naValues = []string{"", "NA", "NaN", "nan", "<NA>"}

// ColumnsError reports a table without some required columns. Such a
// table is rejected as a whole.
type ColumnsError struct {
	Source  string
	Missing []string
}

func (e *ColumnsError) Error() string {
	return fmt.Sprintf("%s: missing columns: %s", e.Source, strings.Join(e.Missing, ", "))
}

// ValueError reports a cell that cannot be parsed as the column's type.
type ValueError struct {
	Source string
	Row    int // 1-based, not counting the header
	Column string
	Value  string
	Err    error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: row %d: column %s: invalid value %q: %s", e.Source, e.Row, e.Column, e.Value, e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }

// table is a semicolon-delimited CSV read as strings, with header
// names trimmed of surrounding whitespace.
type table struct {
	source string
	df     dataframe.DataFrame
	cols   map[string]string // trimmed name => name in df
}

func decodeTable(r io.Reader, source string, required []string) (*table, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	df := dataframe.ReadCSV(bytes.NewReader(buf),
		dataframe.WithDelimiter(';'),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(naValues))
	if df.Err != nil {
		// gota refuses a table without data rows, which is a valid
		// (empty) table here.
		header, ok := headerOnly(buf)
		if !ok {
			return nil, fmt.Errorf("%s: %w", source, df.Err)
		}
		df, err = emptyFrame(header)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
	}
	t := &table{source: source, df: df, cols: map[string]string{}}
	for _, name := range df.Names() {
		t.cols[strings.TrimSpace(name)] = name
	}
	var missing []string
	for _, name := range required {
		if _, ok := t.cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &ColumnsError{Source: source, Missing: missing}
	}
	return t, nil
}

// headerOnly returns the header of a table that has no data rows. ok
// is false if buf has data rows or is not valid CSV.
func headerOnly(buf []byte) (header []string, ok bool) {
	cr := csv.NewReader(bytes.NewReader(buf))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil || len(rows) > 1 {
		return nil, false
	}
	if len(rows) == 1 {
		header = rows[0]
	}
	return header, true
}

func emptyFrame(header []string) (dataframe.DataFrame, error) {
	if len(header) == 0 {
		return dataframe.DataFrame{}, nil
	}
	cols := make([]series.Series, len(header))
	for i, name := range header {
		cols[i] = series.New([]string{}, series.String, name)
	}
	df := dataframe.New(cols...)
	return df, df.Err
}

func (t *table) has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// text returns a column's values, with missing values as "".
func (t *table) text(name string) []string {
	col := t.df.Col(t.cols[name])
	out := make([]string, col.Len())
	for i := range out {
		e := col.Elem(i)
		if e.IsNA() {
			continue
		}
		if v := strings.TrimSpace(e.String()); !isNA(v) {
			out[i] = v
		}
	}
	return out
}

// integers returns a column's values, with missing values as
// missingValue. Integral floats ("50.0") are accepted.
func (t *table) integers(name string, missingValue int) ([]int, error) {
	vals := t.text(name)
	out := make([]int, len(vals))
	for i, v := range vals {
		if v == "" {
			out[i] = missingValue
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			f, ferr := strconv.ParseFloat(v, 64)
			if ferr != nil || f != math.Trunc(f) {
				return nil, &ValueError{Source: t.source, Row: i + 1, Column: name, Value: v, Err: err}
			}
			n = int(f)
		}
		out[i] = n
	}
	return out, nil
}

// floats returns a column's values, with missing values as NaN.
func (t *table) floats(name string) ([]float64, error) {
	vals := t.text(name)
	out := make([]float64, len(vals))
	for i, v := range vals {
		if v == "" {
			out[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &ValueError{Source: t.source, Row: i + 1, Column: name, Value: v, Err: err}
		}
		out[i] = f
	}
	return out, nil
}

func isNA(v string) bool {
	for _, na := range naValues {
		if v == na {
			return true
		}
	}
	return false
}

// records converts the table to VariantRecords. Optional columns that
// are absent are left at their missing values.
func (t *table) records(sample string) ([]VariantRecord, error) {
	n := t.df.Nrow()
	recs := make([]VariantRecord, n)
	pos, err := t.integers("POS", -1)
	if err != nil {
		return nil, err
	}
	for i, p := range pos {
		if p < 0 {
			return nil, &ValueError{Source: t.source, Row: i + 1, Column: "POS", Value: "", Err: errMissingValue}
		}
		recs[i].Pos = p
		recs[i].Sample = sample
		recs[i].TotalDepth = -1
		recs[i].AltFreq = math.NaN()
	}
	if t.has("TOTAL_DP") {
		depth, err := t.integers("TOTAL_DP", -1)
		if err != nil {
			return nil, err
		}
		for i, d := range depth {
			recs[i].TotalDepth = d
		}
	}
	if t.has("ALT_FREQ") {
		freq, err := t.floats("ALT_FREQ")
		if err != nil {
			return nil, err
		}
		for i, f := range freq {
			recs[i].AltFreq = f
		}
	}
	if sample == "" && t.has("Sample") {
		for i, v := range t.text("Sample") {
			recs[i].Sample = v
		}
	}
	for _, col := range []struct {
		name string
		set  func(*VariantRecord, string)
	}{
		{"REF", func(r *VariantRecord, v string) { r.Ref = v }},
		{"ALT", func(r *VariantRecord, v string) { r.Alt = v }},
		{"REF_CODON", func(r *VariantRecord, v string) { r.RefCodon = v }},
		{"ALT_CODON", func(r *VariantRecord, v string) { r.AltCodon = v }},
		{"REF_AA", func(r *VariantRecord, v string) { r.RefAA = v }},
		{"ALT_AA", func(r *VariantRecord, v string) { r.AltAA = v }},
	} {
		if !t.has(col.name) {
			continue
		}
		for i, v := range t.text(col.name) {
			col.set(&recs[i], v)
		}
	}
	return recs, nil
}

var errMissingValue = errors.New("missing value")

// ReadVariantTable decodes one sample's variant table. It returns a
// *ColumnsError if a required column is absent and a *ValueError if a
// numeric column cannot be parsed; the table is never partially
// returned.
func ReadVariantTable(r io.Reader, source, sample string) (*VariantTable, error) {
	t, err := decodeTable(r, source, variantColumns)
	if err != nil {
		return nil, err
	}
	recs, err := t.records(sample)
	if err != nil {
		return nil, err
	}
	return &VariantTable{Source: source, Sample: sample, Records: recs}, nil
}

// readPoolTable decodes a table written by filter-pools. The sample id
// comes from its Sample column.
func readPoolTable(r io.Reader, source string, required ...string) ([]VariantRecord, error) {
	t, err := decodeTable(r, source, append([]string{"Sample", "POS"}, required...))
	if err != nil {
		return nil, err
	}
	return t.records("")
}

type markerKey struct {
	pos      int
	ref, alt string
}

// MarkerSet holds known lineage-defining mutations.
type MarkerSet map[markerKey]bool

func (ms MarkerSet) Contains(pos int, ref, alt string) bool {
	return ms[markerKey{pos, ref, alt}]
}

// ReadMarkers decodes a marker table with POS, REF and ALT columns.
func ReadMarkers(r io.Reader, source string) (MarkerSet, error) {
	t, err := decodeTable(r, source, []string{"POS", "REF", "ALT"})
	if err != nil {
		return nil, err
	}
	pos, err := t.integers("POS", -1)
	if err != nil {
		return nil, err
	}
	ref, alt := t.text("REF"), t.text("ALT")
	ms := make(MarkerSet, len(pos))
	for i, p := range pos {
		ms[markerKey{p, ref[i], alt[i]}] = true
	}
	return ms, nil
}
