// Package ratetable indexes a model year's rate table for coefficient lookups.
package ratetable

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gyeh/hccscore/internal/model"
	"github.com/gyeh/hccscore/internal/normalize"
)

// Status explains the outcome of a coefficient lookup.
type Status int

const (
	Found Status = iota
	RowMissing
	SectionMissing
	NoColumn
	EmptyCell
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case RowMissing:
		return "row_missing"
	case SectionMissing:
		return "section_missing"
	case NoColumn:
		return "no_column"
	case EmptyCell:
		return "empty_cell"
	}
	return "unknown"
}

// Result is a coefficient lookup outcome. Value is meaningful only when
// Status is Found; a Found 0.0 is a genuine zero coefficient.
type Result struct {
	Value  float64
	Status Status
	Row    string
	Column string
}

// OK reports whether a coefficient was found.
func (r Result) OK() bool { return r.Status == Found }

type cell struct {
	value float64
	ok    bool
}

type row struct {
	label       string
	description string
	cells       [numColumns]cell
}

type sectionEntry struct {
	band model.AgeBand
	row  int
}

// section holds the age-band rows under one gender header, in file order.
type section struct {
	entries []sectionEntry
	byBand  map[model.AgeBand]int
}

// Table is a read-only, two-dimensional coefficient index. It is safe for
// concurrent lookups once built.
type Table struct {
	rows     []row
	byLabel  map[string]int
	sections map[model.Gender]*section

	orphanBands int
	badCells    int
}

// Build indexes a rate table from its header and data records.
// The header must either name all seven coefficient columns or name none of
// them and have at least nine columns laid out as label, description, then the
// coefficients in file order. A header naming only some of them is a
// *model.SchemaError.
func Build(header []string, records [][]string) (*Table, error) {
	labelIdx, descIdx, colIdx, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	t := &Table{
		byLabel:  make(map[string]int),
		sections: make(map[model.Gender]*section),
	}
	for _, rec := range records {
		label := field(rec, labelIdx)
		if label == "" {
			continue
		}
		r := row{label: label, description: field(rec, descIdx)}
		for c, idx := range colIdx {
			raw := field(rec, idx)
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				t.badCells++
				continue
			}
			r.cells[c] = cell{value: v, ok: true}
		}
		if _, dup := t.byLabel[label]; !dup {
			t.byLabel[label] = len(t.rows)
		}
		t.rows = append(t.rows, r)
	}
	if len(t.rows) == 0 {
		return nil, &model.SchemaError{Table: "rate table", Reason: "no labelled rows"}
	}
	t.indexSections()
	return t, nil
}

// indexSections groups age-band rows under the nearest preceding gender
// header. A section runs until a header of a different gender or the end of
// the table; the first row for a band within a gender wins.
func (t *Table) indexSections() {
	var current *section
	for i, r := range t.rows {
		if g, ok := model.GenderByHeader(r.label); ok {
			s := t.sections[g]
			if s == nil {
				s = &section{byBand: make(map[model.AgeBand]int)}
				t.sections[g] = s
			}
			current = s
			continue
		}
		band, ok := model.AgeBandByLabel(r.label)
		if !ok {
			continue
		}
		if current == nil {
			t.orphanBands++
			continue
		}
		if _, dup := current.byBand[band]; dup {
			continue
		}
		current.byBand[band] = len(current.entries)
		current.entries = append(current.entries, sectionEntry{band: band, row: i})
	}
}

func mapColumns(header []string) (labelIdx, descIdx int, colIdx [numColumns]int, err error) {
	found := 0
	for i := range colIdx {
		colIdx[i] = -1
	}
	labelIdx, descIdx = 0, -1
	for i, h := range header {
		h = normalize.NormalizeLabel(strings.TrimPrefix(h, "\ufeff"))
		if c, ok := ColumnByName(h); ok && colIdx[c] == -1 {
			colIdx[c] = i
			found++
			continue
		}
		switch strings.ToLower(h) {
		case "variable":
			labelIdx = i
		case "description label", "description":
			descIdx = i
		}
	}
	if found == int(numColumns) {
		return labelIdx, descIdx, colIdx, nil
	}
	if found > 0 {
		return 0, 0, colIdx, &model.SchemaError{
			Table:  "rate table",
			Reason: fmt.Sprintf("header names %d of %d coefficient columns", found, int(numColumns)),
		}
	}

	if len(header) < int(numColumns)+2 {
		return 0, 0, colIdx, &model.SchemaError{
			Table:  "rate table",
			Reason: fmt.Sprintf("expected %d columns (label, description, %d coefficients), got %d", int(numColumns)+2, int(numColumns), len(header)),
		}
	}
	for _, c := range AllColumns() {
		colIdx[c] = int(c) + 2
	}
	return 0, 1, colIdx, nil
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return normalize.NormalizeLabel(rec[idx])
}

// Lookup returns the coefficient at (rowLabel, col), using the first row
// carrying the label.
func (t *Table) Lookup(rowLabel string, col Column) Result {
	res := Result{Row: rowLabel, Column: col.String()}
	i, ok := t.byLabel[rowLabel]
	if !ok {
		res.Status = RowMissing
		return res
	}
	return t.cellResult(res, i, col)
}

// Demographic returns the coefficient for a bucket: the age-band row within
// the bucket's gender section, in the bucket segment's column.
func (t *Table) Demographic(b model.Bucket) Result {
	res := Result{Row: b.Gender.String() + "/" + b.Age.String(), Column: b.Segment.Label()}
	s, ok := t.sections[b.Gender]
	if !ok {
		res.Status = SectionMissing
		return res
	}
	entry, ok := s.byBand[b.Age]
	if !ok {
		res.Status = RowMissing
		return res
	}
	col, ok := ColumnFor(b.Segment)
	if !ok {
		res.Status = NoColumn
		return res
	}
	res.Column = col.String()
	return t.cellResult(res, s.entries[entry].row, col)
}

// Condition returns the coefficient for a condition category in the
// segment's column.
func (t *Table) Condition(category string, seg model.Segment) Result {
	res := Result{Row: category, Column: seg.Label()}
	i, ok := t.byLabel[category]
	if !ok {
		res.Status = RowMissing
		return res
	}
	col, ok := ColumnFor(seg)
	if !ok {
		res.Status = NoColumn
		return res
	}
	res.Column = col.String()
	return t.cellResult(res, i, col)
}

func (t *Table) cellResult(res Result, i int, col Column) Result {
	c := t.rows[i].cells[col]
	if !c.ok {
		res.Status = EmptyCell
		return res
	}
	res.Value = c.value
	res.Status = Found
	return res
}

// Stats summarizes the table structure.
type Stats struct {
	Rows        int
	Conditions  int
	Sections    map[string]int // gender → age-band rows
	OrphanBands int
	BadCells    int
}

// Stats reports row counts, gender sections, and cells that failed to parse.
func (t *Table) Stats() Stats {
	st := Stats{
		Rows:        len(t.rows),
		Sections:    make(map[string]int, len(t.sections)),
		OrphanBands: t.orphanBands,
		BadCells:    t.badCells,
	}
	for g, s := range t.sections {
		st.Sections[g.String()] = len(s.entries)
	}
	for label := range t.byLabel {
		if strings.HasPrefix(label, "HCC") {
			st.Conditions++
		}
	}
	return st
}

// HasRow reports whether any row carries label.
func (t *Table) HasRow(label string) bool {
	_, ok := t.byLabel[label]
	return ok
}
