// Package diagnosis maps diagnosis codes to condition categories.
package diagnosis

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gyeh/hccscore/internal/model"
	"github.com/gyeh/hccscore/internal/normalize"
)

const (
	codeCol     = 0
	categoryCol = 3
)

// CodeMap is a read-only diagnosis code → condition category index.
// It is safe for concurrent use once loaded.
type CodeMap struct {
	categories map[string]string
	skipped    int
}

// NewCodeMap builds a CodeMap from code → category pairs. Codes are normalized;
// categories get the "HCC" prefix when they do not carry it already.
func NewCodeMap(pairs map[string]string) *CodeMap {
	m := &CodeMap{categories: make(map[string]string, len(pairs))}
	for code, cat := range pairs {
		m.add(code, cat)
	}
	return m
}

func (m *CodeMap) add(code, category string) bool {
	code = normalize.NormalizeCode(code)
	label := CategoryLabel(category)
	if code == "" || label == "" {
		m.skipped++
		return false
	}
	// First mapping for a code wins.
	if _, ok := m.categories[code]; !ok {
		m.categories[code] = label
	}
	return true
}

// Category returns the condition category for a diagnosis code.
func (m *CodeMap) Category(code string) (string, bool) {
	c, ok := m.categories[normalize.NormalizeCode(code)]
	return c, ok
}

// Len returns the number of mapped codes.
func (m *CodeMap) Len() int { return len(m.categories) }

// Skipped returns the number of rows dropped for a blank code or category.
func (m *CodeMap) Skipped() int { return m.skipped }

// Categories counts mapped codes per category label.
func (m *CodeMap) Categories() map[string]int {
	out := make(map[string]int)
	for _, c := range m.categories {
		out[c]++
	}
	return out
}

// Codes returns the mapped diagnosis codes, sorted.
func (m *CodeMap) Codes() []string {
	out := make([]string, 0, len(m.categories))
	for c := range m.categories {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// CategoryLabel renders a raw category value as a rate-table row label:
// "18" and "18.0" become "HCC18", "HCC18" is kept.
func CategoryLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToUpper(raw), "HCC") {
		return "HCC" + strings.TrimSpace(raw[3:])
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int64(f)) {
		return "HCC" + strconv.FormatInt(int64(f), 10)
	}
	return "HCC" + raw
}

// LoadCodeMap reads a headerless code-to-category CSV. Only the first and
// fourth columns are used; a row shorter than four columns is a schema error.
func LoadCodeMap(r io.Reader) (*CodeMap, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	m := &CodeMap{categories: make(map[string]string)}
	line := 0
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read code map line %d: %w", line+1, err)
		}
		line++
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) <= categoryCol {
			return nil, &model.SchemaError{
				Table:  "code map",
				Reason: fmt.Sprintf("line %d has %d columns, need at least %d", line, len(rec), categoryCol+1),
			}
		}
		if line == 1 {
			rec[codeCol] = strings.TrimPrefix(rec[codeCol], "\ufeff")
		}
		m.add(rec[codeCol], rec[categoryCol])
	}
	if len(m.categories) == 0 {
		return nil, &model.SchemaError{Table: "code map", Reason: "no mapped codes"}
	}
	return m, nil
}

// LoadCodeMapFile opens and loads a code-to-category CSV file.
func LoadCodeMapFile(path string) (*CodeMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open code map: %w", err)
	}
	defer f.Close()
	return LoadCodeMap(f)
}
