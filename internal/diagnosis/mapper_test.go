package diagnosis

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/gyeh/hccscore/internal/model"
)

const sampleCodeMap = `E1165,Type 2 diabetes with hyperglycemia,1,18,Y
I509,Heart failure unspecified,1,85,Y
E1122,Type 2 diabetes with CKD,1,18.0,Y
Z0000,Routine exam,1,,N
J449,COPD,1,HCC111,Y
`

func loadSample(t *testing.T) *CodeMap {
	t.Helper()
	m, err := LoadCodeMap(strings.NewReader(sampleCodeMap))
	if err != nil {
		t.Fatalf("LoadCodeMap: %v", err)
	}
	return m
}

func TestLoadCodeMap(t *testing.T) {
	m := loadSample(t)
	if m.Len() != 4 {
		t.Errorf("Len = %d, want 4", m.Len())
	}
	if m.Skipped() != 1 {
		t.Errorf("Skipped = %d, want 1", m.Skipped())
	}
	for code, want := range map[string]string{
		"E1165":  "HCC18",
		"E11.22": "HCC18",
		"i509":   "HCC85",
		"J449":   "HCC111",
	} {
		got, ok := m.Category(code)
		if !ok || got != want {
			t.Errorf("Category(%q) = %q, %v; want %q", code, got, ok, want)
		}
	}
	if _, ok := m.Category("Z0000"); ok {
		t.Error("code with blank category should be unmapped")
	}
}

func TestLoadCodeMap_TooFewColumns(t *testing.T) {
	_, err := LoadCodeMap(strings.NewReader("E1165,desc,18\n"))
	var se *model.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestLoadCodeMap_Empty(t *testing.T) {
	_, err := LoadCodeMap(strings.NewReader(""))
	var se *model.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestMapCodes(t *testing.T) {
	m := loadSample(t)
	tests := []struct {
		name  string
		codes []string
		want  []string
	}{
		{"scenario", []string{"E1165", "I509"}, []string{"HCC18", "HCC85"}},
		{"dedup same category", []string{"E1165", "E1122", "E1165"}, []string{"HCC18"}},
		{"unmapped dropped", []string{"ZZZ99", "I509", "Z0000"}, []string{"HCC85"}},
		{"sorted output", []string{"J449", "I509"}, []string{"HCC111", "HCC85"}},
		{"none", nil, nil},
		{"all unmapped", []string{"A000"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapCodes(tt.codes, m)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MapCodes(%v) = %v, want %v", tt.codes, got, tt.want)
			}
		})
	}
}

func TestCategoryLabel(t *testing.T) {
	tests := map[string]string{
		"18":     "HCC18",
		"18.0":   "HCC18",
		" 85 ":   "HCC85",
		"HCC111": "HCC111",
		"hcc 19": "HCC19",
		"":       "",
	}
	for in, want := range tests {
		if got := CategoryLabel(in); got != want {
			t.Errorf("CategoryLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewCodeMap(t *testing.T) {
	m := NewCodeMap(map[string]string{"E1165": "18", "I509": "85", "": "1"})
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
	cats := m.Categories()
	if cats["HCC18"] != 1 || cats["HCC85"] != 1 {
		t.Errorf("Categories = %v", cats)
	}
}

func TestCodeMapCodes(t *testing.T) {
	m := NewCodeMap(map[string]string{"i50.9": "85", "E1165": "18"})
	codes := m.Codes()
	if len(codes) != 2 || codes[0] != "E1165" || codes[1] != "I509" {
		t.Errorf("Codes = %v", codes)
	}
}
