package tabular

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/gyeh/hccscore/internal/model"
)

func sampleScores() []model.ScoreRecord {
	age := 72
	return []model.ScoreRecord{
		{
			MemberID:               "M001",
			Year:                   2024,
			Age:                    &age,
			Bucket:                 "Community, NonDual, Aged, 70-74 Years, Female",
			Categories:             []string{"HCC18", "HCC85"},
			DemographicCoefficient: 0.523,
			ConditionCoefficient:   0.674,
			RawScore:               1.197,
			AdjustedScore:          1.1097,
			WeightedScore:          0.7768,
			Status:                 model.StatusOK,
			Misses:                 []model.LookupMiss{{Kind: model.MissCondition, Row: "HCC1", Column: "Community, NonDual, Aged", Status: "row_missing"}},
		},
		{
			MemberID: "M005",
			Year:     2024,
			Status:   model.StatusUnavailable,
			Reason:   "dob_unparseable",
		},
	}
}

func checkScores(t *testing.T, got []model.ScoreRecord) {
	t.Helper()
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	a := got[0]
	if a.MemberID != "M001" || a.Year != 2024 || a.Age == nil || *a.Age != 72 {
		t.Errorf("unexpected first record: %+v", a)
	}
	if a.AdjustedScore != 1.1097 || a.RawScore != 1.197 {
		t.Errorf("scores = raw %v adjusted %v", a.RawScore, a.AdjustedScore)
	}
	if len(a.Categories) != 2 || a.Categories[1] != "HCC85" {
		t.Errorf("categories = %v", a.Categories)
	}
	if !a.Available() {
		t.Error("first record should be available")
	}
	b := got[1]
	if b.Available() || b.Reason != "dob_unparseable" || b.Age != nil {
		t.Errorf("unexpected unavailable record: %+v", b)
	}
	if b.AdjustedScore != 0 {
		t.Errorf("unavailable record adjusted = %v", b.AdjustedScore)
	}
}

func TestScores_CSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.csv")
	if err := WriteScores(path, sampleScores()); err != nil {
		t.Fatalf("WriteScores: %v", err)
	}
	got, err := ReadScores(path)
	if err != nil {
		t.Fatalf("ReadScores: %v", err)
	}
	checkScores(t, got)

	f, _ := os.Open(path)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if recs[0][0] != "member_id" || recs[0][8] != "adjusted_score" {
		t.Errorf("unexpected header: %v", recs[0])
	}
	if recs[2][8] != "" {
		t.Errorf("unavailable score should be blank, got %q", recs[2][8])
	}
	if recs[1][12] != "condition:HCC1@Community, NonDual, Aged=row_missing" {
		t.Errorf("lookup misses = %q", recs[1][12])
	}
}

func TestScores_ParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.parquet")
	if err := WriteScores(path, sampleScores()); err != nil {
		t.Fatalf("WriteScores: %v", err)
	}
	got, err := ReadScores(path)
	if err != nil {
		t.Fatalf("ReadScores: %v", err)
	}
	checkScores(t, got)
}

func TestReadScores_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.csv")
	os.WriteFile(path, []byte("member_id,model_year\nM1,2024\n"), 0644)
	if _, err := ReadScores(path); err == nil {
		t.Fatal("expected error for missing adjusted_score column")
	}
}

func TestWriteBlend_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blend.csv")
	recs := []model.BlendRecord{
		{MemberID: "A", Adjusted: map[int]float64{2020: 0.3, 2024: 0.15}, TotalScore: 0.195},
		{MemberID: "B", Adjusted: map[int]float64{2024: 1}, TotalScore: 0.7, UnavailableYears: []int{2020}},
	}
	if err := WriteBlend(path, recs, []int{2020, 2024}); err != nil {
		t.Fatalf("WriteBlend: %v", err)
	}
	f, _ := os.Open(path)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	want := [][]string{
		{"member_id", "adjusted_score_2020", "adjusted_score_2024", "total_score", "unavailable_years"},
		{"A", "0.3", "0.15", "0.195", ""},
		{"B", "", "1", "0.7", "2020"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestWriteBlend_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blend.parquet")
	recs := []model.BlendRecord{
		{MemberID: "A", Adjusted: map[int]float64{2020: 0.3, 2024: 0.15}, TotalScore: 0.195},
	}
	if err := WriteBlend(path, recs, []int{2020, 2024}); err != nil {
		t.Fatalf("WriteBlend: %v", err)
	}
	rows, err := readParquet[model.BlendRow](path)
	if err != nil {
		t.Fatalf("readParquet: %v", err)
	}
	if len(rows) != 1 || rows[0].YearScores != "2020=0.3;2024=0.15" || rows[0].TotalScore != 0.195 {
		t.Errorf("unexpected blend rows: %+v", rows)
	}
}

func TestReadScores_CSVHeaderCleanup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.csv")
	content := "\ufeffMember ID,Model_Year,Adjusted Score,STATUS,reason\n" +
		"M1,2024,1.25,ok,\n" +
		"M2,2024,,unavailable,dob \"missing\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadScores(path)
	if err != nil {
		t.Fatalf("ReadScores: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].MemberID != "M1" || got[0].Year != 2024 || got[0].AdjustedScore != 1.25 {
		t.Errorf("unexpected first record: %+v", got[0])
	}
	if got[1].Available() {
		t.Errorf("second record should be unavailable: %+v", got[1])
	}
}
