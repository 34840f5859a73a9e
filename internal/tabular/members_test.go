package tabular

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gyeh/hccscore/internal/model"
)

func TestReadMembers_TestdataCSV(t *testing.T) {
	rows, err := ReadMembers("../../testdata/members.csv")
	if err != nil {
		t.Fatalf("ReadMembers: %v", err)
	}
	if len(rows) != 8 {
		t.Fatalf("expected 8 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.MemberID != "M001" {
		t.Errorf("member id = %q", first.MemberID)
	}
	if first.DOB == nil || *first.DOB != "15-01-1952" {
		t.Errorf("dob = %v", first.DOB)
	}
	if first.DiagnosisCodes == nil || *first.DiagnosisCodes != "['E1165', 'I509']" {
		t.Errorf("diag codes = %v", first.DiagnosisCodes)
	}
	if rows[2].Institutional == nil || *rows[2].Institutional != "Y" {
		t.Errorf("M003 lti = %v", rows[2].Institutional)
	}
}

func TestDecodeMembersCSV_Aliases(t *testing.T) {
	in := "\ufeffMember ID,Date of Birth,Sex,Dual Status,OREC,LTI,Diag Codes\n" +
		"A1,01-02-1950,M,9,0,,\n" +
		",01-02-1950,M,9,0,N,[]\n"
	rows, err := decodeMembersCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decodeMembersCSV: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected blank member id to be skipped, got %d rows", len(rows))
	}
	r := rows[0]
	if r.Gender == nil || *r.Gender != "M" {
		t.Errorf("gender = %v", r.Gender)
	}
	if r.Institutional != nil {
		t.Errorf("blank lti should be nil, got %q", *r.Institutional)
	}
	if r.DiagnosisCodes != nil {
		t.Errorf("blank diag codes should be nil, got %q", *r.DiagnosisCodes)
	}
}

func TestDecodeMembersCSV_MissingColumn(t *testing.T) {
	in := "MemberID,DOB,Gender\nA1,01-02-1950,M\n"
	_, err := decodeMembersCSV(strings.NewReader(in))
	var se *model.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if !strings.Contains(se.Reason, "orec") {
		t.Errorf("reason should name missing orec column: %q", se.Reason)
	}
}

func TestDecodeMembersCSV_Empty(t *testing.T) {
	_, err := decodeMembersCSV(strings.NewReader(""))
	var se *model.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError for empty input, got %v", err)
	}
}

func TestMembersParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "members.parquet")
	dob := "15-01-1952"
	gender := "F"
	codes := "['E1165']"
	in := []model.MemberRow{
		{MemberID: "P1", DOB: &dob, Gender: &gender, DiagnosisCodes: &codes},
		{MemberID: "P2"},
	}
	if err := WriteMembersParquet(path, in); err != nil {
		t.Fatalf("WriteMembersParquet: %v", err)
	}
	out, err := ReadMembers(path)
	if err != nil {
		t.Fatalf("ReadMembers: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if out[0].DOB == nil || *out[0].DOB != dob {
		t.Errorf("dob = %v", out[0].DOB)
	}
	if out[1].DOB != nil || out[1].Gender != nil {
		t.Errorf("P2 optional fields should stay nil: %+v", out[1])
	}
}

func TestReadMembers_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "members.xlsx")
	os.WriteFile(path, []byte("x"), 0644)
	if _, err := ReadMembers(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestWriteMembers_CSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "members.csv")
	dob := "15-01-1952"
	codes := "['E1165', 'I509']"
	in := []model.MemberRow{{MemberID: "P1", DOB: &dob, DiagnosisCodes: &codes}}
	if err := WriteMembers(path, in); err != nil {
		t.Fatalf("WriteMembers: %v", err)
	}
	out, err := ReadMembers(path)
	if err != nil {
		t.Fatalf("ReadMembers: %v", err)
	}
	if len(out) != 1 || out[0].DiagnosisCodes == nil || *out[0].DiagnosisCodes != codes {
		t.Fatalf("round trip = %+v", out)
	}
	if out[0].Gender != nil {
		t.Errorf("blank gender should read back as nil")
	}
}
