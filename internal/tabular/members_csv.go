package tabular

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gyeh/hccscore/internal/model"
	"github.com/gyeh/hccscore/internal/normalize"
)

// memberHeaderAliases maps header keys (see normalize.HeaderKey) to canonical
// member columns.
var memberHeaderAliases = map[string]string{
	"memberid":           "member_id",
	"dob":                model.FieldDOB,
	"dateofbirth":        model.FieldDOB,
	"gender":             model.FieldGender,
	"sex":                model.FieldGender,
	"medicaiddualstatus": model.FieldDualStatus,
	"dualstatus":         model.FieldDualStatus,
	"orec":               model.FieldEntitlementReason,
	"lti":                model.FieldInstitutional,
	"diagcode":           model.FieldDiagnosisCodes,
	"diagcodes":          model.FieldDiagnosisCodes,
}

// memberColumnIndex resolves canonical member columns to positions in header.
func memberColumnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int)
	for i, h := range header {
		if canon, ok := memberHeaderAliases[normalize.HeaderKey(h)]; ok {
			if _, dup := idx[canon]; !dup {
				idx[canon] = i
			}
		}
	}
	var missing []string
	for _, col := range model.MemberColumns() {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &model.SchemaError{
			Table:  "member table",
			Reason: "missing required columns: " + strings.Join(missing, ", "),
		}
	}
	return idx, nil
}

func readMembersCSV(path string) ([]model.MemberRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open member table: %w", err)
	}
	defer file.Close()
	return decodeMembersCSV(file)
}

func decodeMembersCSV(r io.Reader) ([]model.MemberRow, error) {
	reader := csv.NewReader(bufio.NewReaderSize(r, 256*1024))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &model.SchemaError{Table: "member table", Reason: "missing header row"}
	}
	if err != nil {
		return nil, fmt.Errorf("read member header: %w", err)
	}
	idx, err := memberColumnIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []model.MemberRow
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read member table line %d: %w", line, err)
		}
		id := strings.TrimSpace(get(rec, idx["member_id"]))
		if id == "" {
			continue
		}
		rows = append(rows, model.MemberRow{
			MemberID:          id,
			DOB:               opt(rec, idx[model.FieldDOB]),
			Gender:            opt(rec, idx[model.FieldGender]),
			DualStatus:        opt(rec, idx[model.FieldDualStatus]),
			EntitlementReason: opt(rec, idx[model.FieldEntitlementReason]),
			Institutional:     opt(rec, idx[model.FieldInstitutional]),
			DiagnosisCodes:    opt(rec, idx[model.FieldDiagnosisCodes]),
		})
	}
	return rows, nil
}

// memberCSVHeader is the header written for member tables.
var memberCSVHeader = []string{"MemberID", "DOB", "Gender", "Medicaid Dual Status", "OREC", "LTI", "Diag_Code"}

func writeMembersCSV(path string, rows []model.MemberRow) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write(memberCSVHeader); err != nil {
			return err
		}
		for i := range rows {
			r := &rows[i]
			if err := w.Write([]string{
				r.MemberID,
				fmtStr(r.DOB),
				fmtStr(r.Gender),
				fmtStr(r.DualStatus),
				fmtStr(r.EntitlementReason),
				fmtStr(r.Institutional),
				fmtStr(r.DiagnosisCodes),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func get(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func opt(rec []string, i int) *string {
	s := strings.TrimSpace(get(rec, i))
	if s == "" {
		return nil
	}
	return &s
}
