package tabular

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gyeh/hccscore/internal/model"
	"github.com/gyeh/hccscore/internal/normalize"
)

// WriteScores writes per-year score records to a CSV or Parquet file.
func WriteScores(path string, recs []model.ScoreRecord) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	rows := make([]model.ScoreRow, len(recs))
	for i := range recs {
		rows[i] = *model.NewScoreRow(&recs[i])
	}
	if format == FormatParquet {
		return writeParquet(path, rows)
	}
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write(model.ScoreColumns()); err != nil {
			return err
		}
		for i := range rows {
			if err := w.Write(scoreCSVRecord(&rows[i])); err != nil {
				return err
			}
		}
		return nil
	})
}

func scoreCSVRecord(r *model.ScoreRow) []string {
	return []string{
		r.MemberID,
		strconv.Itoa(int(r.Year)),
		fmtInt32(r.Age),
		fmtStr(r.Bucket),
		r.HCCCodes,
		fmtFloat(r.DemographicCoefficient),
		fmtFloat(r.ConditionCoefficient),
		fmtFloat(r.RawScore),
		fmtFloat(r.AdjustedScore),
		fmtFloat(r.WeightedScore),
		r.Status,
		fmtStr(r.Reason),
		r.LookupMisses,
	}
}

// ReadScores reads a score file written by WriteScores.
func ReadScores(path string) ([]model.ScoreRecord, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	var rows []model.ScoreRow
	if format == FormatParquet {
		rows, err = readParquet[model.ScoreRow](path)
	} else {
		rows, err = readScoresCSV(path)
	}
	if err != nil {
		return nil, err
	}
	recs := make([]model.ScoreRecord, len(rows))
	for i := range rows {
		recs[i] = rows[i].Record()
	}
	return recs, nil
}

func readScoresCSV(path string) ([]model.ScoreRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open score file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &model.SchemaError{Table: "score file", Reason: "missing header row"}
	}
	if err != nil {
		return nil, fmt.Errorf("read score header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalize.HeaderKey(h)] = i
	}
	for _, col := range []string{"member_id", "model_year", "adjusted_score", "status"} {
		if _, ok := idx[normalize.HeaderKey(col)]; !ok {
			return nil, &model.SchemaError{Table: "score file", Reason: "missing required column: " + col}
		}
	}
	col := func(rec []string, name string) string {
		i, ok := idx[normalize.HeaderKey(name)]
		if !ok {
			return ""
		}
		return strings.TrimSpace(get(rec, i))
	}

	var rows []model.ScoreRow
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read score file line %d: %w", line, err)
		}
		year, err := strconv.Atoi(col(rec, "model_year"))
		if err != nil {
			return nil, fmt.Errorf("score file line %d: model_year: %w", line, err)
		}
		row := model.ScoreRow{
			MemberID:     col(rec, "member_id"),
			Year:         int32(year),
			HCCCodes:     col(rec, "hcc_codes"),
			Status:       col(rec, "status"),
			LookupMisses: col(rec, "lookup_misses"),
			Bucket:       optStr(col(rec, "bucket")),
			Reason:       optStr(col(rec, "reason")),
		}
		if v := col(rec, "age"); v != "" {
			a, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("score file line %d: age: %w", line, err)
			}
			a32 := int32(a)
			row.Age = &a32
		}
		for name, dst := range map[string]**float64{
			"demographic_coefficient": &row.DemographicCoefficient,
			"condition_coefficient":   &row.ConditionCoefficient,
			"raw_score":               &row.RawScore,
			"adjusted_score":          &row.AdjustedScore,
			"weighted_score":          &row.WeightedScore,
		} {
			v := col(rec, name)
			if v == "" {
				continue
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("score file line %d: %s: %w", line, name, err)
			}
			*dst = &f
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteBlend writes blended records. CSV output carries one adjusted column
// per year; Parquet output uses the flat BlendRow layout.
func WriteBlend(path string, recs []model.BlendRecord, years []int) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if format == FormatParquet {
		rows := make([]model.BlendRow, len(recs))
		for i := range recs {
			rows[i] = *model.NewBlendRow(&recs[i], years)
		}
		return writeParquet(path, rows)
	}
	return writeCSV(path, func(w *csv.Writer) error {
		header := []string{"member_id"}
		for _, y := range years {
			header = append(header, "adjusted_score_"+strconv.Itoa(y))
		}
		header = append(header, "total_score", "unavailable_years")
		if err := w.Write(header); err != nil {
			return err
		}
		for i := range recs {
			r := &recs[i]
			rec := []string{r.MemberID}
			for _, y := range years {
				if v, ok := r.Adjusted[y]; ok {
					rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
				} else {
					rec = append(rec, "")
				}
			}
			unavailable := make([]string, len(r.UnavailableYears))
			for j, y := range r.UnavailableYears {
				unavailable[j] = strconv.Itoa(y)
			}
			rec = append(rec, strconv.FormatFloat(r.TotalScore, 'f', -1, 64), strings.Join(unavailable, ";"))
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, fill func(w *csv.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	bw := bufio.NewWriter(out)
	w := csv.NewWriter(bw)
	if err := fill(w); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		out.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return out.Close()
}

func fmtFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func fmtInt32(v *int32) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(int(*v))
}

func fmtStr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
