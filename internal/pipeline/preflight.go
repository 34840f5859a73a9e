package pipeline

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/hccscore/internal/config"
	"github.com/gyeh/hccscore/internal/diagnosis"
	"github.com/gyeh/hccscore/internal/metrics"
	"github.com/gyeh/hccscore/internal/model"
	"github.com/gyeh/hccscore/internal/normalize"
	"github.com/gyeh/hccscore/internal/ratetable"
	"github.com/gyeh/hccscore/internal/tabular"
)

// YearInputs are the loaded tables for one model year.
type YearInputs struct {
	Config config.YearConfig
	Table  *ratetable.Table
	Codes  *diagnosis.CodeMap
	// RateTableSHA256 and CodeMapSHA256 feed the run fingerprint.
	RateTableSHA256 string
	CodeMapSHA256   string
}

// PreflightResult holds everything loaded before scoring starts.
type PreflightResult struct {
	// RunID tags every persisted row of this run.
	RunID uuid.UUID
	// Fingerprint is a SHA-256 over all input file digests and per-year constants.
	Fingerprint string
	// AsOf is the date ages are computed at.
	AsOf time.Time
	// MembersSHA256 is the digest of the member table.
	MembersSHA256 string
	// Years are sorted by model year.
	Years []YearInputs
	// Patients are in member table order with duplicate ids removed.
	Patients    []*model.PatientRecord
	FieldErrors int64
	Duplicates  int64
	Duration    time.Duration
}

// YearNumbers returns the loaded model years, ascending.
func (pf *PreflightResult) YearNumbers() []int {
	out := make([]int, len(pf.Years))
	for i, y := range pf.Years {
		out[i] = y.Config.Year
	}
	return out
}

// LoadYear loads and hashes the rate table and code map for one model year.
func LoadYear(yc config.YearConfig) (*YearInputs, error) {
	table, err := ratetable.LoadFile(yc.RateTable, yc.RateTableSkipRows)
	if err != nil {
		return nil, fmt.Errorf("year %d rate table: %w", yc.Year, err)
	}
	codes, err := diagnosis.LoadCodeMapFile(yc.CodeMap)
	if err != nil {
		return nil, fmt.Errorf("year %d code map: %w", yc.Year, err)
	}
	rateSHA, err := normalize.FileHash(yc.RateTable)
	if err != nil {
		return nil, err
	}
	codeSHA, err := normalize.FileHash(yc.CodeMap)
	if err != nil {
		return nil, err
	}
	return &YearInputs{
		Config:          yc,
		Table:           table,
		Codes:           codes,
		RateTableSHA256: rateSHA,
		CodeMapSHA256:   codeSHA,
	}, nil
}

// LoadPatients reads the member table and parses each row. Rows with a
// member id already seen are dropped.
func LoadPatients(log zerolog.Logger, path string) (patients []*model.PatientRecord, fieldErrors, duplicates int64, err error) {
	rows, err := tabular.ReadMembers(path)
	if err != nil {
		return nil, 0, 0, err
	}
	seen := make(map[string]bool, len(rows))
	patients = make([]*model.PatientRecord, 0, len(rows))
	for i := range rows {
		p := normalize.ToPatientRecord(&rows[i])
		if seen[p.MemberID] {
			duplicates++
			log.Warn().Str("member_id", p.MemberID).Msg("duplicate member id, keeping first row")
			continue
		}
		seen[p.MemberID] = true
		for _, fe := range p.FieldErrors {
			fieldErrors++
			metrics.RecordFieldError(fe.Field)
			log.Warn().
				Str("member_id", p.MemberID).
				Str("field", fe.Field).
				Str("value", fe.Value).
				Err(fe.Err).
				Msg("member field unparseable")
		}
		patients = append(patients, p)
	}
	return patients, fieldErrors, duplicates, nil
}

// Preflight loads all tables and members and computes the run fingerprint.
func Preflight(log zerolog.Logger, cfg *config.Config) (*PreflightResult, error) {
	start := time.Now()

	membersSHA, err := normalize.FileHash(cfg.MembersPath)
	if err != nil {
		return nil, fmt.Errorf("preflight hash: %w", err)
	}

	years := make([]YearInputs, 0, len(cfg.Years))
	for _, yc := range cfg.Years {
		yi, err := LoadYear(yc)
		if err != nil {
			return nil, err
		}
		st := yi.Table.Stats()
		log.Info().
			Int("year", yc.Year).
			Str("rate_table", filepath.Base(yc.RateTable)).
			Int("rows", st.Rows).
			Int("conditions", st.Conditions).
			Int("bad_cells", st.BadCells).
			Int("codes", yi.Codes.Len()).
			Msg("model year loaded")
		years = append(years, *yi)
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Config.Year < years[j].Config.Year })

	patients, fieldErrors, dups, err := LoadPatients(log, cfg.MembersPath)
	if err != nil {
		return nil, fmt.Errorf("preflight members: %w", err)
	}

	pf := &PreflightResult{
		RunID:         uuid.New(),
		AsOf:          cfg.AsOf,
		MembersSHA256: membersSHA,
		Years:         years,
		Patients:      patients,
		FieldErrors:   fieldErrors,
		Duplicates:    dups,
	}
	if pf.AsOf.IsZero() {
		y, m, d := time.Now().Date()
		pf.AsOf = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	pf.Fingerprint = fingerprint(pf)
	pf.Duration = time.Since(start)

	log.Info().
		Str("members", filepath.Base(cfg.MembersPath)).
		Str("sha256", membersSHA).
		Int("patients", len(patients)).
		Int64("field_errors", fieldErrors).
		Int64("duplicates", dups).
		Str("fingerprint", pf.Fingerprint).
		Dur("duration", pf.Duration).
		Msg("preflight complete")
	return pf, nil
}

func fingerprint(pf *PreflightResult) string {
	values := []string{pf.AsOf.Format(config.AsOfLayout), pf.MembersSHA256}
	for _, y := range pf.Years {
		c := y.Config
		values = append(values,
			strconv.Itoa(c.Year),
			y.RateTableSHA256,
			strconv.Itoa(c.RateTableSkipRows),
			y.CodeMapSHA256,
			strconv.FormatFloat(c.NormalizationFactor, 'g', -1, 64),
			strconv.FormatFloat(c.CodingPatternAdjustment, 'g', -1, 64),
			strconv.FormatFloat(c.Weight, 'g', -1, 64),
		)
	}
	return normalize.Fingerprint(values...)
}
