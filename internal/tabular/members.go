// Package tabular reads member tables and writes score files in CSV or Parquet.
package tabular

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gyeh/hccscore/internal/model"
)

// Format is a supported tabular file format.
type Format int

const (
	FormatCSV Format = iota
	FormatParquet
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	}
	return 0, fmt.Errorf("unsupported file extension %q (want .csv or .parquet)", filepath.Ext(path))
}

// WriteMembers writes member rows as CSV or Parquet, used to build fixtures.
func WriteMembers(path string, rows []model.MemberRow) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	if f == FormatParquet {
		return WriteMembersParquet(path, rows)
	}
	return writeMembersCSV(path, rows)
}

// ReadMembers loads every row of a member table.
func ReadMembers(path string) ([]model.MemberRow, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if f == FormatParquet {
		return readMembersParquet(path)
	}
	return readMembersCSV(path)
}
