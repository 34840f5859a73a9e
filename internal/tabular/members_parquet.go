package tabular

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/hccscore/internal/model"
)

const readBatchSize = 1024

func readMembersParquet(path string) ([]model.MemberRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open member table: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat member table: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	if err := ValidateMemberSchema(pf.Schema()); err != nil {
		return nil, err
	}

	reader := parquet.NewGenericReader[model.MemberRow](pf)
	defer reader.Close()

	rows := make([]model.MemberRow, 0, reader.NumRows())
	buf := make([]model.MemberRow, readBatchSize)
	for {
		clear(buf)
		n, readErr := reader.Read(buf)
		for i := 0; i < n; i++ {
			if strings.TrimSpace(buf[i].MemberID) != "" {
				rows = append(rows, buf[i])
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read parquet rows: %w", readErr)
		}
	}
	return rows, nil
}

// ValidateMemberSchema checks that a Parquet schema has every member column.
func ValidateMemberSchema(schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}
	var missing []string
	for _, col := range model.MemberColumns() {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &model.SchemaError{
			Table:  "member table",
			Reason: "missing required columns: " + strings.Join(missing, ", "),
		}
	}
	return nil
}

// WriteMembersParquet writes member rows, used to build fixtures.
func WriteMembersParquet(path string, rows []model.MemberRow) error {
	return writeParquet(path, rows)
}

func writeParquet[T any](path string, rows []T) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := parquet.NewGenericWriter[T](out)
	if _, err := w.Write(rows); err != nil {
		out.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		out.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return out.Close()
}

func readParquet[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	var rows []T
	buf := make([]T, readBatchSize)
	for {
		clear(buf)
		n, readErr := reader.Read(buf)
		rows = append(rows, buf[:n]...)
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read parquet rows: %w", readErr)
		}
	}
	return rows, nil
}
