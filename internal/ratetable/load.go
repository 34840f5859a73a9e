package ratetable

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gyeh/hccscore/internal/model"
)

// Load reads a rate table CSV. skipRows leading records (title rows) are
// discarded before the header.
func Load(r io.Reader, skipRows int) (*Table, error) {
	reader := csv.NewReader(bufio.NewReaderSize(r, 64*1024))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	for i := 0; i < skipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("skip rate table row %d: %w", i+1, err)
		}
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &model.SchemaError{Table: "rate table", Reason: "missing header row"}
	}
	if err != nil {
		return nil, fmt.Errorf("read rate table header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rate table rows: %w", err)
	}
	return Build(header, records)
}

// LoadFile opens and loads a rate table CSV file.
func LoadFile(path string, skipRows int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rate table: %w", err)
	}
	defer f.Close()
	return Load(f, skipRows)
}
