// Package sink appends extracted records to a CSV file.
//
// The file is opened and closed per append. That costs a syscall per record
// but means every record is durable as soon as Append returns, so a crashed
// batch can resume from its input offset without losing rows.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
)

// CSV appends records to one CSV file with a fixed column order.
type CSV struct {
	path    string
	columns []string
}

// NewCSV creates a sink writing to path. columns defines both the header row
// and the cell order of every appended record.
func NewCSV(path string, columns []string) (*CSV, error) {
	if path == "" {
		return nil, fmt.Errorf("csv sink: empty path")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("csv sink: no columns")
	}
	return &CSV{path: path, columns: columns}, nil
}

// Columns returns the configured column order.
func (s *CSV) Columns() []string {
	return s.columns
}

// Append writes one record. The header row is written first when the file is
// empty (or does not exist yet). Missing keys write as empty cells, so a
// record produced from a mapping with the same fields always lines up.
func (s *CSV) Append(record map[string]string) error {
	return s.AppendAll([]map[string]string{record})
}

// AppendAll writes records in order within a single open/flush/close cycle.
// Either the whole batch is flushed or an error is returned; the caller
// treats an error as fatal for these records, not for the run.
func (s *CSV) AppendAll(records []map[string]string) error {
	if len(records) == 0 {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv %s: %w", s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat csv %s: %w", s.path, err)
	}

	w := csv.NewWriter(f)

	if info.Size() == 0 {
		if err := w.Write(s.columns); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}

	row := make([]string, len(s.columns))
	for _, record := range records {
		for i, col := range s.columns {
			row[i] = record[col]
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
