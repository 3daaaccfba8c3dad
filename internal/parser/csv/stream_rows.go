// Package csv streams the driver's input file: a CSV of already-known
// product codes, one per row, that the extraction commands turn into source
// URLs.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// StreamColumn streams the named column out of src, calling fn once per data
// row with the 1-based row number and the cell value.
//
// Header handling:
//   - a UTF-8 BOM on the first header cell is stripped
//   - header names are trimmed, lowercased, and spaces replaced with "_"
//     before matching, so "Product Code" matches column "product_code"
//
// Resumption:
//   - the first offset data rows are skipped without invoking fn; a batch
//     interrupted at row N restarts with offset N
//
// Errors:
//   - a missing column is a configuration error and aborts immediately
//   - malformed rows are reported through onErr (if non-nil) and skipped
//   - fn errors abort the stream
func StreamColumn(
	ctx context.Context,
	src io.Reader,
	column string,
	offset int,
	fn func(row int, value string) error,
	onErr func(line int, err error),
) error {
	cr := csv.NewReader(src)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	var line int

	readRec := func() ([]string, error) {
		line++
		return cr.Read()
	}

	hdr, err := readRec()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	colIx := -1
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		h = strings.ReplaceAll(strings.ToLower(h), " ", "_")
		if h == column {
			colIx = i
			break
		}
	}
	if colIx < 0 {
		return fmt.Errorf("column %q not found in header %v", column, hdr)
	}

	row := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := readRec()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if onErr != nil {
				onErr(line, fmt.Errorf("csv read: %w", err))
			}
			continue
		}

		row++
		if row <= offset {
			continue
		}

		var v string
		if colIx < len(rec) {
			v = strings.TrimSpace(rec[colIx])
		}

		if err := fn(row, v); err != nil {
			return err
		}
	}
}
