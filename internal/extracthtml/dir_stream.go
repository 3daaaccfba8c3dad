package extracthtml

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ExtractFromDir extracts product records from every HTML file in dir and
// hands them to fn, one call per file, in stable filename order.
//
// This is the offline counterpart of page fetching: listing pages saved to
// disk (wget mirrors, cached responses) can be re-extracted without touching
// the network.
//
// Behavior:
//   - subdirectories are ignored
//   - unreadable or unparseable files are skipped, not fatal
//   - fn errors abort the walk (they come from the caller's sink)
//
// Without a ProductSelector the whole file is treated as one record.
func ExtractFromDir(dir string, mf *MappingFile, fn func(file string, records []map[string]string) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		doc, err := Parse(f)
		f.Close()
		if err != nil {
			continue
		}

		var records []map[string]string
		if mf.ProductSelector != "" {
			records, err = ExtractRecords(doc, mf.ProductSelector, mf.Fields)
		} else {
			var one map[string]string
			one, err = ExtractRecord(doc.Root(), mf.Fields)
			if err == nil {
				records = []map[string]string{one}
			}
		}
		if err != nil {
			continue
		}
		if len(records) == 0 {
			continue
		}

		if err := fn(e.Name(), records); err != nil {
			return err
		}
	}
	return nil
}
