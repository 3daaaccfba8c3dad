package jsonpath

import (
	"encoding/json"
	"fmt"
	"os"
)

// MappingFile describes a field-to-path mapping config.
//
// Field order in the file is preserved and defines CSV column order.
type MappingFile struct {
	Fields []Field `json:"fields"`
}

// LoadMappingFile loads and validates a JSON mapping file.
//
// Validation failures are configuration errors: the caller should treat them
// as fatal before any fetching starts.
func LoadMappingFile(path string) (*MappingFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mappings file: %w", err)
	}

	var mf MappingFile
	if err := json.Unmarshal(b, &mf); err != nil {
		return nil, fmt.Errorf("parse mappings json: %w", err)
	}

	if len(mf.Fields) == 0 {
		return nil, fmt.Errorf("mappings %s has no fields", path)
	}

	names := make(map[string]struct{}, len(mf.Fields))
	for i, f := range mf.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("mappings %s: field %d has no name", path, i)
		}
		if f.Path == "" {
			return nil, fmt.Errorf("mappings %s: field %q has no path", path, f.Name)
		}
		if _, dup := names[f.Name]; dup {
			return nil, fmt.Errorf("mappings %s: duplicate field %q", path, f.Name)
		}
		names[f.Name] = struct{}{}
	}
	return &mf, nil
}
