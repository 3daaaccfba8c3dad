package extracthtml

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/antchfx/xpath"
)

// LoadMappingFile loads and validates a JSON mapping file.
//
// Every XPath is compiled here so that a broken mapping fails at startup
// instead of producing silently empty columns mid-batch.
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

	if mf.ProductSelector != "" {
		if _, err := xpath.Compile(mf.ProductSelector); err != nil {
			return nil, fmt.Errorf("mappings %s: product_selector: %w", path, err)
		}
	}

	names := make(map[string]struct{}, len(mf.Fields))
	for i, f := range mf.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("mappings %s: field %d has no name", path, i)
		}
		if f.Query == "" {
			return nil, fmt.Errorf("mappings %s: field %q has no query", path, f.Name)
		}
		if _, err := xpath.Compile(f.Query); err != nil {
			return nil, fmt.Errorf("mappings %s: field %q: %w", path, f.Name, err)
		}
		if _, dup := names[f.Name]; dup {
			return nil, fmt.Errorf("mappings %s: duplicate field %q", path, f.Name)
		}
		names[f.Name] = struct{}{}
	}
	return &mf, nil
}
