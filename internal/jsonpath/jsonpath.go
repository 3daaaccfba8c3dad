// Package jsonpath navigates decoded JSON values by dotted key paths and
// collapses the results into CSV-ready strings.
//
// A path like "productData.classifications.code" walks nested objects key by
// key. Lists encountered along the way fan the remaining path out over every
// element, so one path can address many values at once. The final result is
// normalized into a single string (see Extract).
package jsonpath

import (
	"strconv"
	"strings"
)

// Field binds an output column name to a dotted key path.
type Field struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Extract navigates doc by the dotted key path and collapses the navigation
// result into a single string.
//
// Navigation semantics:
//   - A list with exactly one element is unwrapped transparently (and
//     repeatedly) before key lookup continues.
//   - Any other list fans the remaining path out over every element; each
//     branch navigates independently.
//   - A missing key, or a scalar reached with path segments left over, ends
//     that branch with no values. Misses are never errors.
//
// Collapse semantics:
//   - Branch results are flattened, stringified, and trimmed; empty and null
//     values are dropped; duplicates are removed preserving first-seen order.
//   - Zero survivors yield "", one survivor is returned bare, and more than
//     one are rendered as "[a, b]" (bracketed, joined with ", ").
func Extract(doc any, path string) string {
	result := navigate(doc, strings.Split(path, "."))

	list, ok := result.([]any)
	if !ok {
		return stringify(result)
	}

	var unique []string
	seen := make(map[string]struct{})
	for _, v := range flatten(list, nil) {
		s := strings.TrimSpace(stringify(v))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		unique = append(unique, s)
	}

	switch len(unique) {
	case 0:
		return ""
	case 1:
		return unique[0]
	default:
		return "[" + strings.Join(unique, ", ") + "]"
	}
}

// ExtractRecord applies every field in order and returns the extracted
// record. The record always contains exactly the mapped field names; a path
// with no match contributes an empty string, never an absent key.
func ExtractRecord(doc any, fields []Field) map[string]string {
	record := make(map[string]string, len(fields))
	for _, f := range fields {
		record[f.Name] = Extract(doc, f.Path)
	}
	return record
}

// Columns returns the field names in mapping order, for CSV headers.
func Columns(fields []Field) []string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	return cols
}

// navigate walks v by keys and returns the value found, or a (possibly
// nested) []any of per-branch results when lists were fanned out along the
// way. A dead branch returns an empty []any.
//
// keys is never mutated; every list branch recurses with the same remaining
// suffix, so branches cannot corrupt each other.
func navigate(v any, keys []string) any {
	if len(keys) == 0 {
		return v
	}

	// One-element lists are transparent: collapse until the value is either
	// not a list or a list with another length.
	for {
		list, ok := v.([]any)
		if !ok || len(list) != 1 {
			break
		}
		v = list[0]
	}

	switch cur := v.(type) {
	case []any:
		branches := make([]any, 0, len(cur))
		for _, item := range cur {
			branches = append(branches, navigate(item, keys))
		}
		return branches

	case map[string]any:
		child, ok := cur[keys[0]]
		if !ok {
			return []any{}
		}
		return navigate(child, keys[1:])

	default:
		// Scalar (or null) with path segments left over: dead branch.
		return []any{}
	}
}

// flatten appends the scalar leaves of nested branch results to out,
// preserving traversal order. Null leaves and empty branches disappear here.
func flatten(list []any, out []any) []any {
	for _, v := range list {
		if nested, ok := v.([]any); ok {
			out = flatten(nested, out)
			continue
		}
		if v == nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// stringify renders a terminal JSON value as a string.
//
// Objects render as "": a path that stops on an object is a mapping mistake,
// and partial JSON must never leak into CSV output.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case map[string]any:
		return ""
	default:
		return ""
	}
}
