package extracthtml

import (
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// DefaultDelimiter joins multi-value results in extracted records.
const DefaultDelimiter = ", "

// Document is a parsed HTML page. It is read-only after Parse.
type Document struct {
	root *html.Node
}

// Parse builds a Document from HTML source.
func Parse(r io.Reader) (*Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(src string) (*Document, error) {
	return Parse(strings.NewReader(src))
}

// Root exposes the document root for node-relative extraction.
func (d *Document) Root() *html.Node {
	return d.root
}

// Strings evaluates query relative to node and returns the raw string form of
// every match in document order. Element matches yield their inner text;
// text() and @attr matches yield the node value. No trimming or dedup
// happens here.
func Strings(node *html.Node, query string) ([]string, error) {
	expr, err := xpath.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compile xpath %q: %w", query, err)
	}

	matches := htmlquery.QuerySelectorAll(node, expr)
	if len(matches) == 0 {
		return nil, nil
	}

	values := make([]string, len(matches))
	for i, m := range matches {
		values[i] = htmlquery.InnerText(m)
	}
	return values, nil
}

// Extract evaluates query relative to node and collapses the matches into a
// single string: values are whitespace-trimmed, empties dropped, duplicates
// removed preserving first-seen order, and the survivors joined with
// delimiter (DefaultDelimiter when empty).
//
// The collapse rule is canonical across the package: it branches on the
// number of unique surviving elements, never on the length of the joined
// string. Zero survivors yield "", one is returned bare, more than one are
// joined.
func Extract(node *html.Node, query, delimiter string) (string, error) {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	raw, err := Strings(node, query)
	if err != nil {
		return "", err
	}
	return strings.Join(normalize(raw), delimiter), nil
}

// ExtractRecord applies every field in order, relative to node.
//
// The record always contains exactly the mapped field names; a query with no
// match contributes an empty string, never an absent key. This keeps CSV
// columns stable across rows.
func ExtractRecord(node *html.Node, fields []Field) (map[string]string, error) {
	record := make(map[string]string, len(fields))
	for _, f := range fields {
		value, err := Extract(node, f.Query, DefaultDelimiter)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		record[f.Name] = value
	}
	return record, nil
}

// ExtractRecords selects all product containers via containerQuery and
// extracts one record per container, preserving document order.
//
// Fields are evaluated relative to their container, so relative queries
// (".//span[@class='price']") address only that product's subtree.
func ExtractRecords(doc *Document, containerQuery string, fields []Field) ([]map[string]string, error) {
	expr, err := xpath.Compile(containerQuery)
	if err != nil {
		return nil, fmt.Errorf("compile container xpath %q: %w", containerQuery, err)
	}

	var records []map[string]string
	for _, node := range htmlquery.QuerySelectorAll(doc.root, expr) {
		record, err := ExtractRecord(node, fields)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// ExtractPairs evaluates keyQuery and valueQuery independently and zips the
// raw match sequences positionally into key/value pairs.
//
// Semantics:
//   - no dedup on either side; positions matter
//   - the longer sequence is truncated to the shorter, silently
//   - both halves are trimmed; a pair with an empty half is dropped
//   - surviving pairs keep their original match order
func ExtractPairs(node *html.Node, keyQuery, valueQuery string) ([]Pair, error) {
	keys, err := Strings(node, keyQuery)
	if err != nil {
		return nil, err
	}
	values, err := Strings(node, valueQuery)
	if err != nil {
		return nil, err
	}

	n := len(keys)
	if len(values) < n {
		n = len(values)
	}

	var pairs []Pair
	for i := 0; i < n; i++ {
		k := strings.TrimSpace(keys[i])
		v := strings.TrimSpace(values[i])
		if k == "" || v == "" {
			continue
		}
		pairs = append(pairs, Pair{Key: k, Value: v})
	}
	return pairs, nil
}

// Columns returns the field names in mapping order, for CSV headers.
func Columns(fields []Field) []string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	return cols
}

// normalize trims every value, drops empties, and removes duplicates
// preserving first-seen order.
func normalize(values []string) []string {
	var unique []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}
	return unique
}
