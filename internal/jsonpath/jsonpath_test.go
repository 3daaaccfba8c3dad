package jsonpath

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// decode is a test helper turning a JSON literal into the decoded value shape
// Extract operates on.
func decode(t *testing.T, src string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(src), &v); err != nil {
		t.Fatalf("unmarshal test document: %v", err)
	}
	return v
}

// TestExtract covers the navigation and collapse policy end to end.
func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		path string
		want string
	}{
		{
			name: "scalar leaf",
			doc:  `{"productData":{"code":"P1"}}`,
			path: "productData.code",
			want: "P1",
		},
		{
			name: "missing key yields empty",
			doc:  `{"productData":{"code":"P1"}}`,
			path: "productData.name",
			want: "",
		},
		{
			name: "missing key at top level yields empty",
			doc:  `{"productData":{"code":"P1"}}`,
			path: "gallery.src",
			want: "",
		},
		{
			name: "path through scalar yields empty",
			doc:  `{"a":"x"}`,
			path: "a.b",
			want: "",
		},
		{
			name: "list of one collapses before lookup",
			doc:  `{"a":[{"b":"x"}]}`,
			path: "a.b",
			want: "x",
		},
		{
			name: "nested list of one collapses recursively",
			doc:  `{"a":[[{"b":"x"}]]}`,
			path: "a.b",
			want: "x",
		},
		{
			name: "list fans out remaining path",
			doc:  `{"productData":{"classifications":[{"code":"C1"},{"code":"C2"}]}}`,
			path: "productData.classifications.code",
			want: "[C1, C2]",
		},
		{
			name: "duplicates collapse to one bare value",
			doc:  `{"a":[{"b":"x"},{"b":"x"}]}`,
			path: "a.b",
			want: "x",
		},
		{
			name: "dedup preserves first-seen order",
			doc:  `{"a":[{"b":"x"},{"b":"y"},{"b":"x"}]}`,
			path: "a.b",
			want: "[x, y]",
		},
		{
			name: "whitespace trims and empties drop",
			doc:  `{"a":[{"b":" x "},{"b":"  "},{"b":null}]}`,
			path: "a.b",
			want: "x",
		},
		{
			name: "empty list yields empty",
			doc:  `{"a":[]}`,
			path: "a.b",
			want: "",
		},
		{
			name: "two level fan out flattens",
			doc:  `{"c":[{"f":[{"n":"A"},{"n":"B"}]},{"f":[{"n":"C"}]}]}`,
			path: "c.f.n",
			want: "[A, B, C]",
		},
		{
			name: "partial misses keep surviving branches",
			doc:  `{"c":[{"f":{"n":"A"}},{"g":1}]}`,
			path: "c.f.n",
			want: "A",
		},
		{
			name: "numbers render without exponent",
			doc:  `{"a":{"qty":150}}`,
			path: "a.qty",
			want: "150",
		},
		{
			name: "bool renders as literal",
			doc:  `{"a":{"ok":true}}`,
			path: "a.ok",
			want: "true",
		},
		{
			name: "null leaf yields empty",
			doc:  `{"a":{"b":null}}`,
			path: "a.b",
			want: "",
		},
		{
			name: "object leaf yields empty",
			doc:  `{"a":{"b":{"c":"x"}}}`,
			path: "a.b",
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Extract(decode(t, tt.doc), tt.path); got != tt.want {
				t.Fatalf("Extract(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestExtract_ListOfOneEquivalence pins the transitivity property: a
// one-element list wrapper is indistinguishable from the bare object.
func TestExtract_ListOfOneEquivalence(t *testing.T) {
	t.Parallel()

	wrapped := decode(t, `{"a":[{"b":"x"}]}`)
	bare := decode(t, `{"a":{"b":"x"}}`)

	if gw, gb := Extract(wrapped, "a.b"), Extract(bare, "a.b"); gw != gb {
		t.Fatalf("wrapped %q != bare %q", gw, gb)
	}
}

// TestExtractRecord verifies every mapped field is present even on misses,
// and that Columns preserves mapping order for CSV headers.
func TestExtractRecord(t *testing.T) {
	t.Parallel()

	doc := decode(t, `{"productData":{"code":"P1","classifications":[{"code":"C1"},{"code":"C2"}]}}`)
	fields := []Field{
		{Name: "code", Path: "productData.code"},
		{Name: "cls", Path: "productData.classifications.code"},
		{Name: "missing", Path: "productData.nope"},
	}

	got := ExtractRecord(doc, fields)
	want := map[string]string{
		"code":    "P1",
		"cls":     "[C1, C2]",
		"missing": "",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractRecord = %#v, want %#v", got, want)
	}

	if cols := Columns(fields); !reflect.DeepEqual(cols, []string{"code", "cls", "missing"}) {
		t.Fatalf("Columns = %#v", cols)
	}
}

// TestLoadMappingFile covers load, order preservation, and the fatal
// configuration errors.
func TestLoadMappingFile(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, body string) string {
		t.Helper()
		p := filepath.Join(t.TempDir(), "mappings.json")
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write mappings: %v", err)
		}
		return p
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		mf, err := LoadMappingFile(write(t, `{"fields":[
			{"name":"code","path":"productData.code"},
			{"name":"name","path":"productData.name"}
		]}`))
		if err != nil {
			t.Fatalf("LoadMappingFile: %v", err)
		}
		if !reflect.DeepEqual(Columns(mf.Fields), []string{"code", "name"}) {
			t.Fatalf("field order not preserved: %#v", mf.Fields)
		}
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		t.Parallel()
		_, err := LoadMappingFile(write(t, `{"fields":[
			{"name":"code","path":"a"},
			{"name":"code","path":"b"}
		]}`))
		if err == nil {
			t.Fatal("expected duplicate-field error")
		}
	})

	t.Run("rejects empty path", func(t *testing.T) {
		t.Parallel()
		_, err := LoadMappingFile(write(t, `{"fields":[{"name":"code","path":""}]}`))
		if err == nil {
			t.Fatal("expected empty-path error")
		}
	})

	t.Run("rejects no fields", func(t *testing.T) {
		t.Parallel()
		_, err := LoadMappingFile(write(t, `{"fields":[]}`))
		if err == nil {
			t.Fatal("expected no-fields error")
		}
	})
}
