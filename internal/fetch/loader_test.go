package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// TestLoader_HTML verifies the happy path returns the body as a string.
func TestLoader_HTML(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<p>x</p>"))
	}))
	t.Cleanup(srv.Close)

	l := NewLoader(srv.Client(), 2*time.Second)
	html, err := l.HTML(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if html != "<p>x</p>" {
		t.Fatalf("unexpected html: %q", html)
	}
}

// TestLoader_Non2xx verifies the error includes status code and a body
// snippet, and that the typed StatusError carries the code.
func TestLoader_Non2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	l := NewLoader(srv.Client(), 2*time.Second)
	_, _, err := l.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	msg := err.Error()
	if !strings.Contains(msg, "http status 403") || !strings.Contains(msg, "nope") {
		t.Fatalf("unexpected error: %v", err)
	}

	var se *StatusError
	if !errorsAs(err, &se) || se.Code != http.StatusForbidden {
		t.Fatalf("expected StatusError with 403, got %#v", err)
	}
}

// errorsAs avoids importing errors just for one assertion helper.
func errorsAs(err error, target **StatusError) bool {
	se, ok := err.(*StatusError)
	if ok {
		*target = se
	}
	return ok
}

// TestLoader_JSON verifies decoding into a caller-supplied value.
func TestLoader_JSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"productData":{"code":"P1"}}`))
	}))
	t.Cleanup(srv.Close)

	l := NewLoader(srv.Client(), 2*time.Second)
	var v any
	if err := l.JSON(context.Background(), srv.URL, &v); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	root, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("unexpected shape: %#v", v)
	}
	if _, ok := root["productData"]; !ok {
		t.Fatalf("missing productData: %#v", root)
	}
}

// TestLoader_JSON_Malformed verifies parse errors surface per record.
func TestLoader_JSON_Malformed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	t.Cleanup(srv.Close)

	l := NewLoader(srv.Client(), 2*time.Second)
	var v any
	if err := l.JSON(context.Background(), srv.URL, &v); err == nil {
		t.Fatal("expected decode error")
	}
}

// TestDecodeBody covers the charset conversion paths.
func TestDecodeBody(t *testing.T) {
	t.Parallel()

	// "año" encoded as ISO-8859-1.
	latin1, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("año"))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	tests := []struct {
		name        string
		body        []byte
		contentType string
		want        string
	}{
		{
			name:        "latin1 converts",
			body:        latin1,
			contentType: "text/html; charset=iso-8859-1",
			want:        "año",
		},
		{
			name:        "utf-8 passthrough",
			body:        []byte("año"),
			contentType: "text/html; charset=utf-8",
			want:        "año",
		},
		{
			name:        "missing charset passthrough",
			body:        []byte("plain"),
			contentType: "text/html",
			want:        "plain",
		},
		{
			name:        "unparseable content type passthrough",
			body:        []byte("plain"),
			contentType: "",
			want:        "plain",
		},
		{
			name:        "unknown charset passthrough",
			body:        []byte("plain"),
			contentType: "text/html; charset=not-a-charset",
			want:        "plain",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeBody(tt.body, tt.contentType)
			if err != nil {
				t.Fatalf("DecodeBody: %v", err)
			}
			if got != tt.want {
				t.Fatalf("DecodeBody = %q, want %q", got, tt.want)
			}
		})
	}
}
