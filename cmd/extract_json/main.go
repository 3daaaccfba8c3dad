// Command extract-json walks a column of product codes from an input CSV,
// fetches the JSON document for each code, extracts mapped fields by dotted
// path, and appends one row per product to an output CSV.
//
// Usage:
//
//	extract-json -mappings mappings.json -input codes.csv \
//	    -url-template "https://example.com/api/products/{code}" -out products.csv
//
// Resume an interrupted run by skipping already-processed rows:
//
//	extract-json ... -offset 1200
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"scrape/internal/fetch"
	"scrape/internal/jsonpath"
	"scrape/internal/metrics"
	"scrape/internal/metrics/datadog"
	csvparser "scrape/internal/parser/csv"
	"scrape/internal/sink"
)

// CodePlaceholder is the substring of -url-template replaced by each input
// code.
const CodePlaceholder = "{code}"

func main() {
	os.Exit(run(
		context.Background(),
		os.Args[1:],
		os.Stdout,
		os.Stderr,
		http.DefaultClient,
	))
}

// run is split out from main so we can unit test the command without spawning
// an OS process.
//
// It returns a Unix-style exit code:
//   - 0 for success
//   - 2 for usage/config errors
//   - 1 for operational/runtime errors
func run(
	ctx context.Context,
	args []string,
	stdout io.Writer,
	stderr io.Writer,
	httpClient *http.Client,
) int {
	fs := flag.NewFlagSet("extract-json", flag.ContinueOnError)
	fs.SetOutput(stderr)

	mappingsPath := fs.String("mappings", "", "Path to mappings JSON file (required)")
	inputPath := fs.String("input", "", "Input CSV with the product code column (required)")
	column := fs.String("column", "code", "Input CSV column holding the product codes")
	offset := fs.Int("offset", 0, "Skip the first N data rows (resume an interrupted run)")
	urlTemplate := fs.String("url-template", "", "Product JSON URL with a {code} placeholder (required)")
	outPath := fs.String("out", "", "Output CSV path, appended to (required)")
	timeout := fs.Duration("timeout", 20*time.Second, "Per-request fetch timeout")
	metricsBackend := fs.String("metrics-backend", "none", "metrics backend to use (datadog, none)")
	verbose := fs.Bool("v", false, "enable verbose logs")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := log.New(stderr, "", log.LstdFlags)

	if *mappingsPath == "" || *inputPath == "" || *outPath == "" {
		fmt.Fprintf(stderr, "missing required flag: -mappings, -input and -out must all be set\n")
		return 2
	}
	if !strings.Contains(*urlTemplate, CodePlaceholder) {
		fmt.Fprintf(stderr, "-url-template must contain %s\n", CodePlaceholder)
		return 2
	}

	mf, err := jsonpath.LoadMappingFile(*mappingsPath)
	if err != nil {
		fmt.Fprintf(stderr, "load mappings: %v\n", err)
		return 2
	}

	in, err := os.Open(*inputPath)
	if err != nil {
		fmt.Fprintf(stderr, "open input: %v\n", err)
		return 2
	}
	defer in.Close()

	closeMetrics := setupMetrics(ctx, *metricsBackend, *verbose, logger)
	defer closeMetrics()

	loader := fetch.NewLoader(httpClient, *timeout)

	out, err := sink.NewCSV(*outPath, jsonpath.Columns(mf.Fields))
	if err != nil {
		fmt.Fprintf(stderr, "open sink: %v\n", err)
		return 2
	}

	start := time.Now()
	var written, failed int

	err = csvparser.StreamColumn(ctx, in, *column, *offset,
		func(row int, code string) error {
			if code == "" {
				return nil
			}

			u := strings.ReplaceAll(*urlTemplate, CodePlaceholder, url.PathEscape(code))

			var doc any
			if err := loader.JSON(ctx, u, &doc); err != nil {
				logger.Printf("row %d code %q: fetch: %v", row, code, err)
				metrics.IncCounter(metrics.RecordsTotal, 1, metrics.Labels{"kind": "failed"})
				failed++
				return nil
			}

			record := jsonpath.ExtractRecord(doc, mf.Fields)
			metrics.IncCounter(metrics.RecordsTotal, 1, metrics.Labels{"kind": "extracted"})

			// Sink failures mean the output file itself is broken; aborting
			// here keeps -offset resumption meaningful.
			if err := out.Append(record); err != nil {
				return fmt.Errorf("row %d code %q: append: %w", row, code, err)
			}
			metrics.IncCounter(metrics.RecordsTotal, 1, metrics.Labels{"kind": "written"})
			written++

			if *verbose {
				logger.Printf("row %d code %q: ok", row, code)
			}
			return nil
		},
		func(line int, err error) {
			logger.Printf("input line %d: %v", line, err)
		},
	)
	if err != nil {
		fmt.Fprintf(stderr, "extract: %v\n", err)
		return 1
	}

	if *verbose {
		logger.Printf("done: written=%d failed=%d in %s",
			written, failed, time.Since(start).Truncate(time.Millisecond))
	}
	return 0
}

// setupMetrics installs the requested metrics backend and returns the
// shutdown func for it (a no-op when metrics are disabled).
func setupMetrics(ctx context.Context, backendName string, verbose bool, logger *log.Logger) func() {
	switch backendName {
	case "datadog":
		// The Datadog backend buffers samples and submits periodically, with
		// one final submit on Close.
		b, err := datadog.NewBackend(ctx, datadog.Options{
			JobName: "extract_json",
			Tags:    datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")),
		})
		if err != nil {
			logger.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return func() {}
		}
		metrics.SetBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				logger.Printf("metrics: datadog close/flush error: %v", err)
			}
			metrics.SetBackend(nil)
		}

	case "", "none":
		if verbose {
			logger.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		logger.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
	return func() {}
}
