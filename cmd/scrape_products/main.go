// Command scrape-products walks the numbered pages of a product listing,
// extracts one record per product container with XPath mappings, and appends
// the records to an output CSV.
//
// Usage (fixed page count):
//
//	scrape-products -mappings mappings.json \
//	    -base-url "https://example.com/catalog?page={page}" -pages 40 -out products.csv
//
// Usage (page count discovered from the listing's result counter):
//
//	scrape-products -mappings mappings.json \
//	    -base-url "https://example.com/catalog?page={page}" \
//	    -count-query "//span[@class='count']" -per-page 25 -out products.csv
//
// Usage (directory of saved pages instead of the network):
//
//	scrape-products -mappings mappings.json -dir ./pages -out products.csv
//
// Debug (print matches for a query against stdin HTML):
//
//	cat page.html | scrape-products -query "//div[@class='name']"
//	cat page.html | scrape-products -selector "div.name" -text
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"scrape/internal/extracthtml"
	"scrape/internal/fetch"
	"scrape/internal/metrics"
	"scrape/internal/metrics/datadog"
	"scrape/internal/sink"
)

func main() {
	os.Exit(run(
		context.Background(),
		os.Args[1:],
		os.Stdin,
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
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	httpClient *http.Client,
) int {
	fs := flag.NewFlagSet("scrape-products", flag.ContinueOnError)
	fs.SetOutput(stderr)

	mappingsPath := fs.String("mappings", "", "Path to mappings JSON file (required for extraction)")
	baseURL := fs.String("base-url", "", "Listing URL with a {page} placeholder")
	pages := fs.Int("pages", 0, "Number of pages to walk (0 = discover via -count-query)")
	startPage := fs.Int("start-page", 1, "First page number to fetch")
	countQuery := fs.String("count-query", "", "XPath of the result counter used to discover the page count")
	perPage := fs.Int("per-page", 25, "Products per listing page, used with -count-query")
	dirFlag := fs.String("dir", "", "Optional: directory of saved HTML pages to extract instead of fetching")
	outPath := fs.String("out", "", "Output CSV path, appended to (required for extraction)")
	timeout := fs.Duration("timeout", 20*time.Second, "Per-request fetch timeout")
	metricsBackend := fs.String("metrics-backend", "none", "metrics backend to use (datadog, none)")
	debugQuery := fs.String("query", "", "Debug: XPath query to print matches for (reads stdin, not CSV output)")
	debugSelector := fs.String("selector", "", "Debug: CSS selector to print matches for (reads stdin, not CSV output)")
	onlyText := fs.Bool("text", false, "Debug: print text blocks for -selector matches")
	verbose := fs.Bool("v", false, "enable verbose logs")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := log.New(stderr, "", log.LstdFlags)

	// Debug modes need HTML on stdin but no mappings or sink.
	if *debugQuery != "" || *debugSelector != "" {
		src, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "read stdin: %v\n", err)
			return 1
		}

		if *debugQuery != "" {
			err = extracthtml.DebugPrintQuery(stdout, string(src), *debugQuery)
		} else {
			err = extracthtml.DebugPrintSelector(stdout, string(src), *debugSelector, *onlyText)
		}
		if err != nil {
			fmt.Fprintf(stderr, "debug: %v\n", err)
			return 1
		}
		return 0
	}

	if *mappingsPath == "" || *outPath == "" {
		fmt.Fprintf(stderr, "missing required flag: -mappings and -out must both be set\n")
		return 2
	}

	mf, err := extracthtml.LoadMappingFile(*mappingsPath)
	if err != nil {
		fmt.Fprintf(stderr, "load mappings: %v\n", err)
		return 2
	}

	out, err := sink.NewCSV(*outPath, extracthtml.Columns(mf.Fields))
	if err != nil {
		fmt.Fprintf(stderr, "open sink: %v\n", err)
		return 2
	}

	closeMetrics := setupMetrics(ctx, *metricsBackend, *verbose, logger)
	defer closeMetrics()

	// Directory mode: no fetching, one batch of records per saved file.
	if *dirFlag != "" {
		err := extracthtml.ExtractFromDir(*dirFlag, mf, func(file string, records []map[string]string) error {
			if err := out.AppendAll(records); err != nil {
				return fmt.Errorf("%s: append: %w", file, err)
			}
			metrics.IncCounter(metrics.RecordsTotal, float64(len(records)), metrics.Labels{"kind": "written"})
			if *verbose {
				logger.Printf("%s: %d records", file, len(records))
			}
			return nil
		})
		if err != nil {
			fmt.Fprintf(stderr, "dir extract: %v\n", err)
			return 1
		}
		return 0
	}

	if err := extracthtml.ValidatePageTemplate(*baseURL); err != nil {
		fmt.Fprintf(stderr, "-base-url: %v\n", err)
		return 2
	}
	if *pages <= 0 && *countQuery == "" {
		fmt.Fprintf(stderr, "either -pages or -count-query must be set\n")
		return 2
	}

	loader := fetch.NewLoader(httpClient, *timeout)

	lastPage := *startPage + *pages - 1
	if *pages <= 0 {
		lastPage, err = discoverLastPage(ctx, loader, *baseURL, *startPage, *countQuery, *perPage)
		if err != nil {
			fmt.Fprintf(stderr, "discover page count: %v\n", err)
			return 1
		}
		if *verbose {
			logger.Printf("discovered last page: %d", lastPage)
		}
	}

	start := time.Now()
	var written, failedPages int

	for page := *startPage; page <= lastPage; page++ {
		url := extracthtml.ExpandPageURL(*baseURL, page)

		records, err := scrapePage(ctx, loader, url, mf)
		if err != nil {
			logger.Printf("page %d: %v", page, err)
			metrics.IncCounter(metrics.PagesTotal, 1, metrics.Labels{"status": "failed"})
			failedPages++
			continue
		}
		metrics.IncCounter(metrics.PagesTotal, 1, metrics.Labels{"status": "ok"})
		metrics.IncCounter(metrics.RecordsTotal, float64(len(records)), metrics.Labels{"kind": "extracted"})

		// Sink failures mean the output file itself is broken, so the walk
		// stops rather than silently dropping pages.
		if err := out.AppendAll(records); err != nil {
			fmt.Fprintf(stderr, "page %d: append: %v\n", page, err)
			return 1
		}
		metrics.IncCounter(metrics.RecordsTotal, float64(len(records)), metrics.Labels{"kind": "written"})
		written += len(records)

		if *verbose {
			logger.Printf("page %d: %d records", page, len(records))
		}
	}

	if *verbose {
		logger.Printf("done: records=%d failed_pages=%d in %s",
			written, failedPages, time.Since(start).Truncate(time.Millisecond))
	}
	return 0
}

// scrapePage fetches one listing page and extracts its records. Without a
// product selector the whole page is a single record.
func scrapePage(ctx context.Context, loader *fetch.Loader, url string, mf *extracthtml.MappingFile) ([]map[string]string, error) {
	src, err := loader.HTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	doc, err := extracthtml.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	if mf.ProductSelector != "" {
		return extracthtml.ExtractRecords(doc, mf.ProductSelector, mf.Fields)
	}

	record, err := extracthtml.ExtractRecord(doc.Root(), mf.Fields)
	if err != nil {
		return nil, err
	}
	return []map[string]string{record}, nil
}

// discoverLastPage fetches the first page, reads the result counter, and
// derives the last page number from the per-page capacity.
func discoverLastPage(ctx context.Context, loader *fetch.Loader, baseURL string, startPage int, countQuery string, perPage int) (int, error) {
	src, err := loader.HTML(ctx, extracthtml.ExpandPageURL(baseURL, startPage))
	if err != nil {
		return 0, err
	}
	doc, err := extracthtml.ParseString(src)
	if err != nil {
		return 0, err
	}

	raw, err := extracthtml.Extract(doc.Root(), countQuery, extracthtml.DefaultDelimiter)
	if err != nil {
		return 0, err
	}
	count, ok, err := extracthtml.ParseCount(raw)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("no digits in counter text %q", raw)
	}
	return extracthtml.TotalPages(count, perPage), nil
}

// setupMetrics installs the requested metrics backend and returns the
// shutdown func for it (a no-op when metrics are disabled).
func setupMetrics(ctx context.Context, backendName string, verbose bool, logger *log.Logger) func() {
	switch backendName {
	case "datadog":
		b, err := datadog.NewBackend(ctx, datadog.Options{
			JobName: "scrape_products",
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
