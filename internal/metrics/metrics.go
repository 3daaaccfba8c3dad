// Package metrics defines the minimal metrics surface the scraping tools
// emit to. The default backend is a nop; commands may install a real backend
// (see the datadog subpackage) at startup.
//
// Core code depends only on Backend and the package-level helpers, keeping
// vendor-specific submission code out of the extraction path.
package metrics

import "sync"

// Metric families emitted by the scraping tools.
const (
	RecordsTotal        = "scrape_records_total"          // labels: kind (extracted|written|failed)
	PagesTotal          = "scrape_pages_total"            // labels: status (ok|failed)
	HTTPRequestsTotal   = "scrape_http_requests_total"    // labels: status
	HTTPErrorsTotal     = "scrape_http_errors_total"      // labels: status
	HTTPRequestDuration = "scrape_http_request_duration_seconds" // labels: status
	HTTPDownloadBytes   = "scrape_http_download_bytes"    // labels: status
)

// Labels attach dimensions to a metric sample.
type Labels map[string]string

// Backend receives metric samples. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

// nopBackend discards everything. It is the default so that library code can
// emit unconditionally.
type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the process-wide backend. Passing nil restores
// the nop backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		backend = nopBackend{}
		return
	}
	backend = b
}

// IncCounter adds delta to the named counter on the current backend.
func IncCounter(name string, delta float64, labels Labels) {
	mu.RLock()
	b := backend
	mu.RUnlock()
	b.IncCounter(name, delta, labels)
}

// ObserveHistogram records one sample of the named histogram.
func ObserveHistogram(name string, value float64, labels Labels) {
	mu.RLock()
	b := backend
	mu.RUnlock()
	b.ObserveHistogram(name, value, labels)
}

// Flush forwards to the current backend.
func Flush() error {
	mu.RLock()
	b := backend
	mu.RUnlock()
	return b.Flush()
}
