// Package connector provides a reusable authenticated HTTP session with
// response-scoped structured extraction. A Client owns its cookie jar and
// default headers, remembers the last response it received, and can pull
// single values, whole field records, or key/value pair tables straight out
// of that response with XPath queries.
package connector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"time"

	"scrape/internal/extracthtml"

	"github.com/go-resty/resty/v2"
)

// ErrNoResponse is returned by the extraction methods before any request has
// been made on the session.
var ErrNoResponse = errors.New("connector: no response available for extraction")

const defaultTimeout = 30 * time.Second

// Options configures a session client.
type Options struct {
	// BaseURL prefixes every request path.
	BaseURL string

	// Username and Password are the default login credentials; Login uses
	// them when no explicit form is given.
	Username string
	Password string

	// Headers are sent with every request (user agent, accept-language, ...).
	Headers map[string]string

	// Timeout applies per request. Zero means 30s.
	Timeout time.Duration
}

// Client is an authenticated scraping session. It is not safe for concurrent
// use: the last-response slot is deliberately a single value, matching the
// sequential fetch-then-extract flow it exists for.
type Client struct {
	http     *resty.Client
	username string
	password string
	last     *resty.Response
}

// NewClient builds a session with its own cookie jar.
func NewClient(opts Options) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetCookieJar(jar)
	client.SetTimeout(timeout)
	if len(opts.Headers) > 0 {
		client.SetHeaders(opts.Headers)
	}

	return &Client{
		http:     client,
		username: opts.Username,
		password: opts.Password,
	}, nil
}

// SetHeaders merges headers into the session defaults for all subsequent
// requests.
func (c *Client) SetHeaders(headers map[string]string) {
	c.http.SetHeaders(headers)
}

// Login posts a credential form to path. A nil form falls back to
// {"username": ..., "password": ...} from the configured credentials.
//
// The response is retained for extraction either way; many sites render
// error details into the login response body, and pulling those out is
// exactly what the extraction methods are for.
func (c *Client) Login(ctx context.Context, path string, form map[string]string) (*resty.Response, error) {
	if form == nil {
		form = map[string]string{
			"username": c.username,
			"password": c.password,
		}
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	c.last = res
	return res, nil
}

// Logout terminates the session by requesting path.
func (c *Client) Logout(ctx context.Context, path string) (*resty.Response, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("logout: %w", err)
	}
	c.last = res
	return res, nil
}

// Do executes an arbitrary request and retains the response.
//
// Transport failures return an error; HTTP error statuses do not. The
// response object carries the status code for callers that want to branch
// on it.
func (c *Client) Do(ctx context.Context, method, path string, body any, headers map[string]string) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}

	res, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.last = res
	return res, nil
}

// Get is shorthand for Do with GET and no body.
func (c *Client) Get(ctx context.Context, path string) (*resty.Response, error) {
	return c.Do(ctx, resty.MethodGet, path, nil, nil)
}

// PostForm posts form data to path and retains the response.
func (c *Client) PostForm(ctx context.Context, path string, form map[string]string) (*resty.Response, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	c.last = res
	return res, nil
}

// LastResponse returns the most recent response, or nil before any request.
func (c *Client) LastResponse() *resty.Response {
	return c.last
}

// document parses the last response body as HTML.
func (c *Client) document() (*extracthtml.Document, error) {
	if c.last == nil {
		return nil, ErrNoResponse
	}
	return extracthtml.Parse(bytes.NewReader(c.last.Body()))
}

// ExtractOne evaluates a single query against the last response and returns
// the collapsed value ("" when nothing matches).
func (c *Client) ExtractOne(query string) (string, error) {
	doc, err := c.document()
	if err != nil {
		return "", err
	}
	return extracthtml.Extract(doc.Root(), query, extracthtml.DefaultDelimiter)
}

// ExtractFields evaluates a field mapping against the last response. The
// returned record contains every field name, empty string for misses.
func (c *Client) ExtractFields(fields []extracthtml.Field) (map[string]string, error) {
	doc, err := c.document()
	if err != nil {
		return nil, err
	}
	return extracthtml.ExtractRecord(doc.Root(), fields)
}

// ExtractList evaluates queries in order against the last response and
// returns one collapsed value per query, positionally.
func (c *Client) ExtractList(queries []string) ([]string, error) {
	doc, err := c.document()
	if err != nil {
		return nil, err
	}

	values := make([]string, len(queries))
	for i, q := range queries {
		v, err := extracthtml.Extract(doc.Root(), q, extracthtml.DefaultDelimiter)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// ExtractPairs zips two queries over the last response into key/value pairs
// (see extracthtml.ExtractPairs for the zip semantics).
func (c *Client) ExtractPairs(keyQuery, valueQuery string) ([]extracthtml.Pair, error) {
	doc, err := c.document()
	if err != nil {
		return nil, err
	}
	return extracthtml.ExtractPairs(doc.Root(), keyQuery, valueQuery)
}
