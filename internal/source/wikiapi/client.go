// Package wikiapi implements the Wikipedia "allpages" API client behind the
// source.PageSource interface.
//
// Design goals:
//
//   - Keep a tiny, explicit API (FetchPages).
//   - Bound every request by a per-request timeout; expiry is a failure,
//     never a hang. There is no retry: retry/backoff belongs to an external
//     scheduler.
//   - Be easy to test by injecting a custom RoundTripper.
package wikiapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wikietl/internal/source"
	"wikietl/internal/table"
	"wikietl/pkg/records"
)

// Columns is the column set every fetched table carries, even when the
// remote result list is empty.
var Columns = []string{"pageid", "title"}

// Config configures the client. Zero values get defaults: Timeout 30s,
// Limit 100.
type Config struct {
	// BaseURL is the API endpoint, e.g. https://en.wikipedia.org/w/api.php.
	BaseURL string

	// Timeout bounds each request at the http.Client level.
	Timeout time.Duration

	// Limit is the aplimit query parameter.
	Limit int

	// Transport is an optional custom RoundTripper for tests.
	Transport http.RoundTripper
}

// Client fetches page listings over HTTP.
type Client struct {
	baseURL    string
	limit      int
	httpClient *http.Client
}

// NewClient constructs a Client from Config, applying defaults for zero
// values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	return &Client{
		baseURL: cfg.BaseURL,
		limit:   cfg.Limit,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
	}
}

// params builds the allpages query.
func (c *Client) params() url.Values {
	v := url.Values{}
	v.Set("action", "query")
	v.Set("format", "json")
	v.Set("list", "allpages")
	v.Set("aplimit", strconv.Itoa(c.limit))
	return v
}

// apiResponse mirrors the top-level keys the contract requires.
type apiResponse struct {
	Query *struct {
		AllPages *[]map[string]any `json:"allpages"`
	} `json:"query"`
}

// FetchPages performs the GET and converts the result list into a table
// with pageid and title columns. Transport failures and timeouts surface as
// *source.NetworkError; missing top-level keys as *source.FormatError. An
// empty result list yields a zero-row table that still carries both columns.
func (c *Client) FetchPages(ctx context.Context) (table.Table, error) {
	reqURL := c.baseURL + "?" + c.params().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return table.Table{}, fmt.Errorf("wikiapi: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return table.Table{}, &source.NetworkError{URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return table.Table{}, &source.NetworkError{
			URL: c.baseURL,
			Err: fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return table.Table{}, &source.NetworkError{URL: c.baseURL, Err: err}
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return table.Table{}, &source.FormatError{Reason: fmt.Sprintf("body is not JSON: %v", err)}
	}
	if parsed.Query == nil {
		return table.Table{}, &source.FormatError{Reason: `missing top-level "query" key`}
	}
	if parsed.Query.AllPages == nil {
		return table.Table{}, &source.FormatError{Reason: `missing "query.allpages" key`}
	}

	tbl := table.New(Columns...)
	for _, page := range *parsed.Query.AllPages {
		rec := make(records.Record, len(Columns))
		for _, col := range Columns {
			rec[col] = nil
		}
		if v, ok := page["pageid"]; ok {
			if n, ok := records.AsInt(v); ok {
				rec["pageid"] = n
			}
		}
		if v, ok := page["title"]; ok {
			if s, ok := v.(string); ok {
				rec["title"] = s
			}
		}
		tbl.Rows = append(tbl.Rows, rec)
	}
	return tbl, nil
}
