// Package elastic is a focused HTTP client for the search engine's index,
// document and query surface, plus the batching and identity rules built on it.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPStatusError captures unexpected upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("elastic: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to one search-engine endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client for the given endpoint. An endpoint without a
// scheme defaults to https.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("elastic: endpoint must not be empty")
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// CreateIndex creates an index. HTTP 400 ("index already exists") counts as
// success so the call stays idempotent.
func (c *Client) CreateIndex(ctx context.Context, index string) error {
	_, err := c.do(ctx, http.MethodPut, "/"+index, "", nil, http.StatusOK, http.StatusBadRequest)
	return err
}

// DeleteIndex removes an index. HTTP 404 counts as success.
func (c *Client) DeleteIndex(ctx context.Context, index string) error {
	_, err := c.do(ctx, http.MethodDelete, "/"+index, "", nil, http.StatusOK, http.StatusNotFound)
	return err
}

// PutMapping defines the field types of a document type. Must be applied once
// before the first document write.
func (c *Client) PutMapping(ctx context.Context, index, docType string, mapping any) error {
	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("elastic: marshal mapping: %w", err)
	}
	_, err = c.do(ctx, http.MethodPut, fmt.Sprintf("/%s/_mapping/%s", index, docType), "application/json", body, http.StatusOK)
	return err
}

// PutDocument writes one document under the given identity. The engine answers
// 201 on creation.
func (c *Client) PutDocument(ctx context.Context, index, docType, id string, document any) error {
	body, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("elastic: marshal document: %w", err)
	}
	_, err = c.do(ctx, http.MethodPut, fmt.Sprintf("/%s/%s/%s", index, docType, id), "application/json", body, http.StatusCreated)
	return err
}

// GetDocument fetches the stored source of one document.
func (c *Client) GetDocument(ctx context.Context, index, docType, id string) (json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/%s/%s/%s", index, docType, id), "", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Source json.RawMessage `json:"_source"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("elastic: decode document: %w", err)
	}
	return payload.Source, nil
}

// DeleteDocument removes one document. HTTP 404 counts as success.
func (c *Client) DeleteDocument(ctx context.Context, index, docType, id string) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/%s/%s/%s", index, docType, id), "", nil, http.StatusOK, http.StatusNotFound)
	return err
}

// BulkItem is one action/document pair of a bulk submission.
type BulkItem struct {
	Index    string
	DocType  string
	ID       string
	Document any
}

type bulkAction struct {
	Index bulkActionMeta `json:"index"`
}

type bulkActionMeta struct {
	Index   string `json:"_index"`
	DocType string `json:"_type"`
	ID      string `json:"_id"`
}

// Bulk submits the items as one newline-delimited JSON request. Only the
// overall transport status is inspected; per-item results are not.
func (c *Client) Bulk(ctx context.Context, items []BulkItem) error {
	if len(items) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, item := range items {
		action := bulkAction{Index: bulkActionMeta{Index: item.Index, DocType: item.DocType, ID: item.ID}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("elastic: marshal bulk action: %w", err)
		}
		if err := enc.Encode(item.Document); err != nil {
			return fmt.Errorf("elastic: marshal bulk document %q: %w", item.ID, err)
		}
	}
	_, err := c.do(ctx, http.MethodPost, "/_bulk", "application/x-ndjson", buf.Bytes(), http.StatusOK)
	return err
}

// SearchResult is the engine's hit envelope.
type SearchResult struct {
	Hits struct {
		Total int   `json:"total"`
		Hits  []Hit `json:"hits"`
	} `json:"hits"`
}

// Hit is one matched document with its optional highlight fragments.
type Hit struct {
	ID        string              `json:"_id"`
	Score     float64             `json:"_score"`
	Source    json.RawMessage     `json:"_source"`
	Highlight map[string][]string `json:"highlight"`
}

// Search runs a query body against one index and document type.
func (c *Client) Search(ctx context.Context, index, docType string, query Query) (SearchResult, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return SearchResult{}, fmt.Errorf("elastic: marshal query: %w", err)
	}
	raw, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/%s/%s/_search", index, docType), "application/json", body, http.StatusOK)
	if err != nil {
		return SearchResult{}, err
	}
	var result SearchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return SearchResult{}, fmt.Errorf("elastic: decode search result: %w", err)
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, wantStatus ...int) ([]byte, error) {
	url := c.endpoint + path
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("elastic: create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("elastic: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	accepted := false
	for _, status := range wantStatus {
		if res.StatusCode == status {
			accepted = true
			break
		}
	}
	if !accepted {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("elastic: read response body: %w", err)
	}
	return buf, nil
}
