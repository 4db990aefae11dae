// Package remote reads and replaces the shared evaluation document.
//
// The document is a single JSON array of records behind one URL. Reads are
// plain GETs, writes replace the whole array with a PUT. Nothing is locked on
// the server side, so two writers that read the same version race and the
// last PUT wins, unless optimistic concurrency is enabled and the endpoint
// reports an ETag.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/metrics"
)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 32 << 20

// Document is one read of the remote collection.
type Document struct {
	Records []model.Evaluation
	// Version is the ETag reported by the endpoint, "" when it sends none.
	Version string
}

// Client talks to the remote document endpoint.
type Client struct {
	url        *url.URL
	http       *http.Client
	timeout    time.Duration
	optimistic bool
	log        logger.Logger
	now        func() time.Time
}

// New returns a client for the document at rawURL.
func New(rawURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	c := &Client{
		url:     u,
		http:    &http.Client{},
		timeout: 15 * time.Second,
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the document location.
func (c *Client) URL() string { return c.url.String() }

// Optimistic reports whether writes are conditional.
func (c *Client) Optimistic() bool { return c.optimistic }

// FetchDocument reads the current collection with a cache-busting query
// parameter so intermediaries never serve a stale copy.
func (c *Client) FetchDocument(ctx context.Context) (Document, error) {
	u := *c.url
	q := u.Query()
	q.Set("cache_bust", strconv.FormatInt(c.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return c.fetch(ctx, u.String())
}

// FetchForUpdate reads the current collection from the bare URL, as the first
// half of a read-modify-write.
func (c *Client) FetchForUpdate(ctx context.Context) (Document, error) {
	return c.fetch(ctx, c.url.String())
}

func (c *Client) fetch(ctx context.Context, target string) (Document, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return Document{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return Document{}, fmt.Errorf("%w: GET returned %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Document{}, fmt.Errorf("%w: read body: %w", ErrUnreachable, err)
	}
	return Document{
		Records: c.decode(ctx, body),
		Version: resp.Header.Get("ETag"),
	}, nil
}

// ReplaceDocument overwrites the whole collection. baseVersion is the Version
// of the Document the records were derived from; it is only sent when
// optimistic concurrency is enabled.
func (c *Client) ReplaceDocument(ctx context.Context, records []model.Evaluation, baseVersion string) (Document, error) {
	if records == nil {
		records = []model.Evaluation{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url.String(), bytes.NewReader(payload))
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.optimistic && baseVersion != "" {
		req.Header.Set("If-Match", baseVersion)
	}

	resp, err := c.do(req)
	if err != nil {
		return Document{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	switch {
	case resp.StatusCode == http.StatusPreconditionFailed, resp.StatusCode == http.StatusConflict:
		return Document{}, fmt.Errorf("%w: PUT returned %d", ErrConflict, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Document{}, fmt.Errorf("%w: PUT returned %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return Document{Records: model.CloneAll(records), Version: resp.Header.Get("ETag")}, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordRemoteRequest(req.Method, "transport_error", time.Since(start))
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreachable, req.Method, err)
	}
	metrics.RecordRemoteRequest(req.Method, strconv.Itoa(resp.StatusCode), time.Since(start))
	return resp, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// decode never fails: a body that is not a JSON array is an empty
// collection, and array elements that are not records are dropped.
func (c *Client) decode(ctx context.Context, body []byte) []model.Evaluation {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []model.Evaluation{}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		c.log.Warn(ctx, "remote document is not a JSON array, treating as empty",
			logger.Int("bytes", len(body)),
			logger.Error(err))
		metrics.RecordMalformedDocument()
		return []model.Evaluation{}
	}

	records := make([]model.Evaluation, 0, len(items))
	for i, raw := range items {
		var ev model.Evaluation
		if bytes.Equal(raw, []byte("null")) {
			c.log.Warn(ctx, "dropping null remote record", logger.Int("index", i))
			continue
		}
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Warn(ctx, "dropping malformed remote record",
				logger.Int("index", i),
				logger.Error(err))
			continue
		}
		records = append(records, ev)
	}
	if len(records) != len(items) {
		metrics.RecordMalformedDocument()
	}
	return records
}
