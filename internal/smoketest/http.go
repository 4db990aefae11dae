package smoketest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

// errThrottled marks a 429 answer.
var errThrottled = errors.New("throttled")

// HTTPClient wraps http.Client with the service base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

// do sends a request and returns the status and body. A JSON body is
// encoded when in is not nil.
func (c *HTTPClient) do(ctx context.Context, method, path string, in any) (int, []byte, error) {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, b, nil
}

// getJSON decodes a 200 answer into out.
func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("GET %s: status %d: %s", path, status, bytes.TrimSpace(body))
	}
	return json.Unmarshal(body, out)
}

// create posts one draft, retrying while the server throttles writes.
func (c *HTTPClient) create(ctx context.Context, d model.Draft) (model.Evaluation, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		status, body, err := c.do(ctx, http.MethodPost, "/evaluations", d)
		switch {
		case err != nil:
			return model.Evaluation{}, err
		case status == http.StatusCreated:
			var ev model.Evaluation
			if err := json.Unmarshal(body, &ev); err != nil {
				return model.Evaluation{}, fmt.Errorf("decode created evaluation: %w", err)
			}
			return ev, nil
		case status == http.StatusTooManyRequests:
			lastErr = errThrottled
			select {
			case <-ctx.Done():
				return model.Evaluation{}, ctx.Err()
			case <-time.After(throttleBackoff << attempt):
			}
		default:
			return model.Evaluation{}, fmt.Errorf("POST /evaluations: status %d: %s", status, bytes.TrimSpace(body))
		}
	}
	return model.Evaluation{}, lastErr
}

// remove deletes one record. A 404 counts as already removed.
func (c *HTTPClient) remove(ctx context.Context, id string) error {
	status, body, err := c.do(ctx, http.MethodDelete, "/evaluations/"+id, nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusNotFound {
		return fmt.Errorf("DELETE /evaluations/%s: status %d: %s", id, status, bytes.TrimSpace(body))
	}
	return nil
}

// submitDrafts creates drafts concurrently using a worker pool and returns
// the created records in submission order; failed slots are left zero.
func submitDrafts(ctx context.Context, cfg *Config, client *HTTPClient, drafts []model.Draft, stats *Stats) []model.Evaluation {
	log := logger.Get()
	log.Info(ctx, "submitting drafts", logger.Int("count", len(drafts)), logger.Int("workers", cfg.Workers))

	created := make([]model.Evaluation, len(drafts))
	var submitted, ok, throttled, failed int64

	jobs := make(chan int, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				atomic.AddInt64(&submitted, 1)
				ev, err := client.create(ctx, drafts[i])
				switch {
				case err == nil:
					created[i] = ev
					atomic.AddInt64(&ok, 1)
				case errors.Is(err, errThrottled):
					atomic.AddInt64(&throttled, 1)
				default:
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "create failed", logger.Int("index", i), logger.Error(err))
					}
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range drafts {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	stats.Submitted = int(submitted)
	stats.Created = int(ok)
	stats.Throttled = int(throttled)
	stats.Failed = int(failed)
	log.Info(ctx, "submission completed",
		logger.Int("created", stats.Created),
		logger.Int("throttled", stats.Throttled),
		logger.Int("failed", stats.Failed))
	return created
}
