package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// outcome classifies one /predict response.
type outcome int

const (
	outcomeFailed outcome = iota
	outcomeAlert
	outcomeWatch
	outcomeClear
	outcomeRejected
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// submitSamples posts samples concurrently using a worker pool.
func submitSamples(ctx context.Context, cfg *Config, samples []Sample, stats *Stats) {
	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/predict"

	var counts [outcomeRejected + 1]int64
	var mismatched int64

	ch := make(chan Sample, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range ch {
				o := submitSingle(ctx, client, url, s)
				atomic.AddInt64(&counts[o], 1)
				// a malformed sample that was scored, or a valid one that was rejected
				if (o == outcomeRejected) == s.Valid {
					atomic.AddInt64(&mismatched, 1)
				}
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, s := range samples {
			select {
			case <-ctx.Done():
				return
			case ch <- s:
			}
		}
	}()
	wg.Wait()

	stats.Alerts = int(counts[outcomeAlert])
	stats.Watches = int(counts[outcomeWatch])
	stats.Clears = int(counts[outcomeClear])
	stats.Rejected = int(counts[outcomeRejected])
	stats.Failed = int(counts[outcomeFailed]) + int(mismatched)
	stats.Submitted = stats.Accepted() + stats.Rejected + int(counts[outcomeFailed])
}

func submitSingle(ctx context.Context, client *HTTPClient, url string, s Sample) outcome {
	resp, err := client.Post(ctx, url, map[string]string{"input": s.Input})
	if err != nil {
		return outcomeFailed
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return outcomeFailed
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var pr struct {
			Tier string `json:"tier"`
		}
		if err := json.Unmarshal(body, &pr); err != nil {
			return outcomeFailed
		}
		switch pr.Tier {
		case "ALERT":
			return outcomeAlert
		case "WATCH":
			return outcomeWatch
		case "CLEAR":
			return outcomeClear
		}
		return outcomeFailed
	case http.StatusBadRequest:
		return outcomeRejected
	default:
		return outcomeFailed
	}
}
