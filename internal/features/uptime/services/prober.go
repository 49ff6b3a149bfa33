package services

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"watchly/internal/core"
	"watchly/internal/features/uptime/models"
)

const (
	maxDrainBytes     = 1 << 20 // 1MB
	minResponseTimeMs = 0.001
)

// connection pooling limits so a large website list cannot exhaust sockets
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 4
	defaultIdleConnTimeout     = 60 * time.Second
)

// Prober issues one HTTP GET per website and classifies the outcome.
// At most maxConcurrent probes are in flight at once.
type Prober struct {
	client *http.Client
	logger *core.Logger

	mu            sync.RWMutex
	timeout       time.Duration
	maxConcurrent int
}

func NewProber(logger *core.Logger, timeout time.Duration, maxConcurrent int) *Prober {
	return &Prober{
		// no client timeout, each probe carries its own deadline
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		logger:        logger,
		timeout:       timeout,
		maxConcurrent: maxConcurrent,
	}
}

// SetLimits swaps the per-probe timeout and concurrency cap. Takes effect
// on the next ProbeAll.
func (p *Prober) SetLimits(timeout time.Duration, maxConcurrent int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.timeout = timeout
	p.maxConcurrent = maxConcurrent
}

func (p *Prober) limits() (time.Duration, int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.timeout, p.maxConcurrent
}

// ProbeAll probes every website and waits for all of them. The result slice
// has exactly one entry per website, in input order.
func (p *Prober) ProbeAll(ctx context.Context, websites []models.Website) []models.ProbeResult {
	timeout, maxConcurrent := p.limits()
	results := make([]models.ProbeResult, len(websites))

	var g errgroup.Group
	g.SetLimit(maxConcurrent)

	for i, website := range websites {
		g.Go(func() error {
			results[i] = p.Probe(ctx, website, timeout)
			return nil
		})
	}
	g.Wait()

	return results
}

// Probe checks a single website. Failures are reported as a down result,
// never as an error.
func (p *Prober) Probe(ctx context.Context, website models.Website, timeout time.Duration) models.ProbeResult {
	result := models.ProbeResult{
		WebsiteID: website.ID,
		URL:       website.URL,
		UpFlag:    models.UpFlagDown,
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, website.URL, nil)
	if err != nil {
		result.Err = err
		result.Timestamp = time.Now()
		p.logger.WithContext(ctx).Warn("Website probe failed", "website_id", website.ID, "url", website.URL, "error", err)
		return result
	}
	req.Header.Set("User-Agent", "Watchly/1.0 (+uptime monitor)")

	start := time.Now()
	resp, err := p.client.Do(req)
	elapsed := time.Since(start)
	result.Timestamp = time.Now()

	if err != nil {
		result.Err = err
		p.logger.WithContext(ctx).Warn("Website probe failed", "website_id", website.ID, "url", website.URL, "error", err)
		return result
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	resp.Body.Close()

	result.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.UpFlag = models.UpFlagUp
		result.ResponseTimeMs = float64(elapsed) / float64(time.Millisecond)
		// up results always carry a nonzero response time
		if result.ResponseTimeMs <= 0 {
			result.ResponseTimeMs = minResponseTimeMs
		}
	}

	p.logger.WithContext(ctx).Debug("Website probe completed",
		"website_id", website.ID,
		"url", website.URL,
		"status", resp.StatusCode,
		"response_time_ms", result.ResponseTimeMs,
		"is_up", result.IsUp())

	return result
}
