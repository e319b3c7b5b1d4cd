// Package fetch downloads remote documents for analysis.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/doclens/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

const maxAttempts = 3

// Config holds fetch client settings
type Config struct {
	Timeout         time.Duration
	UserAgent       string
	RespectRobots   bool
	MaxBytes        int64
	RequestsPerHour int
}

// Client downloads documents over HTTP with rate limiting, retries and
// robots.txt checks.
type Client struct {
	httpClient    *http.Client
	userAgent     string
	respectRobots bool
	maxBytes      int64
	rateLimiter   *rate.Limiter
	backoff       func(attempt int) time.Duration
	logger        *logrus.Entry
	debug         bool

	mu     sync.Mutex
	robots map[string]*robotstxt.RobotsData
}

var _ domain.DocumentFetcher = (*Client)(nil)

// NewClient creates a new fetch client
func NewClient(cfg Config, logger *logrus.Entry) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "DocLens/1.0"
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 20 << 20
	}
	if cfg.RequestsPerHour <= 0 {
		cfg.RequestsPerHour = 120
	}
	if logger == nil {
		logger = logrus.WithField("component", "fetch")
	}

	// rate.Limit is requests per second
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerHour)/3600), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent:     cfg.UserAgent,
		respectRobots: cfg.RespectRobots,
		maxBytes:      cfg.MaxBytes,
		rateLimiter:   limiter,
		backoff:       exponentialBackoff,
		logger:        logger,
		robots:        make(map[string]*robotstxt.RobotsData),
	}
}

// SetDebug enables or disables per-attempt logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the wait before retrying after attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// Fetch downloads rawURL. Network errors and 5xx responses are retried up to
// three times; other non-200 responses fail immediately.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*domain.Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid url %q", domain.ErrInvalidRequest, rawURL)
	}

	if c.respectRobots {
		allowed, err := c.allowed(ctx, u)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", domain.ErrRobotsDisallowed, rawURL)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt - 1)):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		doc, retry, err := c.fetchOnce(ctx, u)
		if err == nil {
			c.logger.WithFields(logrus.Fields{
				"url":   rawURL,
				"bytes": len(doc.Data),
			}).Info("document fetched")
			return doc, nil
		}
		if c.debug {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"url":     rawURL,
				"attempt": attempt,
			}).Debug("fetch attempt failed")
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}

	c.logger.WithError(lastErr).WithField("url", rawURL).Warn("all fetch attempts failed")
	return nil, lastErr
}

// fetchOnce performs one GET; the bool reports whether the failure is transient
func (c *Client) fetchOnce(ctx context.Context, u *url.URL) (*domain.Document, bool, error) {
	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("%w: status %d", domain.ErrFetchFailure, resp.StatusCode)
		return nil, resp.StatusCode >= 500, err
	}

	if resp.ContentLength > c.maxBytes {
		return nil, false, fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrDocumentTooLarge, resp.ContentLength, c.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, false, fmt.Errorf("%w: over %d bytes", domain.ErrDocumentTooLarge, c.maxBytes)
	}

	return &domain.Document{
		Name:        documentName(u),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, false, nil
}

// doRequest executes an HTTP GET request with the client's User-Agent
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
	}
	return resp, nil
}

// allowed checks robots.txt for the url's host, caching the parsed file per host
func (c *Client) allowed(ctx context.Context, u *url.URL) (bool, error) {
	host := u.Scheme + "://" + u.Host

	c.mu.Lock()
	robots, ok := c.robots[host]
	c.mu.Unlock()

	if !ok {
		resp, err := c.doRequest(ctx, host+"/robots.txt")
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			// Unreachable robots.txt does not block the fetch
			c.logger.WithError(err).WithField("host", u.Host).Debug("robots.txt unavailable")
			return true, nil
		}
		robots, err = robotstxt.FromResponse(resp)
		resp.Body.Close()
		if err != nil {
			c.logger.WithError(err).WithField("host", u.Host).Debug("robots.txt unparsable")
			return true, nil
		}

		c.mu.Lock()
		c.robots[host] = robots
		c.mu.Unlock()
	}

	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	return robots.TestAgent(target, c.userAgent), nil
}

// documentName derives a file name from the url path so the extractor can
// pick a format by extension.
func documentName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return u.Host
	}
	return name
}
