// Package companieshouse talks to the Companies House public data and document APIs.
package companieshouse

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"accounts/internal/logging"
	"accounts/internal/metrics"

	"github.com/rs/zerolog"
)

const DefaultBaseURL = "https://api.companieshouse.gov.uk"

const (
	endpointFilingHistory    = "filing_history"
	endpointDocumentMetadata = "document_metadata"
	endpointDocument         = "document"

	maxErrorBody = 1024
)

type Client struct {
	key     string
	baseURL *url.URL
	client  *http.Client
	limiter *RateLimiter
	logger  zerolog.Logger
}

func New(key string) *Client {
	base, _ := url.Parse(DefaultBaseURL)
	logger := logging.NewLogger("companieshouse")

	limiter := NewRateLimiter(DefaultRateLimitThreshold, DefaultRateLimitPause, nil)
	limiter.logger = logger

	return &Client{
		key:     key,
		baseURL: base,
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
		limiter: limiter,
		logger:  logger,
	}
}

// SetBaseURL points the client at another registry host.
func (c *Client) SetBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid registry base URL %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("registry base URL %q must include scheme and host", raw)
	}
	c.baseURL = u
	return nil
}

// SetRateLimiter replaces the default threshold/pause policy.
func (c *Client) SetRateLimiter(l *RateLimiter) {
	l.logger = c.logger
	c.limiter = l
}

// UseDefaultClient routes requests through http.DefaultClient.
func (c *Client) UseDefaultClient() {
	c.client = http.DefaultClient
}

func (c *Client) authorization() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.key))
}

func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid registry link %q: %w", ref, err)
	}
	return c.baseURL.ResolveReference(u).String(), nil
}

// get issues an authenticated GET. The caller owns the response body on success.
func (c *Client) get(ctx context.Context, endpoint, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/pdf")
	req.Header.Set("Authorization", c.authorization())

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.RegistryRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RegistryRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	metrics.RegistryRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp, &APIError{StatusCode: resp.StatusCode, URL: rawURL, Body: string(body)}
	}

	return resp, nil
}

// GetFilingHistory returns the filing history of the company registered under
// number. When the response says the rate limit window is nearly used up, the
// call blocks for the configured pause before returning.
func (c *Client) GetFilingHistory(ctx context.Context, number string) (*FilingHistory, error) {
	u := c.baseURL.JoinPath("company", number, "filing-history")

	resp, err := c.get(ctx, endpointFilingHistory, u.String())
	if resp == nil {
		return nil, err
	}

	var history *FilingHistory
	if err == nil {
		var out FilingHistory
		if decodeErr := json.NewDecoder(resp.Body).Decode(&out); decodeErr != nil {
			err = fmt.Errorf("decode filing history for %s: %w", number, decodeErr)
		} else {
			history = &out
		}
		resp.Body.Close()
	}

	if _, pauseErr := c.limiter.Observe(ctx, resp.Header); pauseErr != nil && err == nil {
		err = pauseErr
	}
	if err != nil {
		return nil, err
	}

	return history, nil
}

// GetDocumentMetadata follows a filing's document_metadata link.
func (c *Client) GetDocumentMetadata(ctx context.Context, metadataURL string) (*DocumentMetadata, error) {
	target, err := c.resolve(metadataURL)
	if err != nil {
		return nil, err
	}

	resp, err := c.get(ctx, endpointDocumentMetadata, target)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out DocumentMetadata
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode document metadata: %w", err)
	}

	if out.Links.Document == "" {
		return nil, ErrNoDocumentLink
	}

	return &out, nil
}

// DownloadDocument streams the document behind documentURL into w and returns
// the number of bytes written.
func (c *Client) DownloadDocument(ctx context.Context, documentURL string, w io.Writer) (int64, error) {
	target, err := c.resolve(documentURL)
	if err != nil {
		return 0, err
	}

	resp, err := c.get(ctx, endpointDocument, target)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download document: %w", err)
	}

	return n, nil
}
