package flickr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultBaseURL is the Flickr REST endpoint
	DefaultBaseURL = "https://api.flickr.com/services/rest/"

	// DefaultExtras asks listings for every field the normalizer understands,
	// including the url/width/height triple of each size variant
	DefaultExtras = "description,last_update,date_taken,media,views,geo,original_format,tags," +
		"url_sq,url_q,url_t,url_s,url_n,url_m,url_z,url_c,url_l,url_h,url_k,url_o"

	// DefaultPerPage is the largest page size Flickr serves for listings
	DefaultPerPage = 300

	defaultUserAgent   = "photoloader"
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
	defaultTimeout     = 30 * time.Second
	maxErrorBody       = 200
)

// Options tunes a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	// PermanentCodes are Flickr error codes that are returned without retrying
	PermanentCodes []int
	UserAgent      string
	HTTPClient     *http.Client
}

// DefaultPermanentCodes are "Invalid API Key" and "Method not found"
var DefaultPermanentCodes = []int{100, 112}

// Client issues signed Flickr API requests and retries transient failures
type Client struct {
	BaseURL        string
	APIKey         string
	MaxAttempts    int
	RetryDelay     time.Duration
	PermanentCodes []int
	UserAgent      string
	httpClient     *http.Client
}

// NewClient creates a new Flickr client
func NewClient(apiKey string, opts Options) *Client {
	c := &Client{
		BaseURL:        opts.BaseURL,
		APIKey:         apiKey,
		MaxAttempts:    opts.MaxAttempts,
		RetryDelay:     opts.RetryDelay,
		PermanentCodes: opts.PermanentCodes,
		UserAgent:      opts.UserAgent,
		httpClient:     opts.HTTPClient,
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.PermanentCodes == nil {
		c.PermanentCodes = DefaultPermanentCodes
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	return c
}

// envelope is the part of every Flickr response that reports failures
type envelope struct {
	Stat    string `json:"stat"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Call invokes a Flickr API method and decodes the response into out.
// Failed attempts are retried with a linearly increasing delay; after the last
// attempt the final error is returned wrapped with the attempt count.
func (c *Client) Call(ctx context.Context, method string, params url.Values, out any) error {
	query := c.signedQuery(method, params)

	attempts := 0
	operation := func() error {
		attempts++
		err := c.attempt(ctx, method, query, out)
		if err == nil {
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Kind == APIFailure && slices.Contains(c.PermanentCodes, apiErr.Code) {
			return backoff.Permanent(err)
		}

		slog.Debug("Flickr request failed", "method", method, "attempt", attempts, "max_attempts", c.MaxAttempts, "error", err)
		return err
	}

	policy := backoff.WithContext(newRetryPolicy(c.RetryDelay, c.MaxAttempts), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("%s failed after %d attempts: %w", method, attempts, err)
	}

	return nil
}

func (c *Client) signedQuery(method string, params url.Values) url.Values {
	query := url.Values{}
	for key, values := range params {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	query.Set("api_key", c.APIKey)
	query.Set("format", "json")
	query.Set("nojsoncallback", "1")
	query.Set("method", method)
	return query
}

// attempt performs a single request
func (c *Client) attempt(ctx context.Context, method string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return &APIError{Kind: TransportFailure, Method: method, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: TransportFailure, Method: method, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: TransportFailure, Method: method, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Kind:       HTTPStatusFailure,
			Method:     method,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), maxErrorBody),
		}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &APIError{Kind: TransportFailure, Method: method, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if env.Stat == "fail" {
		msg := env.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return &APIError{Kind: APIFailure, Method: method, Code: env.Code, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Kind: TransportFailure, Method: method, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
