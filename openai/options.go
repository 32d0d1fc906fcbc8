package openai

import (
	"log/slog"
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*options)

type options struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retryMax   int
	waitMin    time.Duration
	waitMax    time.Duration
	logger     *slog.Logger
	headers    http.Header
}

func defaultOptions() options {
	return options{
		baseURL:  DefaultBaseURL,
		retryMax: 3,
		waitMin:  500 * time.Millisecond,
		waitMax:  10 * time.Second,
		headers:  make(http.Header),
	}
}

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

// WithBaseURL points the client at an OpenAI-compatible server.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithHTTPClient sets the underlying HTTP client; retries wrap it.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithRetry sets the retry budget and backoff bounds. max 0 disables retries.
func WithRetry(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(o *options) {
		o.retryMax = maxRetries
		o.waitMin = waitMin
		o.waitMax = waitMax
	}
}

// WithLogger sets the logger used for request and retry events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithHeader adds a header sent with every request (e.g. OpenAI-Organization).
func WithHeader(key, value string) Option {
	return func(o *options) {
		o.headers.Add(key, value)
	}
}
