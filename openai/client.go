package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/skosovsky/codebridge/chat"
)

// DefaultBaseURL is the public OpenAI API.
const DefaultBaseURL = "https://api.openai.com/v1"

const (
	chatCompletionsEndpoint = "/chat/completions"
	maxErrorBody            = 1 << 20
)

// Client calls the chat-completions endpoint. It is safe for concurrent use.
type Client struct {
	apiKey   string
	endpoint string
	headers  http.Header
	http     *retryablehttp.Client
	logger   *slog.Logger
}

var _ chat.Completer = (*Client)(nil)

// New returns a Client. An API key is required.
func New(opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	base, err := url.Parse(strings.TrimRight(o.baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("openai: base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("openai: base url %q: scheme must be http or https", o.baseURL)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	rc := retryablehttp.NewClient()
	if o.httpClient != nil {
		rc.HTTPClient = o.httpClient
	}
	rc.RetryMax = o.retryMax
	rc.RetryWaitMin = o.waitMin
	rc.RetryWaitMax = o.waitMax
	rc.Logger = o.logger
	// Keep the last response so its error body can be decoded.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			o.logger.WarnContext(req.Context(), "retrying completion request", "attempt", attempt)
		}
	}

	return &Client{
		apiKey:   o.apiKey,
		endpoint: base.String() + chatCompletionsEndpoint,
		headers:  o.headers,
		http:     rc,
		logger:   o.logger,
	}, nil
}

// Complete sends req and returns the first choice.
// Non-2xx answers are returned as *APIError.
func (c *Client) Complete(ctx context.Context, req chat.Request) (*chat.Response, error) {
	body, err := json.Marshal(requestFromChat(req))
	if err != nil {
		return nil, fmt.Errorf("openai: encode request: %w", err)
	}
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		apiErr := parseAPIError(httpResp.StatusCode, data)
		c.logger.WarnContext(ctx, "completion failed",
			"status", apiErr.StatusCode, "type", apiErr.Type, "code", apiErr.Code)
		return nil, apiErr
	}

	var resp chatCompletionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}
	out := responseToChat(resp)
	c.logger.DebugContext(ctx, "completion done",
		"model", out.Model,
		"finish_reason", out.FinishReason,
		"tool_calls", len(out.Message.ToolCalls),
		"total_tokens", out.Usage.TotalTokens,
		"duration", time.Since(start))
	return out, nil
}
