// Package completions talks to OpenAI-compatible chat completion endpoints,
// streaming the response as server-sent events.
package completions

import (
	"context"
	"net/http"
	"time"

	"github.com/koscakluka/ema-chat/core/connectivity"
	"github.com/koscakluka/ema-chat/core/retry"
	"github.com/koscakluka/ema-chat/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultTemperature  = 0.7
	DefaultIdleTimeout  = 30 * time.Second
	DefaultSystemPrompt = "You are a helpful AI assistant. Provide clear, concise, and accurate responses to user questions. " +
		"Keep responses friendly and conversational, but focused on delivering valuable information."
)

// Dialect selects how the request body is shaped.
type Dialect int

const (
	// DialectIONet sends the system prompt and output format as top-level
	// fields.
	DialectIONet Dialect = iota
	// DialectOpenAI sends the system prompt as the first message.
	DialectOpenAI
)

type Client struct {
	apiKey          string
	endpoint        string
	sessionEndpoint func(sessionID string) string
	dialect         Dialect

	httpClient   *http.Client
	connectivity connectivity.Checker

	temperature  float64
	systemPrompt string
	streaming    bool
	idleTimeout  time.Duration
	retryPolicy  retry.Policy
	sleep        func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithSessionEndpoint routes prompts that carry a session id to the URL
// returned by endpoint. Without it session ids are ignored.
func WithSessionEndpoint(endpoint func(sessionID string) string) Option {
	return func(c *Client) { c.sessionEndpoint = endpoint }
}

func WithDialect(dialect Dialect) Option {
	return func(c *Client) { c.dialect = dialect }
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithConnectivity makes the client answer with an offline message, without
// making a request, whenever checker reports no connectivity.
func WithConnectivity(checker connectivity.Checker) Option {
	return func(c *Client) { c.connectivity = checker }
}

func WithTemperature(temperature float64) Option {
	return func(c *Client) { c.temperature = temperature }
}

func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.systemPrompt = prompt }
}

// WithStreaming toggles server-sent events. A non-streaming response is
// delivered as a single chunk.
func WithStreaming(streaming bool) Option {
	return func(c *Client) { c.streaming = streaming }
}

// WithIdleTimeout bounds how long a response may go without producing a
// line before it is abandoned as stalled.
func WithIdleTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.idleTimeout = timeout
		}
	}
}

// WithRetryPolicy sets the backoff used when a request stalls before
// producing any output.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) { c.retryPolicy = policy }
}

func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey: apiKey,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
		temperature:  DefaultTemperature,
		systemPrompt: DefaultSystemPrompt,
		streaming:    true,
		idleTimeout:  DefaultIdleTimeout,
		retryPolicy:  retry.DefaultPolicy(),
		sleep:        sleep,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) isOnline() bool {
	return c.connectivity == nil || c.connectivity.IsOnline()
}

func (c *Client) url(sessionID *string) string {
	if id := utils.Deref(sessionID); id != "" && c.sessionEndpoint != nil {
		return c.sessionEndpoint(id)
	}
	return c.endpoint
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
