// Package deepgram transcribes microphone audio through the Deepgram live
// streaming API.
package deepgram

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-chat/core/audio"
)

const (
	DefaultListenURL = "wss://api.deepgram.com/v1/listen"
	DefaultModel     = "nova-3"
)

var (
	ErrMissingAPIKey  = errors.New("deepgram api key not configured")
	ErrMissingCapture = errors.New("no audio capture device configured")
)

type TranscriptionClient struct {
	apiKey    string
	capture   audio.Capture
	listenURL string
	model     string
	dialer    *websocket.Dialer

	mu      sync.Mutex
	session *session
}

type ClientOption func(*TranscriptionClient)

func WithListenURL(listenURL string) ClientOption {
	return func(c *TranscriptionClient) {
		if listenURL != "" {
			c.listenURL = listenURL
		}
	}
}

func WithModel(model string) ClientOption {
	return func(c *TranscriptionClient) {
		if model != "" {
			c.model = model
		}
	}
}

func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *TranscriptionClient) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

// NewTranscriptionClient creates a client that streams audio from capture.
// Without an API key or a capture device the client reports itself as
// unsupported.
func NewTranscriptionClient(apiKey string, capture audio.Capture, opts ...ClientOption) *TranscriptionClient {
	client := &TranscriptionClient{
		apiKey:    apiKey,
		capture:   capture,
		listenURL: DefaultListenURL,
		model:     DefaultModel,
		dialer:    websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *TranscriptionClient) IsSupported() bool {
	return c != nil && c.apiKey != "" && c.capture != nil
}

// Listening reports whether a capture session is open.
func (c *TranscriptionClient) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

func (c *TranscriptionClient) sessionEnded(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == s {
		c.session = nil
	}
}
