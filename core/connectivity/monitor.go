package connectivity

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultCheckURL      = "https://api.intelligence.io.solutions"
	DefaultCheckInterval = 15 * time.Second
	DefaultCheckTimeout  = 5 * time.Second
)

// Monitor checks a URL periodically and reflects the result in its Switch.
// Any HTTP response counts as online; only transport failures count as
// offline.
type Monitor struct {
	*Switch

	url      string
	interval time.Duration
	timeout  time.Duration
	client   *http.Client
}

type MonitorOption func(*Monitor)

func WithCheckURL(url string) MonitorOption {
	return func(m *Monitor) { m.url = url }
}

func WithCheckInterval(interval time.Duration) MonitorOption {
	return func(m *Monitor) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

func WithCheckTimeout(timeout time.Duration) MonitorOption {
	return func(m *Monitor) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

func WithHTTPClient(client *http.Client) MonitorOption {
	return func(m *Monitor) {
		if client != nil {
			m.client = client
		}
	}
}

// NewMonitor creates a monitor that starts out assuming it is online.
func NewMonitor(opts ...MonitorOption) *Monitor {
	m := &Monitor{
		Switch:   NewSwitch(true),
		url:      DefaultCheckURL,
		interval: DefaultCheckInterval,
		timeout:  DefaultCheckTimeout,
		client:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run checks until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Set(m.Check(ctx))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Set(m.Check(ctx))
		}
	}
}

// Check makes one request and reports whether it reached a server.
func (m *Monitor) Check(ctx context.Context) bool {
	ctx, span := tracer.Start(ctx, "check connectivity")
	defer span.End()

	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, m.url, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build check request")
		logger.Error("failed to build connectivity check", "url", m.url, "error", err)
		return false
	}

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down, not a connectivity signal.
			return m.IsOnline()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "check failed")
		logger.Debug("connectivity check failed", "url", m.url, "error", err)
		return false
	}
	resp.Body.Close()
	return true
}
