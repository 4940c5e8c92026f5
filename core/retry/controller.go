package retry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Action string

const (
	// ActionRetry means a restart was scheduled.
	ActionRetry Action = "retry"
	// ActionOffline means the host has no connectivity and retrying was abandoned.
	ActionOffline Action = "offline"
	// ActionExhausted means every attempt was used and retrying was abandoned.
	ActionExhausted Action = "exhausted"
)

// Decision is the outcome of handling one network error.
type Decision struct {
	Action      Action
	Attempt     int
	MaxAttempts int
	Delay       time.Duration
}

// Controller decides whether and when to restart transcription after a
// network error.
//
// Controller is not safe for concurrent use. Every method, and every function
// the Scheduler runs, must be called from the same serialized context.
type Controller struct {
	policy    Policy
	scheduler Scheduler
	isOnline  func() bool
	restart   func(attempt int)

	attempt int
	delay   time.Duration
	token   uint64
	stop    func() bool
}

type Option func(*Controller)

func WithPolicy(policy Policy) Option {
	return func(c *Controller) { c.policy = policy.withDefaults() }
}

func WithScheduler(scheduler Scheduler) Option {
	return func(c *Controller) {
		if scheduler != nil {
			c.scheduler = scheduler
		}
	}
}

// WithConnectivity sets the check consulted before every retry.
func WithConnectivity(isOnline func() bool) Option {
	return func(c *Controller) {
		if isOnline != nil {
			c.isOnline = isOnline
		}
	}
}

// NewController creates a controller that calls restart when a scheduled
// retry is due.
func NewController(restart func(attempt int), opts ...Option) *Controller {
	c := &Controller{
		policy:    DefaultPolicy(),
		scheduler: TimerScheduler{},
		isOnline:  func() bool { return true },
		restart:   restart,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnNetworkError handles a network error reported while capture is wanted.
func (c *Controller) OnNetworkError() Decision {
	ctx, span := tracer.Start(context.Background(), "handle recognition network error")
	defer span.End()

	decision := c.decide()
	span.SetAttributes(
		attribute.String("retry.action", string(decision.Action)),
		attribute.Int("retry.attempt", decision.Attempt),
		attribute.Int64("retry.delay_ms", decision.Delay.Milliseconds()),
	)
	retryDecisions.Add(ctx, 1, metric.WithAttributes(attribute.String("action", string(decision.Action))))
	return decision
}

func (c *Controller) decide() Decision {
	if !c.isOnline() {
		c.Reset()
		return Decision{Action: ActionOffline, MaxAttempts: c.policy.MaxAttempts}
	}

	if c.attempt >= c.policy.MaxAttempts {
		attempt := c.attempt
		c.Reset()
		return Decision{Action: ActionExhausted, Attempt: attempt, MaxAttempts: c.policy.MaxAttempts}
	}

	c.attempt++
	c.delay = c.policy.Delay(c.attempt)
	c.schedule()
	logger.Info("recognition restart scheduled", "attempt", c.attempt, "max_attempts", c.policy.MaxAttempts, "delay", c.delay)

	return Decision{
		Action:      ActionRetry,
		Attempt:     c.attempt,
		MaxAttempts: c.policy.MaxAttempts,
		Delay:       c.delay,
	}
}

// OnStarted resets the attempt counter after a successful start.
func (c *Controller) OnStarted() { c.Reset() }

// OnStopped handles a deliberate stop: pending retries are dropped silently.
func (c *Controller) OnStopped() { c.Reset() }

// OnOffline drops any pending retry.
func (c *Controller) OnOffline() { c.Reset() }

// OnOnline runs a pending retry immediately instead of waiting for its
// delay. It reports whether a retry was run.
func (c *Controller) OnOnline() bool {
	if !c.Pending() {
		return false
	}

	c.cancelPending()
	c.token++
	logger.Info("connectivity restored, retrying recognition now", "attempt", c.attempt)
	c.restart(c.attempt)
	return true
}

// Pending reports whether a restart is scheduled.
func (c *Controller) Pending() bool { return c.stop != nil }

// Reset clears the attempt counter and cancels any pending restart.
func (c *Controller) Reset() {
	c.cancelPending()
	c.token++
	c.attempt = 0
	c.delay = 0
}

func (c *Controller) schedule() {
	c.cancelPending()
	c.token++
	token, attempt := c.token, c.attempt
	c.stop = c.scheduler.AfterFunc(c.delay, func() { c.fire(token, attempt) })
}

func (c *Controller) fire(token uint64, attempt int) {
	if token != c.token || c.stop == nil {
		return
	}
	c.stop = nil
	c.restart(attempt)
}

func (c *Controller) cancelPending() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}
