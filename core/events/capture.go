package events

import "time"

const (
	// KindCaptureStarted identifies a recognition session that started.
	KindCaptureStarted Kind = "capture.started"
	// KindCaptureEnded identifies a recognition session that ended.
	KindCaptureEnded Kind = "capture.ended"
	// KindCaptureFailed identifies a recognition error.
	KindCaptureFailed Kind = "capture.failed"
	// KindCaptureRetryScheduled identifies a scheduled recognition restart.
	KindCaptureRetryScheduled Kind = "capture.retry_scheduled"
)

// CaptureStarted marks the start of speech capture.
type CaptureStarted struct {
	Base
	Language string
}

// NewCaptureStarted creates a capture started event.
func NewCaptureStarted(language string) CaptureStarted {
	return CaptureStarted{Base: NewBase(KindCaptureStarted), Language: language}
}

// CaptureEnded marks the end of speech capture.
type CaptureEnded struct{ Base }

// NewCaptureEnded creates a capture ended event.
func NewCaptureEnded() CaptureEnded {
	return CaptureEnded{Base: NewBase(KindCaptureEnded)}
}

// CaptureFailed carries a recognition error and its category.
type CaptureFailed struct {
	Base
	Category string
	Err      error
}

// NewCaptureFailed creates a capture failed event.
func NewCaptureFailed(category string, err error) CaptureFailed {
	return CaptureFailed{Base: NewBase(KindCaptureFailed), Category: category, Err: err}
}

// CaptureRetryScheduled reports a restart scheduled after a network error.
type CaptureRetryScheduled struct {
	Base
	Attempt     int
	MaxAttempts int
	Delay       time.Duration
}

// NewCaptureRetryScheduled creates a retry scheduled event.
func NewCaptureRetryScheduled(attempt, maxAttempts int, delay time.Duration) CaptureRetryScheduled {
	return CaptureRetryScheduled{
		Base:        NewBase(KindCaptureRetryScheduled),
		Attempt:     attempt,
		MaxAttempts: maxAttempts,
		Delay:       delay,
	}
}
