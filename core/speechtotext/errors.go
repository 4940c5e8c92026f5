package speechtotext

import "fmt"

type ErrorCategory string

const (
	ErrorNetwork              ErrorCategory = "network"
	ErrorNotAllowed           ErrorCategory = "not-allowed"
	ErrorNoSpeech             ErrorCategory = "no-speech"
	ErrorAborted              ErrorCategory = "aborted"
	ErrorAudioCapture         ErrorCategory = "audio-capture"
	ErrorServiceNotAllowed    ErrorCategory = "service-not-allowed"
	ErrorLanguageNotSupported ErrorCategory = "language-not-supported"
	ErrorUnsupported          ErrorCategory = "unsupported"
)

// Retryable reports whether a restart may succeed without user action.
func (c ErrorCategory) Retryable() bool { return c == ErrorNetwork }

// Benign reports errors that end a capture session without anything being
// wrong, like a stretch of silence.
func (c ErrorCategory) Benign() bool {
	return c == ErrorNoSpeech || c == ErrorAborted
}

// Error is a recognition failure with its category.
type Error struct {
	Category ErrorCategory
	Err      error
}

func NewError(category ErrorCategory, err error) *Error {
	return &Error{Category: category, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("speech recognition error: %s", e.Category)
	}
	return fmt.Sprintf("speech recognition error (%s): %v", e.Category, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
