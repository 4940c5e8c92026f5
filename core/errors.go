package orchestration

import "errors"

var (
	// ErrBusy is returned for a typed prompt submitted while a response is
	// still streaming.
	ErrBusy        = errors.New("a response is already in progress")
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrClosed      = errors.New("orchestrator closed")

	ErrInvalidLanguage        = errors.New("invalid language tag")
	ErrRecognitionUnsupported = errors.New("speech recognition is not available")
	ErrOffline                = errors.New("no network connectivity")
	ErrResponderNotConfigured = errors.New("no responder configured")
)
