package completions

import (
	"errors"
	"fmt"
	"net/http"
)

// Messages returned in place of a response when the request fails.
const (
	MessageOffline       = "You appear to be offline. Please check your internet connection and try again."
	MessageUnauthorized  = "Authentication error. Please check your API key configuration."
	MessageRateLimited   = "Rate limit exceeded. Please try again in a moment."
	MessageUnreachable   = "Unable to connect to the service. Please check your internet connection and try again."
	MessageUnavailable   = "I apologize, but I'm having trouble connecting to my language processing service. Please try again in a moment."
	MessageEmptyResponse = "I apologize, but I couldn't generate a response at the moment. Please try again."
)

var (
	ErrOffline       = errors.New("no network connectivity")
	ErrUnreachable   = errors.New("service unreachable")
	ErrStalled       = errors.New("response stream stalled")
	ErrEmptyResponse = errors.New("empty response")
)

// StatusError is a non-200 response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-OK HTTP status: %s", e.Status)
}

// FrameError is a stream line that could not be decoded. It does not end the
// stream.
type FrameError struct {
	Frame string
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("malformed stream frame %q: %v", e.Frame, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// FallbackMessage returns the text shown to the user in place of a response
// that failed with err.
func FallbackMessage(err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrOffline):
		return MessageOffline
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized:
		return MessageUnauthorized
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests:
		return MessageRateLimited
	case errors.Is(err, ErrUnreachable):
		return MessageUnreachable
	case errors.Is(err, ErrEmptyResponse):
		return MessageEmptyResponse
	}
	return MessageUnavailable
}
