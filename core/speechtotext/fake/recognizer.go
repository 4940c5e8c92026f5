// Package fake provides a scripted recognizer for driving transcription
// flows deterministically in tests.
package fake

import (
	"context"
	"errors"
	"sync"

	"github.com/koscakluka/ema-chat/core/speechtotext"
)

var ErrNotListening = errors.New("recognizer is not listening")

// Recognizer records Start and Stop calls and replays whatever the test
// tells it to through the registered callbacks.
type Recognizer struct {
	mu sync.Mutex

	supported   bool
	manualStart bool
	startErrs   []*speechtotext.Error

	options   speechtotext.TranscriptionOptions
	listening bool
	starts    int
	stops     int
}

type Option func(*Recognizer)

// Unsupported makes the recognizer report itself as unavailable.
func Unsupported() Option {
	return func(r *Recognizer) { r.supported = false }
}

// ManualStart defers the started callback until Started is called.
func ManualStart() Option {
	return func(r *Recognizer) { r.manualStart = true }
}

func NewRecognizer(opts ...Option) *Recognizer {
	r := &Recognizer{supported: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recognizer) IsSupported() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.supported
}

func (r *Recognizer) Start(_ context.Context, opts ...speechtotext.TranscriptionOption) error {
	r.mu.Lock()
	if !r.supported {
		r.mu.Unlock()
		return speechtotext.NewError(speechtotext.ErrorUnsupported, errors.New("fake recognizer unsupported"))
	}
	if r.listening {
		r.mu.Unlock()
		return nil
	}

	r.starts++
	if len(r.startErrs) > 0 {
		err := r.startErrs[0]
		r.startErrs = r.startErrs[1:]
		r.mu.Unlock()
		return err
	}

	r.options = speechtotext.NewTranscriptionOptions(opts...)
	r.listening = true
	started, manual := r.options.StartedCallback, r.manualStart
	r.mu.Unlock()

	if !manual {
		started()
	}
	return nil
}

// Stop ends the session and fires the ended callback.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	r.stops++
	if !r.listening {
		r.mu.Unlock()
		return nil
	}
	r.listening = false
	ended := r.options.EndedCallback
	r.mu.Unlock()

	ended()
	return nil
}

// FailNextStart makes the next Start return an error of the category.
func (r *Recognizer) FailNextStart(category speechtotext.ErrorCategory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startErrs = append(r.startErrs, speechtotext.NewError(category, errors.New("scripted start failure")))
}

// Started fires the started callback of a session opened with ManualStart.
func (r *Recognizer) Started() error {
	options, err := r.current()
	if err != nil {
		return err
	}
	options.StartedCallback()
	return nil
}

// Emit delivers a transcript.
func (r *Recognizer) Emit(transcript string, isFinal bool) error {
	options, err := r.current()
	if err != nil {
		return err
	}
	options.TranscriptCallback(transcript, isFinal)
	return nil
}

// Fail reports an error and then ends the session, the way a recognition
// service does when its stream breaks.
func (r *Recognizer) Fail(category speechtotext.ErrorCategory) error {
	options, err := r.current()
	if err != nil {
		return err
	}
	options.ErrorCallback(speechtotext.NewError(category, errors.New("scripted failure")))
	return r.End()
}

// End finishes the session without an error.
func (r *Recognizer) End() error {
	r.mu.Lock()
	if !r.listening {
		r.mu.Unlock()
		return ErrNotListening
	}
	r.listening = false
	ended := r.options.EndedCallback
	r.mu.Unlock()

	ended()
	return nil
}

func (r *Recognizer) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listening
}

func (r *Recognizer) Starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

func (r *Recognizer) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

// Language returns the language of the most recent session.
func (r *Recognizer) Language() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.options.Language
}

func (r *Recognizer) current() (speechtotext.TranscriptionOptions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.listening {
		return speechtotext.TranscriptionOptions{}, ErrNotListening
	}
	return r.options, nil
}
