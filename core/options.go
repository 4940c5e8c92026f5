package orchestration

import (
	"context"
	"time"

	"github.com/koscakluka/ema-chat/core/connectivity"
	"github.com/koscakluka/ema-chat/core/conversations"
	"github.com/koscakluka/ema-chat/core/events"
	"github.com/koscakluka/ema-chat/core/llms"
	"github.com/koscakluka/ema-chat/core/retry"
	"github.com/koscakluka/ema-chat/core/speechtotext"
)

const (
	DefaultResponseTimeout = 2 * time.Minute
	DefaultEventBuffer     = 1024
)

type OrchestratorOption func(*Orchestrator)

// Responder produces a response to a prompt, calling onChunk with each piece
// of content as it arrives. The returned text replaces whatever was streamed.
type Responder interface {
	Send(ctx context.Context, prompt, model string, sessionID *string, onChunk func(chunk string)) (string, error)
}

func WithResponder(responder Responder) OrchestratorOption {
	return func(o *Orchestrator) { o.responder = responder }
}

type SpeechToText interface {
	Start(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	Stop() error
}

func WithSpeechToTextClient(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) { o.speechToText.set(client) }
}

// LanguageStore persists the recognition language between sessions.
type LanguageStore interface {
	LoadLanguage() (string, error)
	SaveLanguage(language string) error
}

func WithLanguageStore(store LanguageStore) OrchestratorOption {
	return func(o *Orchestrator) { o.languageStore = store }
}

// WithConnectivity sets the source of truth for connectivity. When checker
// also implements connectivity.Watcher the orchestrator follows its changes.
func WithConnectivity(checker connectivity.Checker) OrchestratorOption {
	return func(o *Orchestrator) { o.connectivity = checker }
}

func WithRetryPolicy(policy retry.Policy) OrchestratorOption {
	return func(o *Orchestrator) { o.retryPolicy = policy }
}

func WithRetryScheduler(scheduler retry.Scheduler) OrchestratorOption {
	return func(o *Orchestrator) {
		if scheduler != nil {
			o.retryScheduler = scheduler
		}
	}
}

func WithLanguage(language string) OrchestratorOption {
	return func(o *Orchestrator) { o.language = language }
}

func WithModel(model llms.Model) OrchestratorOption {
	return func(o *Orchestrator) { o.model = model }
}

func WithSessionID(sessionID string) OrchestratorOption {
	return func(o *Orchestrator) { o.sessionID = sessionIDPtr(sessionID) }
}

// WithResponseTimeout bounds how long a single response may take.
func WithResponseTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.responseTimeout = timeout
		}
	}
}

// WithEventBuffer sets the capacity of the Events channel. Events that do
// not fit are dropped.
func WithEventBuffer(size int) OrchestratorOption {
	return func(o *Orchestrator) {
		if size >= 0 {
			o.eventBuffer = size
		}
	}
}

// WithEventHandler registers a function that receives every event, in order,
// from the orchestrator's own goroutine. It must not block or call back into
// the orchestrator.
func WithEventHandler(handler func(events.Event)) OrchestratorOption {
	return func(o *Orchestrator) { o.eventHandler = handler }
}

func WithLogOptions(opts ...conversations.LogOption) OrchestratorOption {
	return func(o *Orchestrator) { o.logOptions = append(o.logOptions, opts...) }
}
