package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/koscakluka/ema-chat/core/connectivity"
	"github.com/koscakluka/ema-chat/core/conversations"
	"github.com/koscakluka/ema-chat/core/events"
	"github.com/koscakluka/ema-chat/core/llms"
	"github.com/koscakluka/ema-chat/core/retry"
	"github.com/koscakluka/ema-chat/core/speechtotext"
	"golang.org/x/text/language"
)

// Orchestrator owns a conversation: it turns typed prompts and recognized
// speech into requests, streams responses into the conversation log and
// keeps speech recognition running through transient failures.
//
// All state lives on a single goroutine. Public methods hand their work to it
// and wait for the result, so they are safe to call concurrently but must not
// be called from an event handler.
type Orchestrator struct {
	loop *serialQueue

	responder      Responder
	speechToText   *speechToText
	connectivity   connectivity.Checker
	languageStore  LanguageStore
	retryPolicy    retry.Policy
	retryScheduler retry.Scheduler
	retry          *retry.Controller

	responseTimeout time.Duration
	eventBuffer     int
	eventHandler    func(events.Event)
	emitter         *eventEmitter
	logOptions      []conversations.LogOption

	closeOnce   sync.Once
	unsubscribe func()
	baseContext context.Context

	// Everything below is only touched on the loop.
	log        *conversations.Log
	state      conversations.VoiceState
	language   string
	model      llms.Model
	sessionID  *string
	online     bool
	capture    captureState
	response   *activeResponse
	queuedText []string
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		loop:            newSerialQueue("orchestrator"),
		speechToText:    newSpeechToText(),
		retryPolicy:     retry.DefaultPolicy(),
		retryScheduler:  retry.TimerScheduler{},
		responseTimeout: DefaultResponseTimeout,
		eventBuffer:     DefaultEventBuffer,
		baseContext:     context.Background(),
		state:           conversations.VoiceStateIdle,
		language:        speechtotext.DefaultLanguage,
		model:           llms.DefaultModel,
		online:          true,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.log = conversations.NewLog(o.logOptions...)
	o.emitter = newEventEmitter(o.eventBuffer, o.eventHandler)
	o.retry = retry.NewController(o.restartCapture,
		retry.WithPolicy(o.retryPolicy),
		retry.WithScheduler(loopScheduler{scheduler: o.retryScheduler, loop: o.loop}),
		retry.WithConnectivity(func() bool { return o.online }),
	)

	if tag, err := canonicalLanguage(o.language); err == nil {
		o.language = tag
	} else {
		logger.Warn("ignoring invalid default language", "language", o.language, "error", err)
		o.language = speechtotext.DefaultLanguage
	}
	o.loadLanguage()

	if _, err := llms.ParseModel(string(o.model)); err != nil {
		logger.Warn("ignoring unsupported model", "model", o.model)
		o.model = llms.DefaultModel
	}

	if o.connectivity != nil {
		o.online = o.connectivity.IsOnline()
		if watcher, ok := o.connectivity.(connectivity.Watcher); ok {
			o.unsubscribe = watcher.Subscribe(func(online bool) {
				o.loop.post(func() { o.onConnectivityChanged(online) })
			})
		}
	}

	return o
}

func (o *Orchestrator) loadLanguage() {
	if o.languageStore == nil {
		return
	}

	stored, err := o.languageStore.LoadLanguage()
	if err != nil {
		logger.Warn("failed to load language preference", "error", err)
		return
	}
	if stored == "" {
		return
	}
	tag, err := canonicalLanguage(stored)
	if err != nil {
		logger.Warn("ignoring invalid stored language", "language", stored, "error", err)
		return
	}
	o.language = tag
}

// Run ties the orchestrator to ctx: it blocks until ctx is done or the
// orchestrator is closed, and closes it on the way out.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.loop.call(func() error {
		o.baseContext = ctx
		return nil
	}); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		o.Close()
		return nil
	case <-o.loop.done:
		return nil
	}
}

// Close stops recognition, cancels any response in flight and closes the
// Events channel.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		if o.unsubscribe != nil {
			o.unsubscribe()
		}

		_ = o.loop.call(func() error {
			o.capture.wanted = false
			o.retry.Reset()
			o.stopCapture()
			o.cancelResponse()
			return nil
		})

		if err := o.speechToText.Close(context.Background()); err != nil {
			logger.Error("failed to close speech-to-text", "error", err)
		}

		o.loop.end()
		o.loop.waitUntilEnded()
		o.emitter.close()
	})
}

// Events returns the channel every state change is published on. It is
// closed by Close.
func (o *Orchestrator) Events() <-chan events.Event {
	return o.emitter.ch
}

// Submit sends a typed prompt. It fails with ErrBusy while a response is in
// progress.
func (o *Orchestrator) Submit(prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ErrEmptyPrompt
	}

	return o.loop.call(func() error {
		if o.response != nil {
			return ErrBusy
		}
		return o.submit(prompt, events.PromptSourceTyped)
	})
}

func (o *Orchestrator) StartListening() error {
	return o.loop.call(o.startListening)
}

func (o *Orchestrator) StopListening() error {
	return o.loop.call(func() error {
		o.stopListening()
		return nil
	})
}

// ClearConversation empties the log. A response still streaming is
// cancelled and anything it produces afterwards is discarded.
func (o *Orchestrator) ClearConversation() error {
	return o.loop.call(func() error {
		o.clearConversation()
		return nil
	})
}

// SetLanguage validates and stores a BCP 47 recognition language. An open
// recognition session is restarted in the new language.
func (o *Orchestrator) SetLanguage(tag string) error {
	canonical, err := canonicalLanguage(tag)
	if err != nil {
		return err
	}

	return o.loop.call(func() error {
		if canonical == o.language {
			return nil
		}
		o.language = canonical
		if o.languageStore != nil {
			if err := o.languageStore.SaveLanguage(canonical); err != nil {
				logger.Warn("failed to save language preference", "language", canonical, "error", err)
			}
		}
		if o.capture.requested {
			o.stopCapture()
			o.startCapture()
		}
		return nil
	})
}

func (o *Orchestrator) SetModel(id string) error {
	model, err := llms.ParseModel(id)
	if err != nil {
		return err
	}
	return o.loop.call(func() error {
		o.model = model
		return nil
	})
}

// SetSessionID threads later prompts into a server-side session. An empty id
// makes prompts stateless again.
func (o *Orchestrator) SetSessionID(id string) error {
	return o.loop.call(func() error {
		o.sessionID = sessionIDPtr(id)
		return nil
	})
}

// NotifyConnectivity reports a connectivity change from the host.
func (o *Orchestrator) NotifyConnectivity(online bool) error {
	return o.loop.call(func() error {
		o.onConnectivityChanged(online)
		return nil
	})
}

// Messages returns a copy of the conversation, oldest first.
func (o *Orchestrator) Messages() []conversations.Message {
	var snapshot []conversations.Message
	_ = o.loop.call(func() error {
		snapshot = o.log.Snapshot()
		return nil
	})
	return snapshot
}

func (o *Orchestrator) VoiceState() conversations.VoiceState {
	state := conversations.VoiceStateIdle
	_ = o.loop.call(func() error {
		state = o.state
		return nil
	})
	return state
}

func (o *Orchestrator) Language() string {
	var tag string
	_ = o.loop.call(func() error {
		tag = o.language
		return nil
	})
	return tag
}

func (o *Orchestrator) Model() llms.Model {
	var model llms.Model
	_ = o.loop.call(func() error {
		model = o.model
		return nil
	})
	return model
}

// Listening reports whether the user wants recognition running, which stays
// true while a restart is pending.
func (o *Orchestrator) Listening() bool {
	var wanted bool
	_ = o.loop.call(func() error {
		wanted = o.capture.wanted
		return nil
	})
	return wanted
}

func (o *Orchestrator) emit(event events.Event) {
	o.emitter.emit(event)
}

func (o *Orchestrator) notice(level events.NoticeLevel, code events.NoticeCode, text string) {
	logger.Info("notice", "level", level, "code", code, "text", text)
	o.emit(events.NewNotice(level, code, text))
}

// refreshState derives the voice state from what is going on, publishing a
// change if there is one.
func (o *Orchestrator) refreshState() {
	next := conversations.VoiceStateIdle
	switch {
	case o.response != nil:
		next = conversations.VoiceStateProcessing
	case o.capture.failed:
		next = conversations.VoiceStateError
	case o.capture.active:
		next = conversations.VoiceStateListening
	}

	if next != o.state {
		previous := o.state
		o.state = next
		o.emit(events.NewVoiceStateChanged(previous, next))
	}
}

func canonicalLanguage(tag string) (string, error) {
	parsed, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidLanguage, tag, err)
	}
	return parsed.String(), nil
}

func sessionIDPtr(id string) *string {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return &id
}

// loopScheduler delivers retry timers onto the orchestrator loop.
type loopScheduler struct {
	scheduler retry.Scheduler
	loop      *serialQueue
}

func (s loopScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	return s.scheduler.AfterFunc(d, func() { s.loop.post(fn) })
}
