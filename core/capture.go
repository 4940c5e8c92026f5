package orchestration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-chat/core/events"
	"github.com/koscakluka/ema-chat/core/retry"
	"github.com/koscakluka/ema-chat/core/speechtotext"
)

const (
	noticeTextRetrying          = "Network error occurred. Attempting to reconnect... (Attempt %d/%d)"
	noticeTextRetriesExhausted  = "Maximum retry attempts reached. Please try again later."
	noticeTextOffline           = "You appear to be offline. Please check your internet connection."
	noticeTextRecognitionFailed = "Speech recognition error occurred. Please try again."
	noticeTextUnsupported       = "Speech recognition is not supported on this device. Check the recognition credentials and the microphone."
	noticeTextListenOffline     = "Cannot start voice recognition while offline. Please check your internet connection."
	noticeTextConnectionLost    = "Network connection lost. Voice recognition paused."
	noticeTextConnectionResumed = "Network connection restored. Voice recognition will resume."
	noticeTextConnectionBack    = "Network connection restored."
)

type captureState struct {
	// wanted is the user's intent to be listening. It survives failures
	// that are being retried.
	wanted bool
	// requested is set from asking the recognizer to start until it ends.
	requested bool
	// active is set between the recognizer's started and ended callbacks.
	active bool
	failed bool
	// pausedOffline marks a session stopped because connectivity dropped.
	pausedOffline bool
	// generation tags callbacks so that those from a stopped session are
	// ignored.
	generation uint64
	interim    string
}

func (o *Orchestrator) startListening() error {
	if !o.speechToText.isSupported() {
		o.capture.failed = true
		o.refreshState()
		o.notice(events.NoticeLevelError, events.NoticeRecognitionMissing, noticeTextUnsupported)
		return ErrRecognitionUnsupported
	}
	if !o.online {
		o.notice(events.NoticeLevelError, events.NoticeListenWhileOffline, noticeTextListenOffline)
		return ErrOffline
	}

	o.capture.wanted = true
	o.capture.failed = false
	o.capture.pausedOffline = false
	o.retry.Reset()
	o.startCapture()
	o.refreshState()
	return nil
}

func (o *Orchestrator) stopListening() {
	o.capture.wanted = false
	o.capture.failed = false
	o.capture.pausedOffline = false
	o.retry.OnStopped()
	o.stopCapture()
	o.flushInterim()
	o.refreshState()
}

// startCapture asks the recognizer for a new session unless one is already
// open.
func (o *Orchestrator) startCapture() {
	if o.capture.requested {
		return
	}

	o.capture.generation++
	generation := o.capture.generation
	o.capture.requested = true

	post := func(fn func()) {
		o.loop.post(func() {
			if generation == o.capture.generation {
				fn()
			}
		})
	}

	o.speechToText.start(o.baseContext,
		func(err error) {
			o.loop.post(func() {
				// A stop issued while starting is queued behind the start, so
				// a stale session needs no extra handling here.
				if generation != o.capture.generation {
					return
				}
				if err != nil {
					o.capture.requested = false
					o.onCaptureError(toRecognitionError(err))
				}
			})
		},
		speechtotext.WithLanguage(o.language),
		speechtotext.WithStartedCallback(func() { post(o.onCaptureStarted) }),
		speechtotext.WithEndedCallback(func() { post(o.onCaptureEnded) }),
		speechtotext.WithErrorCallback(func(err *speechtotext.Error) { post(func() { o.onCaptureError(err) }) }),
		speechtotext.WithTranscriptCallback(func(transcript string, isFinal bool) {
			post(func() { o.onTranscript(transcript, isFinal) })
		}),
	)
}

// stopCapture closes the current session. Callbacks still in flight from it
// are dropped.
func (o *Orchestrator) stopCapture() {
	if !o.capture.requested && !o.capture.active {
		return
	}

	o.capture.generation++
	o.capture.requested = false
	if o.capture.active {
		o.capture.active = false
		o.emit(events.NewCaptureEnded())
	}
	o.speechToText.stop()
}

// restartCapture is run by the retry controller when a restart is due.
func (o *Orchestrator) restartCapture(attempt int) {
	if !o.capture.wanted {
		return
	}
	logger.Info("restarting speech recognition", "attempt", attempt)
	o.startCapture()
}

func (o *Orchestrator) onCaptureStarted() {
	o.capture.active = true
	o.capture.failed = false
	o.retry.OnStarted()
	o.emit(events.NewCaptureStarted(o.language))
	o.refreshState()
}

func (o *Orchestrator) onCaptureEnded() {
	wasActive := o.capture.active
	o.capture.requested = false
	o.capture.active = false
	if wasActive {
		o.emit(events.NewCaptureEnded())
	}
	o.flushInterim()

	if o.capture.wanted && !o.retry.Pending() && !o.capture.failed && !o.capture.pausedOffline {
		if o.online {
			o.startCapture()
		} else {
			o.pauseOffline()
		}
	}
	o.refreshState()
}

func (o *Orchestrator) onTranscript(transcript string, isFinal bool) {
	transcript = strings.TrimSpace(transcript)
	if !isFinal {
		o.capture.interim = transcript
		o.emit(events.NewUserTranscriptInterimUpdated(transcript))
		return
	}

	o.capture.interim = ""
	o.emit(events.NewUserTranscriptInterimUpdated(""))
	if transcript == "" {
		return
	}
	o.emit(events.NewUserTranscriptFinal(transcript))
	o.submitSpeech(transcript)
}

// flushInterim submits a transcript that never got finalized.
func (o *Orchestrator) flushInterim() {
	transcript := o.capture.interim
	if transcript == "" {
		return
	}
	o.onTranscript(transcript, true)
}

func (o *Orchestrator) onCaptureError(err *speechtotext.Error) {
	o.emit(events.NewCaptureFailed(string(err.Category), err))

	switch {
	case err.Category.Benign():
		logger.Info("speech recognition ended early", "category", err.Category, "error", err)

	case err.Category.Retryable():
		if !o.capture.wanted {
			return
		}
		o.onNetworkError()

	default:
		logger.Error("speech recognition failed", "category", err.Category, "error", err)
		o.capture.wanted = false
		o.capture.failed = true
		o.retry.Reset()
		o.stopCapture()
		if err.Category == speechtotext.ErrorUnsupported {
			o.notice(events.NoticeLevelError, events.NoticeRecognitionMissing, noticeTextUnsupported)
		} else {
			o.notice(events.NoticeLevelError, events.NoticeRecognitionFailed, noticeTextRecognitionFailed)
		}
	}
	o.refreshState()
}

func (o *Orchestrator) onNetworkError() {
	decision := o.retry.OnNetworkError()
	switch decision.Action {
	case retry.ActionRetry:
		o.capture.failed = true
		o.emit(events.NewCaptureRetryScheduled(decision.Attempt, decision.MaxAttempts, decision.Delay))
		o.notice(events.NoticeLevelWarning, events.NoticeRetrying,
			fmt.Sprintf(noticeTextRetrying, decision.Attempt, decision.MaxAttempts))

	case retry.ActionOffline:
		o.pauseOffline()

	case retry.ActionExhausted:
		o.capture.wanted = false
		o.capture.failed = false
		o.stopCapture()
		o.notice(events.NoticeLevelError, events.NoticeRetriesExhausted, noticeTextRetriesExhausted)
	}
}

// pauseOffline gives up on the session until connectivity returns. The
// intent to listen is kept so that it resumes then.
func (o *Orchestrator) pauseOffline() {
	o.capture.pausedOffline = true
	o.notice(events.NoticeLevelError, events.NoticeOffline, noticeTextOffline)
}

func (o *Orchestrator) onConnectivityChanged(online bool) {
	if online == o.online {
		return
	}
	o.online = online
	o.emit(events.NewConnectivityChanged(online))

	if !online {
		o.retry.OnOffline()
		o.stopCapture()
		if o.capture.wanted {
			o.capture.failed = true
			o.capture.pausedOffline = true
		}
		o.notice(events.NoticeLevelWarning, events.NoticeConnectionLost, noticeTextConnectionLost)
		o.refreshState()
		return
	}

	if !o.capture.wanted {
		o.notice(events.NoticeLevelInfo, events.NoticeConnectionRestored, noticeTextConnectionBack)
		return
	}

	o.notice(events.NoticeLevelInfo, events.NoticeConnectionRestored, noticeTextConnectionResumed)
	if o.retry.OnOnline() {
		return
	}
	if o.capture.pausedOffline || !o.capture.requested {
		o.capture.pausedOffline = false
		o.startCapture()
	}
	o.refreshState()
}

func toRecognitionError(err error) *speechtotext.Error {
	var recognitionErr *speechtotext.Error
	if errors.As(err, &recognitionErr) {
		return recognitionErr
	}
	return speechtotext.NewError(speechtotext.ErrorAudioCapture, err)
}
