package orchestration

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-chat/core/speechtotext"
)

// speechToText runs recognizer calls on their own queue so that slow starts
// never hold up the orchestrator, while starts and stops still happen in the
// order they were requested.
type speechToText struct {
	// client stores the configured speech-to-text implementation.
	client SpeechToText
	worker *serialQueue
}

func newSpeechToText() *speechToText {
	return &speechToText{worker: newSerialQueue("speech-to-text")}
}

func (s *speechToText) set(client SpeechToText) {
	if s != nil {
		s.client = client
	}
}

func (s *speechToText) isConfigured() bool {
	return s != nil && s.client != nil
}

func (s *speechToText) isSupported() bool {
	if !s.isConfigured() {
		return false
	}
	if c, ok := s.client.(interface{ IsSupported() bool }); ok {
		return c.IsSupported()
	}
	return true
}

// start opens a recognition session and reports the outcome to onStarted.
func (s *speechToText) start(ctx context.Context, onStarted func(error), opts ...speechtotext.TranscriptionOption) {
	if !s.isConfigured() {
		onStarted(speechtotext.NewError(speechtotext.ErrorUnsupported, ErrRecognitionUnsupported))
		return
	}

	s.worker.post(func() {
		ctx, span := tracer.Start(ctx, "start recognition")
		defer span.End()
		onStarted(s.client.Start(ctx, opts...))
	})
}

func (s *speechToText) stop() {
	if !s.isConfigured() {
		return
	}

	s.worker.post(func() {
		if err := s.client.Stop(); err != nil {
			logger.Warn("failed to stop speech recognition", "error", err)
		}
	})
}

func (s *speechToText) Close(ctx context.Context) error {
	if !s.isConfigured() {
		s.worker.end()
		return nil
	}

	err := s.worker.call(func() error {
		if err := s.client.Stop(); err != nil {
			return fmt.Errorf("failed to stop speech-to-text client: %w", err)
		}

		switch c := s.client.(type) {
		case interface{ Close(context.Context) error }:
			if err := c.Close(ctx); err != nil {
				return fmt.Errorf("failed to close speech-to-text client: %w", err)
			}
		case interface{ Close() error }:
			if err := c.Close(); err != nil {
				return fmt.Errorf("failed to close speech-to-text client: %w", err)
			}
		case interface{ Close() }:
			c.Close()
		}
		return nil
	})
	s.worker.end()
	return err
}
