package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-chat/core/speechtotext"
)

const (
	silenceChunk      = 50 * time.Millisecond
	silencePadding    = time.Second
	keepAliveInterval = 5 * time.Second
	closeGracePeriod  = 3 * time.Second
)

type session struct {
	client  *TranscriptionClient
	conn    *websocket.Conn
	connMu  sync.Mutex
	options speechtotext.TranscriptionOptions

	ctx    context.Context
	cancel context.CancelFunc

	lastAudio atomic.Int64
	stopped   atomic.Bool
	// failed is set once the failure has been reported, so a broken stream
	// costs a single error.
	failed atomic.Bool

	utterance      string
	unendedSegment bool
}

func newSession(client *TranscriptionClient, conn *websocket.Conn, options speechtotext.TranscriptionOptions) *session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		client:  client,
		conn:    conn,
		options: options,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.lastAudio.Store(time.Now().UnixNano())
	return s
}

func (s *session) run() {
	defer s.client.sessionEnded(s)
	defer s.cancel()
	defer s.conn.Close()

	go s.keepAlive()
	s.options.StartedCallback()

	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.finish(err)
			return
		}
		if msgType == websocket.TextMessage {
			s.processMessage(msg)
		}
	}
}

func (s *session) finish(err error) {
	s.flushUtterance()

	if !s.stopped.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		logger.Warn("transcription stream failed", "error", err)
		if stopErr := s.client.capture.StopCapture(); stopErr != nil {
			logger.Warn("failed to stop capture after stream failure", "error", stopErr)
		}
		s.reportFailure(fmt.Errorf("transcription stream failed: %w", err))
	}
	s.options.EndedCallback()
}

func (s *session) stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}

	if err := s.writeJSON(controlMessage{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		logger.Warn("failed to request stream close", "error", err)
		s.conn.Close()
		return
	}

	// Force the read loop out if the server never closes the stream.
	time.AfterFunc(closeGracePeriod, func() { s.conn.Close() })
}

func (s *session) sendAudio(audio []byte) {
	if s.stopped.Load() {
		return
	}
	s.lastAudio.Store(time.Now().UnixNano())
	if err := s.writeMessage(websocket.BinaryMessage, audio); err != nil {
		logger.Debug("failed to send audio", "error", err)
	}
}

type controlMessage struct {
	Type string `json:"type"`
}

func (s *session) writeJSON(v any) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("failed to write to deepgram: %w", err)
	}
	return nil
}

func (s *session) writeMessage(messageType int, data []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("failed to write to deepgram: %w", err)
	}
	return nil
}

// keepAlive pads short gaps in capture with silence so endpointing still
// fires, then falls back to KeepAlive messages so the server does not drop
// an idle stream.
func (s *session) keepAlive() {
	ticker := time.NewTicker(silenceChunk)
	defer ticker.Stop()

	silence := s.options.EncodingInfo.Silence(silenceChunk)
	var lastKeepAlive time.Time
	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			if s.stopped.Load() {
				return
			}

			idle := now.Sub(time.Unix(0, s.lastAudio.Load()))
			switch {
			case idle < silenceChunk:
			case idle < silencePadding:
				if err := s.writeMessage(websocket.BinaryMessage, silence); err != nil {
					logger.Debug("failed to send silence", "error", err)
				}
			case now.Sub(lastKeepAlive) >= keepAliveInterval:
				lastKeepAlive = now
				if err := s.writeJSON(controlMessage{Type: "KeepAlive"}); err != nil {
					logger.Debug("failed to send keepalive", "error", err)
				}
			}
		}
	}
}

func (s *session) processMessage(msg []byte) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &envelope); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(envelope.Type) {
	case api.TypeMessageResponse:
		var result api.MessageResponse
		if err := json.Unmarshal(msg, &result); err != nil {
			logger.Warn("failed to unmarshal deepgram result", "error", err)
			return
		}
		s.processResult(result)

	case api.TypeUtteranceEndResponse:
		if s.unendedSegment {
			s.flushUtterance()
		}

	case api.TypeSpeechStartedResponse:
		s.unendedSegment = true

	case "Error":
		var failure struct {
			Description string `json:"description"`
			Message     string `json:"message"`
		}
		_ = json.Unmarshal(msg, &failure)
		logger.Error("deepgram reported an error", "description", failure.Description, "message", failure.Message)
		s.reportFailure(errors.New(strings.TrimSpace(failure.Description + " " + failure.Message)))
	}
}

func (s *session) reportFailure(err error) {
	if !s.failed.CompareAndSwap(false, true) {
		logger.Debug("stream failure already reported", "error", err)
		return
	}
	s.options.ErrorCallback(speechtotext.NewError(speechtotext.ErrorNetwork, err))
}

func (s *session) processResult(result api.MessageResponse) {
	transcript := ""
	if len(result.Channel.Alternatives) > 0 {
		transcript = strings.TrimSpace(result.Channel.Alternatives[0].Transcript)
	}

	if !result.IsFinal {
		if transcript != "" {
			s.options.TranscriptCallback(joinTranscript(s.utterance, transcript), false)
		}
		return
	}

	if transcript != "" {
		s.utterance = joinTranscript(s.utterance, transcript)
		s.options.TranscriptCallback(s.utterance, false)
	}
	if result.SpeechFinal {
		s.flushUtterance()
	}
}

func (s *session) flushUtterance() {
	s.unendedSegment = false
	utterance := strings.TrimSpace(s.utterance)
	s.utterance = ""
	if utterance != "" {
		s.options.TranscriptCallback(utterance, true)
	}
}

func joinTranscript(prefix, transcript string) string {
	if prefix == "" {
		return transcript
	}
	return prefix + " " + transcript
}
