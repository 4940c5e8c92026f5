package deepgram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-chat/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Start opens a live transcription session and starts capturing audio.
// Calling Start while a session is open does nothing. Failures to start are
// returned as *speechtotext.Error; failures after a successful start are
// reported through the error callback, followed by the ended callback.
func (c *TranscriptionClient) Start(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	ctx, span := tracer.Start(ctx, "start transcription")
	defer span.End()

	if !c.IsSupported() {
		err := ErrMissingAPIKey
		if c != nil && c.apiKey != "" {
			err = ErrMissingCapture
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "transcription unsupported")
		return speechtotext.NewError(speechtotext.ErrorUnsupported, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return nil
	}

	options := speechtotext.NewTranscriptionOptions(opts...)
	options.EncodingInfo = c.capture.EncodingInfo()
	span.SetAttributes(
		attribute.String("transcription.language", options.Language),
		attribute.Int("transcription.sample_rate", options.EncodingInfo.SampleRate),
	)

	if err := checkEncoding(options.EncodingInfo); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid encoding")
		return speechtotext.NewError(speechtotext.ErrorAudioCapture, fmt.Errorf("invalid encoding: %w", err))
	}

	conn, err := c.dial(ctx, options)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open websocket")
		return err
	}

	s := newSession(c, conn, options)
	if err := c.capture.StartCapture(s.ctx, s.sendAudio); err != nil {
		s.cancel()
		conn.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start capture")
		return speechtotext.NewError(speechtotext.ErrorAudioCapture, fmt.Errorf("failed to start capture: %w", err))
	}

	c.session = s
	go s.run()

	logger.Info("transcription started", "language", options.Language, "model", c.model)
	return nil
}

// Stop ends capture and asks the server to flush its remaining results. The
// ended callback fires once the server closes the stream.
func (c *TranscriptionClient) Stop() error {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return nil
	}

	captureErr := c.capture.StopCapture()
	s.stop()

	if captureErr != nil {
		return fmt.Errorf("failed to stop capture: %w", captureErr)
	}
	return nil
}

func (c *TranscriptionClient) dial(ctx context.Context, options speechtotext.TranscriptionOptions) (*websocket.Conn, error) {
	listenURL, err := url.Parse(c.listenURL)
	if err != nil {
		return nil, speechtotext.NewError(speechtotext.ErrorUnsupported, fmt.Errorf("invalid listen url: %w", err))
	}

	query := listenURL.Query()
	query.Set("encoding", options.EncodingInfo.Format.Name())
	query.Set("sample_rate", strconv.Itoa(options.EncodingInfo.SampleRate))
	query.Set("channels", "1")
	query.Set("model", c.model)
	query.Set("language", options.Language)
	query.Set("smart_format", "true")
	query.Set("interim_results", "true")
	query.Set("utterance_end_ms", "1000")
	query.Set("endpointing", "300")
	query.Set("vad_events", "true")
	listenURL.RawQuery = query.Encode()

	conn, resp, err := c.dialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + c.apiKey}})
	if err != nil {
		return nil, speechtotext.NewError(categorizeDialFailure(resp), fmt.Errorf("failed to open socket connection to deepgram: %w", err))
	}
	return conn, nil
}

func categorizeDialFailure(resp *http.Response) speechtotext.ErrorCategory {
	if resp == nil {
		return speechtotext.ErrorNetwork
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired:
		return speechtotext.ErrorServiceNotAllowed
	case http.StatusBadRequest:
		// Deepgram rejects unknown language and model combinations with 400
		return speechtotext.ErrorLanguageNotSupported
	}
	return speechtotext.ErrorNetwork
}
