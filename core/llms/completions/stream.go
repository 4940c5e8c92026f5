package completions

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/koscakluka/ema-chat/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxErrorBody = 4 << 10

// Request is a single prompt to send.
type Request struct {
	Prompt string
	Model  string
	// SessionID threads the prompt into a server-side conversation when the
	// provider supports it.
	SessionID *string
}

// PromptWithStream prepares a request. Nothing is sent until the returned
// stream's chunks are iterated.
func (c *Client) PromptWithStream(_ context.Context, request Request) *Stream {
	return &Stream{client: c, request: request}
}

type Stream struct {
	client  *Client
	request Request
}

var _ llms.Stream = (*Stream)(nil)

// Chunks sends the request and yields content as it arrives. A *FrameError
// is yielded for a line that could not be decoded and the stream continues
// if the consumer does. Any other error ends the stream.
func (s *Stream) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt llm stream")
		defer span.End()
		span.SetAttributes(
			attribute.String("request.model", s.request.Model),
			attribute.Bool("request.stream", s.client.streaming),
			attribute.Bool("request.session", s.request.SessionID != nil),
		)

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(nil, err)
		}

		requestCtx, cancel := context.WithCancelCause(ctx)
		defer cancel(nil)
		watchdog := time.AfterFunc(s.client.idleTimeout, func() { cancel(ErrStalled) })
		defer watchdog.Stop()

		resp, err := s.send(requestCtx, span)
		if err != nil {
			fail(s.classify(requestCtx, err))
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode != http.StatusOK {
			errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
			logger.Error("completion request failed", "status", resp.StatusCode, "body", string(errorBody))
			fail(&StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(errorBody)})
			return
		}

		requestStart := time.Now()
		onFirstContent := func() {
			if requestStart.IsZero() {
				return
			}
			latency := time.Since(requestStart).Seconds()
			span.SetAttributes(attribute.Float64("response.request_to_first_token_time", latency))
			span.AddEvent("received first chunk")
			firstTokenLatency.Record(ctx, latency)
			requestStart = time.Time{}
		}

		if !s.client.streaming {
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				fail(s.classify(requestCtx, fmt.Errorf("error reading response: %w", err)))
				return
			}

			var response responseBody
			if err := json.Unmarshal(body, &response); err != nil {
				fail(&FrameError{Frame: string(body), Err: err})
				return
			}
			if len(response.Choices) > 0 && response.Choices[0].Message.Content != "" {
				onFirstContent()
				if !yield(StreamContentChunk{
					finishReason: response.Choices[0].FinishReason,
					content:      response.Choices[0].Message.Content,
				}, nil) {
					return
				}
			}
			if response.Usage != nil {
				yield(StreamUsageChunk{usage: response.Usage.toLLMs()}, nil)
			}
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for scanner.Scan() {
			watchdog.Reset(s.client.idleTimeout)

			line := scanner.Text()
			if !strings.HasPrefix(line, chunkPrefix) {
				continue
			}
			chunk := strings.TrimSpace(strings.TrimPrefix(line, chunkPrefix))
			if len(chunk) == 0 {
				continue
			}
			if chunk == endMessage {
				return
			}

			var responseBody streamingResponseBody
			if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
				err := &FrameError{Frame: chunk, Err: err}
				span.RecordError(err)
				if !yield(nil, err) {
					return
				}
				continue
			}

			if len(responseBody.Choices) > 0 {
				choice := responseBody.Choices[0]
				if content := choice.Delta.Content; content != nil && *content != "" {
					onFirstContent()
					if !yield(StreamContentChunk{finishReason: choice.FinishReason, content: *content}, nil) {
						return
					}
				}
			}

			if responseBody.Usage != nil {
				span.SetAttributes(
					attribute.Int("usage.input", responseBody.Usage.PromptTokens),
					attribute.Int("usage.output", responseBody.Usage.CompletionTokens),
				)
				if !yield(StreamUsageChunk{usage: responseBody.Usage.toLLMs()}, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			fail(s.classify(requestCtx, fmt.Errorf("error reading stream: %w", err)))
		}
	}
}

func (s *Stream) send(ctx context.Context, span trace.Span) (*http.Response, error) {
	requestBodyBytes, err := json.Marshal(s.client.newRequestBody(s.request.Prompt, s.request.Model))
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.url(s.request.SessionID), bytes.NewReader(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.client.apiKey)
	if s.client.streaming {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}

	span.SetAttributes(attribute.String("request.url", req.URL.String()))
	span.AddEvent("request started")
	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: error sending request: %w", ErrUnreachable, err)
	}
	return resp, nil
}

// classify replaces transport errors caused by the idle watchdog or by the
// caller giving up with the reason the request context was cancelled.
func (s *Stream) classify(requestCtx context.Context, err error) error {
	cause := context.Cause(requestCtx)
	switch {
	case errors.Is(cause, ErrStalled):
		return fmt.Errorf("no data for %s: %w", s.client.idleTimeout, ErrStalled)
	case cause != nil:
		return cause
	}
	return err
}
