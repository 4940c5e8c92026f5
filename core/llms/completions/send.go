package completions

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Send prompts the model and calls onChunk with every piece of content as it
// arrives. The returned text is what should be shown as the response: the
// full content on success, the partial content if the stream broke after
// producing some, or a fallback message. It is only empty when ctx was
// cancelled before anything arrived.
//
// A request that stalls before producing output is retried under the
// client's retry policy.
func (c *Client) Send(ctx context.Context, prompt, model string, sessionID *string, onChunk func(chunk string)) (string, error) {
	ctx, span := tracer.Start(ctx, "send prompt")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", model))

	if !c.isOnline() {
		span.SetStatus(codes.Error, "offline")
		return MessageOffline, ErrOffline
	}

	if onChunk == nil {
		onChunk = func(string) {}
	}

	var response strings.Builder
	var err error
	policy := c.retryPolicy
	for attempt := 1; ; attempt++ {
		err = c.consume(ctx, Request{Prompt: prompt, Model: model, SessionID: sessionID}, &response, onChunk)
		if err == nil || response.Len() > 0 || !errors.Is(err, ErrStalled) || attempt > policy.MaxAttempts {
			break
		}

		delay := policy.Delay(attempt)
		logger.Warn("completion stalled before responding, retrying", "attempt", attempt, "max_attempts", policy.MaxAttempts, "delay", delay)
		span.AddEvent("retrying stalled request", trace.WithAttributes(attribute.Int("retry.attempt", attempt)))
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			err = sleepErr
			break
		}
	}

	switch {
	case err == nil && response.Len() == 0:
		err = ErrEmptyResponse
	case err == nil:
		return response.String(), nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if ctx.Err() != nil || response.Len() > 0 {
		return response.String(), err
	}
	return FallbackMessage(err), err
}

func (c *Client) consume(ctx context.Context, request Request, response *strings.Builder, onChunk func(string)) error {
	var streamErr error
	for chunk, err := range c.PromptWithStream(ctx, request).Chunks(ctx) {
		if err != nil {
			var frameErr *FrameError
			if errors.As(err, &frameErr) {
				logger.Warn("skipping malformed stream frame", "frame", frameErr.Frame, "error", frameErr.Err)
				continue
			}
			streamErr = err
			break
		}

		if content, ok := chunk.(StreamContentChunk); ok {
			response.WriteString(content.Content())
			onChunk(content.Content())
		}
	}
	return streamErr
}
