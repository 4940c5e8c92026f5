package orchestration

import (
	"context"
	"errors"
	"strings"

	"github.com/koscakluka/ema-chat/core/conversations"
	"github.com/koscakluka/ema-chat/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrorPlaceholder replaces a response that failed without producing any text.
const ErrorPlaceholder = "⚠️ Error occurred while processing your message."

type activeResponse struct {
	generation uint64
	messageID  string
	content    strings.Builder
	cancel     context.CancelFunc
}

// submitSpeech sends a finalized transcript, or queues it behind the
// response in progress.
func (o *Orchestrator) submitSpeech(transcript string) {
	if o.response != nil {
		o.queuedText = append(o.queuedText, transcript)
		return
	}
	if err := o.submit(transcript, events.PromptSourceSpeech); err != nil {
		logger.Warn("failed to submit transcript", "error", err)
	}
}

func (o *Orchestrator) submit(prompt string, source events.PromptSource) error {
	if o.responder == nil {
		return ErrResponderNotConfigured
	}

	userMessage := o.log.Append(conversations.RoleUser, prompt)
	o.emit(events.NewMessageAppended(userMessage))
	o.emit(events.NewUserPromptSubmitted(prompt, source))

	placeholder := o.log.Append(conversations.RoleAssistant, "")
	o.emit(events.NewMessageAppended(placeholder))
	o.emit(events.NewAssistantResponseStarted(placeholder.ID))

	ctx, cancel := context.WithTimeout(o.baseContext, o.responseTimeout)
	response := &activeResponse{
		generation: o.log.Generation(),
		messageID:  placeholder.ID,
		cancel:     cancel,
	}
	o.response = response
	o.refreshState()

	model, sessionID := string(o.model), o.sessionID
	go func() {
		ctx, span := tracer.Start(ctx, "respond to prompt")
		defer span.End()
		span.SetAttributes(
			attribute.String("prompt.source", string(source)),
			attribute.String("request.model", model),
		)

		text, err := o.responder.Send(ctx, prompt, model, sessionID, func(chunk string) {
			o.loop.post(func() { o.applyChunk(response, chunk) })
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		o.loop.post(func() { o.finishResponse(response, text, err) })
	}()

	return nil
}

func (o *Orchestrator) isCurrent(response *activeResponse) bool {
	return o.response == response && response.generation == o.log.Generation()
}

func (o *Orchestrator) applyChunk(response *activeResponse, chunk string) {
	if !o.isCurrent(response) || chunk == "" {
		return
	}

	response.content.WriteString(chunk)
	message, ok := o.log.ReplaceLast(conversations.RoleAssistant, response.content.String())
	if !ok {
		return
	}
	o.emit(events.NewMessageUpdated(message))
	o.emit(events.NewAssistantResponseSegment(response.messageID, chunk))
}

func (o *Orchestrator) finishResponse(response *activeResponse, text string, err error) {
	response.cancel()
	if !o.isCurrent(response) {
		return
	}
	o.response = nil

	if text == "" {
		text = response.content.String()
	}
	if text == "" {
		text = ErrorPlaceholder
		if err == nil {
			err = errors.New("empty response")
		}
	}

	if message, ok := o.log.ReplaceLast(conversations.RoleAssistant, text); ok {
		o.emit(events.NewMessageUpdated(message))
	}

	if err != nil {
		logger.Warn("response failed", "message_id", response.messageID, "error", err)
		o.emit(events.NewAssistantResponseFailed(response.messageID, err))
	} else {
		o.emit(events.NewAssistantResponseFinal(response.messageID, text))
	}

	if len(o.queuedText) > 0 {
		next := o.queuedText[0]
		o.queuedText = o.queuedText[1:]
		if err := o.submit(next, events.PromptSourceSpeech); err != nil {
			logger.Warn("failed to submit queued transcript", "error", err)
		}
	}
	o.refreshState()
}

func (o *Orchestrator) cancelResponse() {
	if o.response != nil {
		o.response.cancel()
		o.response = nil
	}
	o.queuedText = nil
}

func (o *Orchestrator) clearConversation() {
	o.cancelResponse()
	o.capture.interim = ""
	o.log.Clear()
	o.emit(events.NewConversationCleared())
	o.refreshState()
}
