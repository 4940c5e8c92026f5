// Package events defines the typed session event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - user_input.*
//   - capture.*
//   - assistant_response.*
//   - conversation.*
//   - session.*
//
// Semantics used across the package:
//
//   - Segment: append-only text piece emitted in stream order.
//   - Updated: mutable point-in-time snapshot that can change over time.
//   - Final: terminal immutable text for the current stream or utterance.
//
// user_input events
//
//   - UserTranscriptInterimUpdated (user_input.transcript_interim_updated):
//     latest interim hypothesis for the utterance being spoken.
//   - UserTranscriptFinal (user_input.transcript_final): completed utterance.
//   - UserPromptSubmitted (user_input.prompt_submitted): typed or spoken
//     prompt appended to the log and sent for a response.
//
// capture events
//
//   - CaptureStarted (capture.started): recognition session started.
//   - CaptureEnded (capture.ended): recognition session ended.
//   - CaptureFailed (capture.failed): recognition error with its category.
//   - CaptureRetryScheduled (capture.retry_scheduled): restart scheduled
//     after a network error.
//
// assistant_response events
//
//   - AssistantResponseStarted (assistant_response.started): placeholder
//     message appended.
//   - AssistantResponseSegment (assistant_response.segment): streamed text.
//   - AssistantResponseFinal (assistant_response.final): final text applied.
//   - AssistantResponseFailed (assistant_response.failed): the response was
//     replaced by an error notice.
//
// conversation events
//
//   - MessageAppended (conversation.message_appended)
//   - MessageUpdated (conversation.message_updated): in-place update of the
//     last message.
//   - ConversationCleared (conversation.cleared)
//   - VoiceStateChanged (conversation.voice_state_changed)
//
// session events
//
//   - Notice (session.notice): user-facing notice outside the log.
//   - ConnectivityChanged (session.connectivity_changed)
package events
