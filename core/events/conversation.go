package events

import "github.com/koscakluka/ema-chat/core/conversations"

const (
	// KindMessageAppended identifies a message added to the log.
	KindMessageAppended Kind = "conversation.message_appended"
	// KindMessageUpdated identifies an in-place update of the last message.
	KindMessageUpdated Kind = "conversation.message_updated"
	// KindConversationCleared identifies a cleared log.
	KindConversationCleared Kind = "conversation.cleared"
	// KindVoiceStateChanged identifies a voice state transition.
	KindVoiceStateChanged Kind = "conversation.voice_state_changed"
)

// MessageAppended carries a copy of the appended message.
type MessageAppended struct {
	Base
	Message conversations.Message
}

// NewMessageAppended creates a message appended event.
func NewMessageAppended(message conversations.Message) MessageAppended {
	return MessageAppended{Base: NewBase(KindMessageAppended), Message: message}
}

// MessageUpdated carries a copy of the updated last message.
type MessageUpdated struct {
	Base
	Message conversations.Message
}

// NewMessageUpdated creates a message updated event.
func NewMessageUpdated(message conversations.Message) MessageUpdated {
	return MessageUpdated{Base: NewBase(KindMessageUpdated), Message: message}
}

// ConversationCleared marks that the whole log was discarded.
type ConversationCleared struct{ Base }

// NewConversationCleared creates a conversation cleared event.
func NewConversationCleared() ConversationCleared {
	return ConversationCleared{Base: NewBase(KindConversationCleared)}
}

// VoiceStateChanged carries the previous and the new voice state.
type VoiceStateChanged struct {
	Base
	From conversations.VoiceState
	To   conversations.VoiceState
}

// NewVoiceStateChanged creates a voice state changed event.
func NewVoiceStateChanged(from, to conversations.VoiceState) VoiceStateChanged {
	return VoiceStateChanged{Base: NewBase(KindVoiceStateChanged), From: from, To: to}
}
