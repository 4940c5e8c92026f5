package conversations

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in the conversation log. Only Content and
// Timestamp of the most recent message are ever replaced.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

// VoiceState is the interaction state of a session. Exactly one value holds
// at a time and idle is the initial state.
type VoiceState string

const (
	VoiceStateIdle       VoiceState = "idle"
	VoiceStateListening  VoiceState = "listening"
	VoiceStateProcessing VoiceState = "processing"
	VoiceStateError      VoiceState = "error"
)

func (s VoiceState) String() string { return string(s) }
