package events

const (
	// KindUserTranscriptInterimUpdated identifies mutable interim transcript updates.
	KindUserTranscriptInterimUpdated Kind = "user_input.transcript_interim_updated"
	// KindUserTranscriptFinal identifies the final transcript for an utterance.
	KindUserTranscriptFinal Kind = "user_input.transcript_final"
	// KindUserPromptSubmitted identifies a prompt accepted for a response.
	KindUserPromptSubmitted Kind = "user_input.prompt_submitted"
)

// PromptSource tells where a submitted prompt came from.
type PromptSource string

const (
	PromptSourceTyped  PromptSource = "typed"
	PromptSourceSpeech PromptSource = "speech"
)

// UserTranscriptInterimUpdated carries the latest interim hypothesis. It
// supersedes any earlier interim update for the same utterance.
type UserTranscriptInterimUpdated struct {
	Base
	Transcript string
}

// NewUserTranscriptInterimUpdated creates an interim transcript update event.
func NewUserTranscriptInterimUpdated(transcript string) UserTranscriptInterimUpdated {
	return UserTranscriptInterimUpdated{Base: NewBase(KindUserTranscriptInterimUpdated), Transcript: transcript}
}

// UserTranscriptFinal carries a completed utterance.
type UserTranscriptFinal struct {
	Base
	Transcript string
}

// NewUserTranscriptFinal creates a final transcript event.
func NewUserTranscriptFinal(transcript string) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal), Transcript: transcript}
}

// UserPromptSubmitted marks a prompt that was appended to the conversation
// and sent for a response.
type UserPromptSubmitted struct {
	Base
	Prompt string
	Source PromptSource
}

// NewUserPromptSubmitted creates a prompt submitted event.
func NewUserPromptSubmitted(prompt string, source PromptSource) UserPromptSubmitted {
	return UserPromptSubmitted{Base: NewBase(KindUserPromptSubmitted), Prompt: prompt, Source: source}
}
