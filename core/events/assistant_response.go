package events

const (
	// KindAssistantResponseStarted identifies the start of response streaming.
	KindAssistantResponseStarted Kind = "assistant_response.started"
	// KindAssistantResponseSegment identifies streamed assistant response text.
	KindAssistantResponseSegment Kind = "assistant_response.segment"
	// KindAssistantResponseFinal identifies assistant response stream completion.
	KindAssistantResponseFinal Kind = "assistant_response.final"
	// KindAssistantResponseFailed identifies a response that could not be produced.
	KindAssistantResponseFailed Kind = "assistant_response.failed"
)

// AssistantResponseStarted marks the placeholder message a response streams into.
type AssistantResponseStarted struct {
	Base
	MessageID string
}

// NewAssistantResponseStarted creates an assistant response started event.
func NewAssistantResponseStarted(messageID string) AssistantResponseStarted {
	return AssistantResponseStarted{Base: NewBase(KindAssistantResponseStarted), MessageID: messageID}
}

// AssistantResponseSegment carries a streamed assistant response text segment.
type AssistantResponseSegment struct {
	Base
	MessageID string
	Segment   string
}

// NewAssistantResponseSegment creates an assistant response segment event.
func NewAssistantResponseSegment(messageID, segment string) AssistantResponseSegment {
	return AssistantResponseSegment{Base: NewBase(KindAssistantResponseSegment), MessageID: messageID, Segment: segment}
}

// AssistantResponseFinal marks assistant response stream completion.
type AssistantResponseFinal struct {
	Base
	MessageID string
	Content   string
}

// NewAssistantResponseFinal creates an assistant response final event.
func NewAssistantResponseFinal(messageID, content string) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), MessageID: messageID, Content: content}
}

// AssistantResponseFailed carries the error that replaced a response.
type AssistantResponseFailed struct {
	Base
	MessageID string
	Err       error
}

// NewAssistantResponseFailed creates an assistant response failed event.
func NewAssistantResponseFailed(messageID string, err error) AssistantResponseFailed {
	return AssistantResponseFailed{Base: NewBase(KindAssistantResponseFailed), MessageID: messageID, Err: err}
}
