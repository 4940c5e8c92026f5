package completions

import "github.com/koscakluka/ema-chat/core/llms"

const (
	endMessage  = "[DONE]"
	chunkPrefix = "data:"

	formatText = "text"
)

type messageRole string

const (
	messageRoleSystem messageRole = "system"
	messageRoleUser   messageRole = "user"
)

type message struct {
	Role    messageRole `json:"role"`
	Content string      `json:"content"`
}

type requestBody struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Format      string    `json:"format,omitempty"`
	Stream      bool      `json:"stream"`
	System      string    `json:"system,omitempty"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u usage) toLLMs() llms.Usage {
	return llms.Usage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalTokens:  u.TotalTokens,
	}
}

type streamingResponseBody struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *usage `json:"usage"`
}

type responseBody struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *usage `json:"usage"`
}

func (c *Client) newRequestBody(prompt, model string) requestBody {
	body := requestBody{
		Model:       model,
		Temperature: c.temperature,
		Stream:      c.streaming,
	}

	switch c.dialect {
	case DialectOpenAI:
		if c.systemPrompt != "" {
			body.Messages = append(body.Messages, message{Role: messageRoleSystem, Content: c.systemPrompt})
		}
	default:
		body.Format = formatText
		body.System = c.systemPrompt
	}

	body.Messages = append(body.Messages, message{Role: messageRoleUser, Content: prompt})
	return body
}

type StreamContentChunk struct {
	finishReason *string
	content      string
}

func (c StreamContentChunk) FinishReason() *string { return c.finishReason }
func (c StreamContentChunk) Content() string       { return c.content }

type StreamUsageChunk struct {
	finishReason *string
	usage        llms.Usage
}

func (c StreamUsageChunk) FinishReason() *string { return c.finishReason }
func (c StreamUsageChunk) Usage() llms.Usage     { return c.usage }
