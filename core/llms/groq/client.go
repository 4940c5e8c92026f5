// Package groq configures a completions client for Groq's OpenAI-compatible
// endpoint.
package groq

import "github.com/koscakluka/ema-chat/core/llms/completions"

const Endpoint = "https://api.groq.com/openai/v1/chat/completions"

func NewClient(apiKey string, opts ...completions.Option) *completions.Client {
	return completions.NewClient(apiKey, append([]completions.Option{
		completions.WithEndpoint(Endpoint),
		completions.WithDialect(completions.DialectOpenAI),
	}, opts...)...)
}
