// Package openai configures a completions client for the OpenAI chat
// completions API.
package openai

import "github.com/koscakluka/ema-chat/core/llms/completions"

const Endpoint = "https://api.openai.com/v1/chat/completions"

// NewClient returns a client for OpenAI. Session ids are ignored; every
// prompt is stateless.
func NewClient(apiKey string, opts ...completions.Option) *completions.Client {
	return completions.NewClient(apiKey, append([]completions.Option{
		completions.WithEndpoint(Endpoint),
		completions.WithDialect(completions.DialectOpenAI),
	}, opts...)...)
}
