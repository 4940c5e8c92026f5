// Package ionet configures a completions client for the io.net intelligence
// API, which can thread prompts into server-side chat sessions.
package ionet

import (
	"net/url"

	"github.com/koscakluka/ema-chat/core/llms/completions"
)

const (
	BaseURL  = "https://api.intelligence.io.solutions/api/v1"
	Endpoint = BaseURL + "/chat/completions"
)

// SessionEndpoint returns the URL that appends a prompt to session id.
func SessionEndpoint(id string) string {
	return BaseURL + "/chats/" + url.PathEscape(id) + "/messages"
}

func NewClient(apiKey string, opts ...completions.Option) *completions.Client {
	return completions.NewClient(apiKey, append([]completions.Option{
		completions.WithEndpoint(Endpoint),
		completions.WithSessionEndpoint(SessionEndpoint),
		completions.WithDialect(completions.DialectIONet),
	}, opts...)...)
}
