package completions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koscakluka/ema-chat/core/connectivity"
	"github.com/koscakluka/ema-chat/core/retry"
	"github.com/koscakluka/ema-chat/internal/utils"
)

func writeFrames(w http.ResponseWriter, frames ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for _, frame := range frames {
		fmt.Fprintln(w, frame)
		w.(http.Flusher).Flush()
	}
}

func contentFrame(content string) string {
	return fmt.Sprintf(`data: {"choices":[{"delta":{"content":%q}}]}`, content)
}

func newTestClient(server *httptest.Server, opts ...Option) *Client {
	base := []Option{
		WithEndpoint(server.URL + "/api/v1/chat/completions"),
		WithSessionEndpoint(func(id string) string { return server.URL + "/api/v1/chats/" + id + "/messages" }),
		WithHTTPClient(server.Client()),
		WithIdleTimeout(200 * time.Millisecond),
		WithRetryPolicy(retry.Policy{InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxAttempts: 3}),
	}
	return NewClient("secret", append(base, opts...)...)
}

func TestSendStreamsChunksInOrder(t *testing.T) {
	var body requestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chat/completions" {
			t.Errorf("expected completions path, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("expected event-stream accept header, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		writeFrames(w, contentFrame("Hi"), "", contentFrame(" there"), "data: [DONE]", contentFrame("ignored"))
	}))
	defer server.Close()

	chunks := []string{}
	text, err := newTestClient(server).Send(context.Background(), "hello", "gpt-4", nil, func(chunk string) {
		chunks = append(chunks, chunk)
	})
	if err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}
	if text != "Hi there" {
		t.Fatalf("expected \"Hi there\", got %q", text)
	}
	if len(chunks) != 2 || chunks[0] != "Hi" || chunks[1] != " there" {
		t.Fatalf("expected chunks [Hi, there], got %q", chunks)
	}

	if body.Model != "gpt-4" || !body.Stream || body.Temperature != DefaultTemperature {
		t.Fatalf("unexpected request body %+v", body)
	}
	if body.Format != "text" || body.System != DefaultSystemPrompt {
		t.Fatalf("expected format and system fields, got %+v", body)
	}
	if len(body.Messages) != 1 || body.Messages[0].Role != messageRoleUser || body.Messages[0].Content != "hello" {
		t.Fatalf("expected single user message, got %+v", body.Messages)
	}
}

func TestSendRoutesSessionsToThreadEndpoint(t *testing.T) {
	paths := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		writeFrames(w, contentFrame("ok"), "data: [DONE]")
	}))
	defer server.Close()

	if _, err := newTestClient(server).Send(context.Background(), "hello", "gpt-4", utils.Ptr("abc"), nil); err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}
	if path := <-paths; path != "/api/v1/chats/abc/messages" {
		t.Fatalf("expected session path, got %s", path)
	}
}

func TestSendSkipsMalformedAndForeignLines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeFrames(w,
			": keep-alive",
			"event: message",
			contentFrame("a"),
			"data: {not json",
			`data: {"choices":[]}`,
			`data: {"choices":[{"delta":{}}]}`,
			contentFrame("b"),
			"data: [DONE]",
		)
	}))
	defer server.Close()

	text, err := newTestClient(server).Send(context.Background(), "hello", "gpt-4", nil, nil)
	if err != nil || text != "ab" {
		t.Fatalf("expected \"ab\" without error, got %q, %v", text, err)
	}
}

func TestSendMapsFailuresToMessages(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, expected: MessageUnauthorized},
		{name: "rate limited", status: http.StatusTooManyRequests, expected: MessageRateLimited},
		{name: "server error", status: http.StatusInternalServerError, expected: MessageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			text, err := newTestClient(server).Send(context.Background(), "hello", "gpt-4", nil, nil)
			if text != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, text)
			}
			var statusErr *StatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != tt.status {
				t.Fatalf("expected status error %d, got %v", tt.status, err)
			}
		})
	}
}

func TestSendOfflineMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestClient(server, WithConnectivity(connectivity.Static(false)))
	text, err := client.Send(context.Background(), "hello", "gpt-4", nil, nil)
	if text != MessageOffline || !errors.Is(err, ErrOffline) {
		t.Fatalf("expected offline message, got %q, %v", text, err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no request while offline, got %d", calls.Load())
	}
}

func TestSendUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := newTestClient(server)
	server.Close()

	text, err := client.Send(context.Background(), "hello", "gpt-4", nil, nil)
	if text != MessageUnreachable || !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected unreachable message, got %q, %v", text, err)
	}
}

func TestSendEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeFrames(w, "data: [DONE]")
	}))
	defer server.Close()

	text, err := newTestClient(server).Send(context.Background(), "hello", "gpt-4", nil, nil)
	if text != MessageEmptyResponse || !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected empty response message, got %q, %v", text, err)
	}
}

func TestSendRetriesStallBeforeOutput(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeFrames(w)
			<-r.Context().Done()
			return
		}
		writeFrames(w, contentFrame("recovered"), "data: [DONE]")
	}))
	defer server.Close()

	text, err := newTestClient(server).Send(context.Background(), "hello", "gpt-4", nil, nil)
	if err != nil || text != "recovered" {
		t.Fatalf("expected recovery after stall, got %q, %v", text, err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", calls.Load())
	}
}

func TestSendKeepsPartialOutputOnStall(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeFrames(w, contentFrame("Hi"))
		<-r.Context().Done()
	}))
	defer server.Close()

	text, err := newTestClient(server).Send(context.Background(), "hello", "gpt-4", nil, nil)
	if text != "Hi" || !errors.Is(err, ErrStalled) {
		t.Fatalf("expected partial text with stall error, got %q, %v", text, err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retry after partial output, got %d requests", calls.Load())
	}
}

func TestSendGivesUpAfterRepeatedStalls(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(server, WithIdleTimeout(20*time.Millisecond))
	text, err := client.Send(context.Background(), "hello", "gpt-4", nil, nil)
	if text != MessageUnavailable || !errors.Is(err, ErrStalled) {
		t.Fatalf("expected fallback after stalls, got %q, %v", text, err)
	}
	if calls.Load() != 4 {
		t.Fatalf("expected the first request and 3 retries, got %d", calls.Load())
	}
}

func TestSendNonStreaming(t *testing.T) {
	var body requestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"Hello"},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	chunks := 0
	text, err := newTestClient(server, WithStreaming(false)).Send(context.Background(), "hello", "gpt-4", nil, func(string) { chunks++ })
	if err != nil || text != "Hello" {
		t.Fatalf("expected \"Hello\", got %q, %v", text, err)
	}
	if chunks != 1 || body.Stream {
		t.Fatalf("expected one chunk from a non-streaming request, got %d (stream=%v)", chunks, body.Stream)
	}
}

func TestOpenAIDialectSendsSystemMessage(t *testing.T) {
	raw := make(chan map[string]any, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var decoded map[string]any
		json.NewDecoder(r.Body).Decode(&decoded)
		raw <- decoded
		writeFrames(w, contentFrame("ok"), "data: [DONE]")
	}))
	defer server.Close()

	client := newTestClient(server, WithDialect(DialectOpenAI), WithSessionEndpoint(nil))
	if _, err := client.Send(context.Background(), "hello", "gpt-4", utils.Ptr("ignored"), nil); err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}

	decoded := <-raw
	if _, ok := decoded["format"]; ok {
		t.Fatalf("expected no format field, got %v", decoded)
	}
	if _, ok := decoded["system"]; ok {
		t.Fatalf("expected no system field, got %v", decoded)
	}
	messages, _ := decoded["messages"].([]any)
	if len(messages) != 2 || !strings.Contains(fmt.Sprint(messages[0]), "system") {
		t.Fatalf("expected system message first, got %v", messages)
	}
}

func TestStreamChunksStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeFrames(w, contentFrame("first"))
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := newTestClient(server, WithIdleTimeout(time.Minute)).PromptWithStream(ctx, Request{Prompt: "hello", Model: "gpt-4"})

	var lastErr error
	for chunk, err := range stream.Chunks(ctx) {
		if err != nil {
			lastErr = err
			break
		}
		if _, ok := chunk.(StreamContentChunk); ok {
			cancel()
		}
	}
	if !errors.Is(lastErr, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", lastErr)
	}
}
