package orchestration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-chat/core/speechtotext"
)

type speechToTextClientStub struct {
	mu     sync.Mutex
	calls  []string
	start  func(opts speechtotext.TranscriptionOptions) error
	closed bool
}

func (s *speechToTextClientStub) Start(_ context.Context, opts ...speechtotext.TranscriptionOption) error {
	s.record("start")
	if s.start != nil {
		return s.start(speechtotext.NewTranscriptionOptions(opts...))
	}
	return nil
}

func (s *speechToTextClientStub) Stop() error {
	s.record("stop")
	return nil
}

func (s *speechToTextClientStub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *speechToTextClientStub) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *speechToTextClientStub) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func TestSpeechToTextKeepsStartStopOrder(t *testing.T) {
	release := make(chan struct{})
	client := &speechToTextClientStub{
		start: func(speechtotext.TranscriptionOptions) error {
			<-release
			return nil
		},
	}
	stt := newSpeechToText()
	stt.set(client)

	started := make(chan error, 1)
	stt.start(context.Background(), func(err error) { started <- err })
	stt.stop()

	// start is still blocked, so the stop must not have overtaken it
	if got := client.snapshot(); len(got) > 1 {
		t.Fatalf("expected stop to wait for start, got %v", got)
	}
	close(release)

	select {
	case err := <-started:
		if err != nil {
			t.Fatalf("unexpected start error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for start result")
	}
	waitForCondition(t, 2*time.Second, "stop to run", func() bool { return len(client.snapshot()) == 2 })
	if got := client.snapshot(); got[0] != "start" || got[1] != "stop" {
		t.Fatalf("expected [start stop], got %v", got)
	}

	if err := stt.Close(context.Background()); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}

func TestSpeechToTextPassesOptions(t *testing.T) {
	var language string
	client := &speechToTextClientStub{
		start: func(opts speechtotext.TranscriptionOptions) error {
			language = opts.Language
			return nil
		},
	}
	stt := newSpeechToText()
	stt.set(client)
	defer stt.Close(context.Background())

	started := make(chan error, 1)
	stt.start(context.Background(), func(err error) { started <- err }, speechtotext.WithLanguage("hr-HR"))
	if err := <-started; err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if language != "hr-HR" {
		t.Fatalf("expected language hr-HR, got %q", language)
	}
}

func TestSpeechToTextReportsStartErrors(t *testing.T) {
	want := speechtotext.NewError(speechtotext.ErrorNetwork, errors.New("dial failed"))
	stt := newSpeechToText()
	stt.set(&speechToTextClientStub{start: func(speechtotext.TranscriptionOptions) error { return want }})
	defer stt.Close(context.Background())

	started := make(chan error, 1)
	stt.start(context.Background(), func(err error) { started <- err })
	if err := <-started; !errors.Is(err, want) {
		t.Fatalf("expected start error, got %v", err)
	}
}

func TestSpeechToTextWithoutClient(t *testing.T) {
	stt := newSpeechToText()

	if stt.isSupported() {
		t.Fatalf("expected missing client to be unsupported")
	}

	var startErr error
	stt.start(context.Background(), func(err error) { startErr = err })
	var recognitionErr *speechtotext.Error
	if !errors.As(startErr, &recognitionErr) || recognitionErr.Category != speechtotext.ErrorUnsupported {
		t.Fatalf("expected unsupported error, got %v", startErr)
	}

	stt.stop()
	if err := stt.Close(context.Background()); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}

func TestSpeechToTextCloseStopsAndCloses(t *testing.T) {
	client := &speechToTextClientStub{}
	stt := newSpeechToText()
	stt.set(client)

	if err := stt.Close(context.Background()); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if got := client.snapshot(); len(got) != 1 || got[0] != "stop" {
		t.Fatalf("expected a final stop, got %v", got)
	}
	if !client.closed {
		t.Fatalf("expected client to be closed")
	}
}
