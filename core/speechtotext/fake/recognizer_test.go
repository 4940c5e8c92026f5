package fake

import (
	"context"
	"errors"
	"testing"

	"github.com/koscakluka/ema-chat/core/speechtotext"
)

func TestRecognizerReplaysScript(t *testing.T) {
	recognizer := NewRecognizer()
	calls := []string{}

	err := recognizer.Start(context.Background(),
		speechtotext.WithStartedCallback(func() { calls = append(calls, "started") }),
		speechtotext.WithEndedCallback(func() { calls = append(calls, "ended") }),
		speechtotext.WithTranscriptCallback(func(text string, isFinal bool) {
			if isFinal {
				calls = append(calls, "final:"+text)
			} else {
				calls = append(calls, "interim:"+text)
			}
		}),
		speechtotext.WithErrorCallback(func(err *speechtotext.Error) { calls = append(calls, "error:"+string(err.Category)) }),
	)
	if err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if err := recognizer.Start(context.Background()); err != nil || recognizer.Starts() != 1 {
		t.Fatalf("expected repeated start to be a no-op, got %v with %d starts", err, recognizer.Starts())
	}

	recognizer.Emit("hi", false)
	recognizer.Emit("hi there", true)
	recognizer.Fail(speechtotext.ErrorNetwork)

	expected := []string{"started", "interim:hi", "final:hi there", "error:network", "ended"}
	if len(calls) != len(expected) {
		t.Fatalf("expected calls %v, got %v", expected, calls)
	}
	for i := range expected {
		if calls[i] != expected[i] {
			t.Fatalf("expected calls %v, got %v", expected, calls)
		}
	}

	if err := recognizer.Emit("late", true); !errors.Is(err, ErrNotListening) {
		t.Fatalf("expected emit after end to fail, got %v", err)
	}
}

func TestRecognizerScriptedStartFailure(t *testing.T) {
	recognizer := NewRecognizer()
	recognizer.FailNextStart(speechtotext.ErrorNotAllowed)

	var recognitionErr *speechtotext.Error
	if err := recognizer.Start(context.Background()); !errors.As(err, &recognitionErr) || recognitionErr.Category != speechtotext.ErrorNotAllowed {
		t.Fatalf("expected not-allowed start failure, got %v", err)
	}
	if recognizer.Listening() {
		t.Fatalf("expected failed start to leave recognizer idle")
	}

	unsupported := NewRecognizer(Unsupported())
	if unsupported.IsSupported() {
		t.Fatalf("expected unsupported recognizer")
	}
	if err := unsupported.Start(context.Background()); !errors.As(err, &recognitionErr) || recognitionErr.Category != speechtotext.ErrorUnsupported {
		t.Fatalf("expected unsupported start failure, got %v", err)
	}
}
