package speechtotext

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorUnwrapsAndCategorizes(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("transcription failed: %w", NewError(ErrorNetwork, cause))

	var recognitionErr *Error
	if !errors.As(err, &recognitionErr) {
		t.Fatalf("expected wrapped recognition error")
	}
	if !recognitionErr.Category.Retryable() {
		t.Fatalf("expected network errors to be retryable")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable through the chain")
	}
}

func TestErrorCategoryClasses(t *testing.T) {
	for _, category := range []ErrorCategory{ErrorNoSpeech, ErrorAborted} {
		if !category.Benign() || category.Retryable() {
			t.Fatalf("expected %s to be benign and not retryable", category)
		}
	}
	for _, category := range []ErrorCategory{ErrorNotAllowed, ErrorAudioCapture, ErrorServiceNotAllowed, ErrorLanguageNotSupported, ErrorUnsupported} {
		if category.Benign() || category.Retryable() {
			t.Fatalf("expected %s to be a hard failure", category)
		}
	}
}

func TestNewTranscriptionOptionsFillsDefaults(t *testing.T) {
	options := NewTranscriptionOptions(WithLanguage(""))
	if options.Language != DefaultLanguage {
		t.Fatalf("expected default language, got %q", options.Language)
	}

	options.TranscriptCallback("hello", true)
	options.StartedCallback()
	options.EndedCallback()
	options.ErrorCallback(NewError(ErrorAborted, nil))

	options = NewTranscriptionOptions(WithLanguage("fr-FR"))
	if options.Language != "fr-FR" {
		t.Fatalf("expected fr-FR, got %q", options.Language)
	}
}
