package llms

import (
	"errors"
	"testing"
)

func TestParseModel(t *testing.T) {
	for _, model := range SupportedModels() {
		parsed, err := ParseModel(" " + string(model) + " ")
		if err != nil || parsed != model {
			t.Fatalf("expected %s to parse, got %q, %v", model, parsed, err)
		}
	}

	if _, err := ParseModel("llama-3"); !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected unsupported model error, got %v", err)
	}
}
