package llms

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type Model string

const (
	ModelGPT35Turbo Model = "gpt-3.5-turbo"
	ModelGPT4       Model = "gpt-4"
	ModelGPT4Turbo  Model = "gpt-4-turbo"

	DefaultModel = ModelGPT35Turbo
)

var ErrUnsupportedModel = errors.New("unsupported model")

// SupportedModels lists the models a session may select, in display order.
func SupportedModels() []Model {
	return []Model{ModelGPT35Turbo, ModelGPT4, ModelGPT4Turbo}
}

// ParseModel returns the supported model matching id.
func ParseModel(id string) (Model, error) {
	model := Model(strings.TrimSpace(id))
	if !slices.Contains(SupportedModels(), model) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedModel, id)
	}
	return model, nil
}

func (m Model) String() string { return string(m) }

// DisplayName is the label shown when picking a model.
func (m Model) DisplayName() string {
	switch m {
	case ModelGPT35Turbo:
		return "GPT-3.5 Turbo"
	case ModelGPT4:
		return "GPT-4"
	case ModelGPT4Turbo:
		return "GPT-4 Turbo"
	}
	return string(m)
}
