package factory

import (
	"fmt"

	"doc-assistant-be/pkg/llm"
	"doc-assistant-be/pkg/llm/ollama"
)

// NewProvider builds the configured LLM backend.
func NewProvider(providerName, modelName, ollamaBaseURL string) (llm.Provider, error) {
	switch providerName {
	case "ollama", "":
		return ollama.NewOllamaProvider(ollamaBaseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", providerName)
	}
}
