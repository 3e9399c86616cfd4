package factory

import (
	"fmt"

	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/llm/ollama"
	"ai-docchat-be/pkg/llm/openrouter"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.Provider, error) {
	switch providerType {
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openrouter", "openai":
		return openrouter.NewProvider(baseURL, apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
