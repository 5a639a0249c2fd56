// Package ai defines the contract shared by the LLM providers that answer
// free-form questions.
package ai

import "context"

// Provider names accepted in configuration.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Assistant answers a single message under a system instruction.
type Assistant interface {
	GenerateContent(ctx context.Context, systemInstruction, message string) (string, error)
	Model() string
}
