package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Request is a single prompt sent to a language model.
type Request struct {
	Model       string
	Temperature float64
	System      string
	Prompt      string
}

// Provider generates text from a prompt.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Names lists the supported provider names.
var Names = []string{"gemini", "ollama", "openai"}

// New returns the provider registered under name, configured from the
// environment.
func New(name string) (Provider, error) {
	switch strings.ToLower(name) {
	case "gemini":
		return NewGemini(os.Getenv("GEMINI_API_KEY")), nil
	case "ollama":
		return NewOllama(os.Getenv("OLLAMA_URL")), nil
	case "openai":
		return NewOpenAI(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_BASE_URL")), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: %s)", name, strings.Join(Names, ", "))
	}
}

// DefaultModel returns the model used when none is given, honouring the
// <PROVIDER>_MODEL environment variable.
func DefaultModel(name string) string {
	name = strings.ToLower(name)
	if model := os.Getenv(strings.ToUpper(name) + "_MODEL"); model != "" {
		return model
	}
	switch name {
	case "gemini":
		return "gemini-1.5-flash"
	case "ollama":
		return "mistral-small3.2:24b"
	case "openai":
		return "gpt-4o"
	}
	return ""
}
