package llm

import (
	"context"
	"strings"
)

// Ollama talks to a local Ollama server
type Ollama struct {
	baseURL string
}

// NewOllama returns an Ollama provider; an empty baseURL means localhost.
func NewOllama(baseURL string) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Ollama{baseURL: strings.TrimRight(baseURL, "/")}
}

// Generate calls /api/generate without streaming.
func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	body := map[string]interface{}{
		"model":  req.Model,
		"prompt": req.Prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": req.Temperature,
		},
	}
	if req.System != "" {
		body["system"] = req.System
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := postJSON(ctx, o.baseURL+"/api/generate", nil, body, &response); err != nil {
		return "", err
	}

	return response.Response, nil
}
