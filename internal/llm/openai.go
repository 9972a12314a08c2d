package llm

import (
	"context"
	"fmt"
	"strings"
)

// OpenAI talks to the OpenAI chat completions API or a compatible server
type OpenAI struct {
	apiKey  string
	baseURL string
}

// NewOpenAI returns an OpenAI provider; an empty baseURL means api.openai.com.
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAI{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/")}
}

// Generate sends a chat completion with an optional system message.
func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	messages := []map[string]string{}
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	body := map[string]interface{}{
		"model":       req.Model,
		"messages":    messages,
		"temperature": req.Temperature,
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := postJSON(ctx, o.baseURL+"/chat/completions", headers, body, &response); err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return response.Choices[0].Message.Content, nil
}
