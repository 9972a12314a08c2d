package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"response":"missing rights dominates"}`))
	}))
	defer server.Close()

	out, err := NewOllama(server.URL+"/").Generate(context.Background(), Request{
		Model:  "test-model",
		System: "be brief",
		Prompt: "describe",
	})
	require.NoError(t, err)
	assert.Equal(t, "missing rights dominates", out)
	assert.Equal(t, "test-model", received["model"])
	assert.Equal(t, "be brief", received["system"])
	assert.Equal(t, false, received["stream"])
}

func TestOpenAIGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body struct {
			Messages []map[string]string `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if !assert.Len(t, body.Messages, 2) {
			return
		}
		assert.Equal(t, "system", body.Messages[0]["role"])
		assert.Equal(t, "user", body.Messages[1]["role"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"two archetypes"}}]}`))
	}))
	defer server.Close()

	out, err := NewOpenAI("secret", server.URL).Generate(context.Background(), Request{
		Model:  "gpt-test",
		System: "be brief",
		Prompt: "describe",
	})
	require.NoError(t, err)
	assert.Equal(t, "two archetypes", out)
}

func TestOpenAIErrors(t *testing.T) {
	_, err := NewOpenAI("", "").Generate(context.Background(), Request{})
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err = NewOpenAI("secret", server.URL).Generate(context.Background(), Request{})
	assert.ErrorContains(t, err, "429")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer empty.Close()

	_, err = NewOpenAI("secret", empty.URL).Generate(context.Background(), Request{})
	assert.ErrorContains(t, err, "no choices")
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini("").Generate(context.Background(), Request{})
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

func TestNew(t *testing.T) {
	for _, name := range Names {
		p, err := New(name)
		require.NoError(t, err)
		assert.NotNil(t, p)
	}

	_, err := New("claude")
	assert.ErrorContains(t, err, "unknown provider")
}

func TestDefaultModel(t *testing.T) {
	t.Setenv("OLLAMA_MODEL", "")
	assert.Equal(t, "mistral-small3.2:24b", DefaultModel("ollama"))

	t.Setenv("OPENAI_MODEL", "gpt-custom")
	assert.Equal(t, "gpt-custom", DefaultModel("OpenAI"))

	assert.Equal(t, "", DefaultModel("unknown"))
}
