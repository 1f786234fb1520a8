package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, content string, captured *map[string]any) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		if captured != nil {
			assert.NoError(t, json.Unmarshal(body, captured))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGeneratorGenerate(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	server := completionServer(t, `  "Shipping Go today."  `, &captured)
	gen, err := NewGenerator(Config{APIKey: "test-key", BaseURL: server.URL, Model: "gpt-test"})
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "release day")

	require.NoError(t, err)
	assert.Equal(t, "Shipping Go today.", text)
	assert.Equal(t, "gpt-test", captured["model"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "release day", messages[1].(map[string]any)["content"])
}

func TestGeneratorTruncatesToLimit(t *testing.T) {
	t.Parallel()

	server := completionServer(t, strings.Repeat("é", 20), nil)
	gen, err := NewGenerator(Config{APIKey: "test-key", BaseURL: server.URL, MaxRunes: 5})
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "topic")

	require.NoError(t, err)
	assert.Equal(t, "ééééé", text)
	require.NoError(t, domain.ValidatePostContent(text, 5))
}

func TestGeneratorEmptyCompletion(t *testing.T) {
	t.Parallel()

	server := completionServer(t, "   ", nil)
	gen, err := NewGenerator(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "topic")

	require.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestGeneratorValidation(t *testing.T) {
	t.Parallel()

	_, err := NewGenerator(Config{})
	require.ErrorIs(t, err, domain.ErrInputValidation)

	gen, err := NewGenerator(Config{APIKey: "test-key", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	_, err = gen.Generate(context.Background(), " ")
	require.ErrorIs(t, err, domain.ErrInputValidation)
}
