// Package openai generates post text through an OpenAI-compatible chat
// completion endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultModel    = "gpt-4o-mini"
	DefaultMaxRunes = 280

	systemPrompt = "You write short social media posts. Reply with the post text only, no quotes, no hashtags unless asked, at most %d characters."
)

var ErrEmptyCompletion = errors.New("empty completion")

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRunes   int
	HTTPClient *http.Client
}

type Generator struct {
	client   openai.Client
	model    string
	maxRunes int
}

func NewGenerator(cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: openai api key is required", domain.ErrInputValidation)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxRunes := cfg.MaxRunes
	if maxRunes <= 0 {
		maxRunes = DefaultMaxRunes
	}

	return &Generator{
		client:   openai.NewClient(opts...),
		model:    model,
		maxRunes: maxRunes,
	}, nil
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt is empty", domain.ErrInputValidation)
	}

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(systemPrompt, g.maxRunes)),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("generate content: %w", ErrEmptyCompletion)
	}

	text := cleanCompletion(completion.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("generate content: %w", ErrEmptyCompletion)
	}
	return truncateRunes(text, g.maxRunes), nil
}

func cleanCompletion(raw string) string {
	text := strings.TrimSpace(raw)
	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	return text
}

func truncateRunes(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit]))
}
