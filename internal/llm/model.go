package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sevigo/goframe/llms"
)

// TextModel is the single capability the section generator needs from an LLM.
//
//go:generate mockgen -destination=../../mocks/mock_text_model.go -package=mocks . TextModel
type TextModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type goframeModel struct {
	model llms.Model
}

// NewGoframeModel adapts a goframe model (ollama, gemini) to TextModel.
func NewGoframeModel(model llms.Model) TextModel {
	return &goframeModel{model: model}
}

func (g *goframeModel) Complete(ctx context.Context, prompt string) (string, error) {
	return g.model.Call(ctx, prompt)
}

type openAIModel struct {
	client *openai.Client
	model  string
}

// NewOpenAIModel creates a chat-completion backed TextModel. baseURL may point
// at any OpenAI compatible endpoint; empty keeps the public API.
func NewOpenAIModel(apiKey, baseURL, model string) TextModel {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &openAIModel{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *openAIModel) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
