// Package openai answers free-form questions through the OpenAI chat
// completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/spigell/scheme-assistant/internal/ai"
	"github.com/spigell/scheme-assistant/internal/logger"
	"github.com/spigell/scheme-assistant/internal/utils"
)

const (
	defaultModel        = "gpt-4o-mini"
	defaultMaxLogLength = 200
)

// completionService defines the minimal interface for chat completions.
type completionService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Client wraps the OpenAI chat completions service.
type Client struct {
	completions  completionService
	model        string
	maxLogLength int
	logger       *zap.Logger
}

var _ ai.Assistant = (*Client)(nil)

// NewClient creates a client authenticated with apiKey. An empty model falls
// back to gpt-4o-mini.
func NewClient(apiKey, model string, maxLogLength int, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		completions:  &cli.Chat.Completions,
		model:        model,
		maxLogLength: maxLogLength,
		logger:       logger.WithAIFields(log, ai.ProviderOpenAI, model),
	}, nil
}

// GenerateContent sends the system instruction and message as a single
// completion request and returns the first choice.
func (c *Client) GenerateContent(ctx context.Context, systemInstruction, message string) (string, error) {
	if c == nil || c.completions == nil {
		return "", errors.New("openai client is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if instruction := strings.TrimSpace(systemInstruction); instruction != "" {
		messages = append(messages, openai.SystemMessage(instruction))
	}
	messages = append(messages, openai.UserMessage(message))

	resp, err := c.completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("openai api returned no choices")
	}

	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	if output == "" {
		return "", errors.New("openai api returned empty response")
	}

	logger.WithFields(c.logger).Debug("openai reply received",
		zap.String("reply", utils.TruncateForLog(output, c.maxLogLength)),
	)

	return output, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}
