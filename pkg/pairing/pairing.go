package pairing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/homelyeats/pkg/config"
	"github.com/example/homelyeats/pkg/errs"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// Client asks a language model for dish pairings and descriptions. Failures
// surface as ErrExternalService and never block the ordering flow.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func NewClient(cfg *config.OpenAIConfig, logger *zap.Logger) *Client {
	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		api:     openai.NewClient(cfg.APIKey),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		c.logger.Warn("Chat completion failed", zap.Error(err))
		return "", errs.ExternalServicef("language model: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", errs.ExternalServicef("language model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// SuggestPairings returns up to three dishes that go well with the given one.
func (c *Client) SuggestPairings(ctx context.Context, dishName, cuisine string) ([]string, error) {
	content, err := c.complete(ctx,
		"You are a culinary expert who suggests perfect dish pairings.",
		fmt.Sprintf("Suggest 3 dishes that would pair well with %q (%s cuisine). Return only the dish names separated by commas, no explanations.", dishName, cuisine),
		100)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(content, ",")
	suggestions := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions, nil
}

func (c *Client) GenerateDescription(ctx context.Context, dishName string, ingredients []string) (string, error) {
	return c.complete(ctx,
		"You are a professional food writer who creates engaging and appetizing descriptions of dishes.",
		fmt.Sprintf("Write a short, appetizing description (max 100 words) for a dish named %q with the following ingredients: %s", dishName, strings.Join(ingredients, ", ")),
		150)
}
