package adapter

import (
	"context"
	"fmt"
	"time"

	"alvin-bot/internal/conversation"
	apperrors "alvin-bot/pkg/errors"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// LLMAdapter handles communication with the OpenAI chat API
type LLMAdapter struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewLLMAdapter creates a new LLM adapter
func NewLLMAdapter(client *openai.Client, model string, logger *zap.Logger) *LLMAdapter {
	return &LLMAdapter{
		client: client,
		model:  model,
		logger: logger,
	}
}

// Generate sends the conversation to the model and returns the reply text.
// Implements conversation.Generator.
func (a *LLMAdapter) Generate(ctx context.Context, systemPrompt string, turns []conversation.Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range turns {
		role := openai.ChatMessageRoleUser
		if turn.Role == conversation.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: 0.7,
	}

	// Retry logic with exponential backoff
	var resp openai.ChatCompletionResponse
	var err error
	maxRetries := 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			a.logger.Warn("Retrying LLM request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return "", apperrors.NewGenerationFailed(a.model, attempt, ctx.Err())
			case <-time.After(backoff):
			}
		}

		resp, err = a.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}

		a.logger.Error("LLM request failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.String("model", a.model),
		)
	}

	if err != nil {
		return "", apperrors.NewGenerationFailed(a.model, maxRetries, err)
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.NewGenerationFailed(a.model, 1, fmt.Errorf("no choices in LLM response"))
	}

	content := resp.Choices[0].Message.Content
	a.logger.Debug("LLM response generated",
		zap.String("model", a.model),
		zap.Int("input_turns", len(turns)),
		zap.Int("reply_chars", len(content)),
	)

	return content, nil
}
