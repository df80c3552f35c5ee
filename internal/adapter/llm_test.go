package adapter

import (
	"context"
	"os"
	"testing"

	"alvin-bot/internal/conversation"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// TestLLMAdapter_Generate requires an OpenAI API key
// This is a basic integration test
func TestLLMAdapter_Generate(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if testing.Short() || apiKey == "" {
		t.Skip("Skipping integration test")
	}

	client := openai.NewClient(apiKey)
	adapter := NewLLMAdapter(client, "gpt-4o", zap.NewNop())

	reply, err := adapter.Generate(context.Background(), "You are a helpful assistant.", []conversation.Turn{
		{Role: conversation.RoleUser, Content: "Say hello in one sentence."},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if reply == "" {
		t.Error("Expected non-empty reply")
	}
}

func TestLLMAdapter_GenerateWithHistory(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if testing.Short() || apiKey == "" {
		t.Skip("Skipping integration test")
	}

	client := openai.NewClient(apiKey)
	adapter := NewLLMAdapter(client, "gpt-4o", zap.NewNop())

	reply, err := adapter.Generate(context.Background(), "You are a helpful assistant.", []conversation.Turn{
		{Role: conversation.RoleUser, Content: "My name is Sam."},
		{Role: conversation.RoleAssistant, Content: "Nice to meet you, Sam!"},
		{Role: conversation.RoleUser, Content: "What is my name?"},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if reply == "" {
		t.Error("Expected non-empty reply")
	}
}
