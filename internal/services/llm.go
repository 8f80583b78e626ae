package services

import (
	"context"

	"github.com/storyforge/storyforge/pkg/chat"
)

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel initializes the LLM model on startup
	InitModel(ctx context.Context, modelName string) error

	// Chat generates a completion for the given message sequence and
	// returns the raw text of the model's reply.
	Chat(ctx context.Context, messages []chat.ChatMessage) (string, error)
}
