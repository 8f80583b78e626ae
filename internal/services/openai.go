package services

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/storyforge/storyforge/pkg/chat"
)

const (
	DefaultOpenAITemperature = 0.9
	DefaultOpenAITopP        = 0.95
	DefaultOpenAIMaxTokens   = 4000
)

// OpenAIService implements LLMService using the OpenAI chat completion API
type OpenAIService struct {
	client    *openai.Client
	modelName string
	logger    *slog.Logger
}

func NewOpenAIService(apiKey string, modelName string, logger *slog.Logger) *OpenAIService {
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	return &OpenAIService{
		client:    openai.NewClient(apiKey),
		modelName: modelName,
		logger:    logger,
	}
}

func (o *OpenAIService) InitModel(ctx context.Context, modelName string) error {
	if modelName != "" {
		o.modelName = modelName
	}
	return nil
}

// Chat generates a completion using the OpenAI API
func (o *OpenAIService) Chat(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	oaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		oaiMessages = append(oaiMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       o.modelName,
		Messages:    oaiMessages,
		Temperature: DefaultOpenAITemperature,
		TopP:        DefaultOpenAITopP,
		MaxTokens:   DefaultOpenAIMaxTokens,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}

	o.logger.Debug("OpenAI completion",
		"model", o.modelName,
		"finish_reason", resp.Choices[0].FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}
