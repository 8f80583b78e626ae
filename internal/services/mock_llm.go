package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/storyforge/storyforge/pkg/chat"
)

// MockLLMService is a test double for LLMService. Responses are consumed
// in FIFO order; when the queue is empty the fallback response is returned.
type MockLLMService struct {
	mu        sync.Mutex
	queue     []string
	Fallback  string
	ChatError error

	// Requests records every message sequence passed to Chat.
	Requests [][]chat.ChatMessage
}

func NewMockLLMService() *MockLLMService {
	return &MockLLMService{Fallback: "{}"}
}

// Enqueue appends a canned response to the queue.
func (m *MockLLMService) Enqueue(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
}

func (m *MockLLMService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

func (m *MockLLMService) Chat(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, messages)
	if m.ChatError != nil {
		return "", m.ChatError
	}
	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		return resp, nil
	}
	if m.Fallback == "" {
		return "", fmt.Errorf("mock LLM has no queued response")
	}
	return m.Fallback, nil
}
