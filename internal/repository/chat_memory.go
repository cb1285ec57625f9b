package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

type memoryChat struct {
	mu       sync.RWMutex
	messages map[string][]entity.ChatMessage
}

// NewInMemoryChatRepository is used when redis is disabled.
func NewInMemoryChatRepository() ChatRepository {
	return &memoryChat{
		messages: make(map[string][]entity.ChatMessage),
	}
}

func (that *memoryChat) Append(_ context.Context, sessionID string, message *entity.ChatMessage) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.messages[sessionID] = append(that.messages[sessionID], *message)

	return nil
}

func (that *memoryChat) List(_ context.Context, sessionID string) ([]*entity.ChatMessage, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	stored := that.messages[sessionID]
	messages := make([]*entity.ChatMessage, 0, len(stored))
	for i := range stored {
		message := stored[i]
		messages = append(messages, &message)
	}

	return messages, nil
}

func (that *memoryChat) DeleteBySessionID(_ context.Context, sessionID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.messages, sessionID)

	return nil
}
