package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

type ChatRepository interface {
	Append(ctx context.Context, sessionID string, message *entity.ChatMessage) error
	List(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error)
	DeleteBySessionID(ctx context.Context, sessionID string) error
}

type dbChat struct {
	client *redis.Client
	ttl    time.Duration
}

// NewChatRepository stores chat history in a redis list per session. Every append refreshes the ttl.
func NewChatRepository(client *redis.Client, ttl time.Duration) ChatRepository {
	return &dbChat{
		client: client,
		ttl:    ttl,
	}
}

func chatKey(sessionID string) string {
	return "chat:" + sessionID
}

func (that *dbChat) Append(ctx context.Context, sessionID string, message *entity.ChatMessage) error {
	messageJSON, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("could not marshal message: %w", err)
	}

	key := chatKey(sessionID)

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, messageJSON)
		if that.ttl > 0 {
			pipe.Expire(ctx, key, that.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	return nil
}

func (that *dbChat) List(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error) {
	response, err := that.client.LRange(ctx, chatKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	messages := make([]*entity.ChatMessage, 0, len(response))
	for _, raw := range response {
		var message entity.ChatMessage
		if err = json.Unmarshal([]byte(raw), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}

		messages = append(messages, &message)
	}

	return messages, nil
}

func (that *dbChat) DeleteBySessionID(ctx context.Context, sessionID string) error {
	if err := that.client.Del(ctx, chatKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}

	return nil
}
