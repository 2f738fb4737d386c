package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"assistant-portal/internal/models"
	"assistant-portal/pkg/cache"
)

const (
	chatSessionIndexKey = "chat:sessions"
	chatSessionPrefix   = "chat:session:"
)

type redisChatHistoryRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewRedisChatHistoryRepository keeps each session as a Redis list. Lists
// expire after ttl so Redis drops abandoned sessions even if cleanup never runs.
func NewRedisChatHistoryRepository(c *cache.Cache, ttl time.Duration) ChatHistoryRepository {
	return &redisChatHistoryRepository{cache: c, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return chatSessionPrefix + sessionID
}

func (r *redisChatHistoryRepository) Append(ctx context.Context, sessionID string, message models.ChatMessage) error {
	message.SessionID = sessionID
	score := float64(message.Timestamp.UnixNano()) / float64(time.Second)
	if err := r.cache.AppendIndexed(ctx, sessionKey(sessionID), message, r.ttl, chatSessionIndexKey, sessionID, score); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

func (r *redisChatHistoryRepository) History(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	entries, err := r.cache.ListJSON(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	messages := make([]models.ChatMessage, 0, len(entries))
	for _, entry := range entries {
		var message models.ChatMessage
		if err := json.Unmarshal(entry, &message); err != nil {
			return nil, fmt.Errorf("failed to decode chat message: %w", err)
		}
		message.SessionID = sessionID
		messages = append(messages, message)
	}
	return messages, nil
}

func (r *redisChatHistoryRepository) CountSessions(ctx context.Context) (int, error) {
	count, err := r.cache.Count(ctx, chatSessionIndexKey)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *redisChatHistoryRepository) DeleteIdle(ctx context.Context, cutoff time.Time) ([]string, error) {
	ceiling := float64(cutoff.UnixNano()) / float64(time.Second)
	removed, err := r.cache.EvictBelow(ctx, chatSessionIndexKey, ceiling, chatSessionPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to delete idle sessions: %w", err)
	}
	sort.Strings(removed)
	return removed, nil
}
