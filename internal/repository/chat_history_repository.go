package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"assistant-portal/internal/models"
)

// ChatHistoryRepository stores the message history of chat sessions.
type ChatHistoryRepository interface {
	Append(ctx context.Context, sessionID string, message models.ChatMessage) error
	History(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	CountSessions(ctx context.Context) (int, error)
	// DeleteIdle removes sessions whose latest message is older than cutoff
	// and returns their ids.
	DeleteIdle(ctx context.Context, cutoff time.Time) ([]string, error)
}

type memoryChatHistoryRepository struct {
	mu       sync.RWMutex
	sessions map[string][]models.ChatMessage
}

func NewMemoryChatHistoryRepository() ChatHistoryRepository {
	return &memoryChatHistoryRepository{sessions: make(map[string][]models.ChatMessage)}
}

func (r *memoryChatHistoryRepository) Append(_ context.Context, sessionID string, message models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message.SessionID = sessionID
	r.sessions[sessionID] = append(r.sessions[sessionID], message)
	return nil
}

func (r *memoryChatHistoryRepository) History(_ context.Context, sessionID string) ([]models.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	messages := r.sessions[sessionID]
	if len(messages) == 0 {
		return nil, nil
	}
	out := make([]models.ChatMessage, len(messages))
	copy(out, messages)
	return out, nil
}

func (r *memoryChatHistoryRepository) CountSessions(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}

func (r *memoryChatHistoryRepository) DeleteIdle(_ context.Context, cutoff time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for sessionID, messages := range r.sessions {
		if len(messages) == 0 {
			continue
		}
		if messages[len(messages)-1].Timestamp.Before(cutoff) {
			delete(r.sessions, sessionID)
			removed = append(removed, sessionID)
		}
	}
	sort.Strings(removed)
	return removed, nil
}
