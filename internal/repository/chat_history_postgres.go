package repository

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"assistant-portal/internal/models"
)

type chatHistoryRepository struct {
	db *gorm.DB
}

// NewChatHistoryRepository archives chat messages in the chat_messages table.
func NewChatHistoryRepository(db *gorm.DB) ChatHistoryRepository {
	return &chatHistoryRepository{db: db}
}

func (r *chatHistoryRepository) Append(ctx context.Context, sessionID string, message models.ChatMessage) error {
	message.ID = 0
	message.SessionID = sessionID
	return r.db.WithContext(ctx).Create(&message).Error
}

func (r *chatHistoryRepository) History(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *chatHistoryRepository) CountSessions(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Distinct("session_id").
		Count(&count).Error
	return int(count), err
}

const deleteIdleSessionsSQL = `DELETE FROM chat_messages
WHERE session_id IN (
	SELECT session_id FROM chat_messages
	GROUP BY session_id
	HAVING MAX(timestamp) < ?
)
RETURNING session_id`

// DeleteIdle selects and deletes in one statement, so a message written
// after the statement starts is never removed with its session.
func (r *chatHistoryRepository) DeleteIdle(ctx context.Context, cutoff time.Time) ([]string, error) {
	var deleted []string
	if err := r.db.WithContext(ctx).Raw(deleteIdleSessionsSQL, cutoff).Scan(&deleted).Error; err != nil {
		return nil, err
	}
	return uniqueSorted(deleted), nil
}

func uniqueSorted(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
