package models

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a chat session.
type ChatMessage struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	SessionID string    `gorm:"type:varchar(128);not null;index:idx_chat_messages_session" json:"-"`
	Role      string    `gorm:"type:varchar(16);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

type ChatRequest struct {
	Message   string `json:"message" form:"message" binding:"required,max=8000"`
	SessionID string `json:"session_id" form:"session_id" binding:"required,session_id"`
}

type ChatStatus struct {
	Status         string `json:"status"`
	Model          string `json:"model"`
	Version        string `json:"version"`
	ActiveSessions int    `json:"active_sessions"`
}

type HealthStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded,omitempty"`
	Error       string `json:"error,omitempty"`
}
