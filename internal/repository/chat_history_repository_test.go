package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"assistant-portal/internal/models"
	"assistant-portal/pkg/cache"
)

func newRedisRepository(t *testing.T) ChatHistoryRepository {
	t.Helper()
	server := miniredis.RunT(t)
	c, err := cache.NewCache(server.Addr(), true)
	if err != nil {
		t.Fatalf("failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return NewRedisChatHistoryRepository(c, time.Hour)
}

func repositories(t *testing.T) map[string]ChatHistoryRepository {
	return map[string]ChatHistoryRepository{
		"memory": NewMemoryChatHistoryRepository(),
		"redis":  newRedisRepository(t),
	}
}

func TestChatHistoryAppendAndHistory(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			messages := []models.ChatMessage{
				{Role: models.RoleUser, Content: "Hi", Timestamp: base},
				{Role: models.RoleAssistant, Content: "Hello", Timestamp: base.Add(time.Second)},
			}
			for _, message := range messages {
				if err := repo.Append(ctx, "s1", message); err != nil {
					t.Fatalf("append failed: %v", err)
				}
			}

			history, err := repo.History(ctx, "s1")
			if err != nil {
				t.Fatalf("history failed: %v", err)
			}
			if len(history) != 2 {
				t.Fatalf("expected 2 messages, got %d", len(history))
			}
			for i, message := range history {
				if message.Role != messages[i].Role || message.Content != messages[i].Content || message.SessionID != "s1" {
					t.Fatalf("message %d mismatch: %+v", i, message)
				}
				if !message.Timestamp.Equal(messages[i].Timestamp) {
					t.Fatalf("message %d timestamp mismatch: %s", i, message.Timestamp)
				}
			}

			empty, err := repo.History(ctx, "unknown")
			if err != nil || len(empty) != 0 {
				t.Fatalf("expected empty history for unknown session, got %v (%v)", empty, err)
			}
		})
	}
}

func TestChatHistoryDeleteIdle(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_ = repo.Append(ctx, "stale", models.ChatMessage{Role: models.RoleUser, Content: "old", Timestamp: now.Add(-2 * time.Hour)})
			_ = repo.Append(ctx, "fresh", models.ChatMessage{Role: models.RoleUser, Content: "new", Timestamp: now.Add(-time.Minute)})
			_ = repo.Append(ctx, "revived", models.ChatMessage{Role: models.RoleUser, Content: "old", Timestamp: now.Add(-3 * time.Hour)})
			_ = repo.Append(ctx, "revived", models.ChatMessage{Role: models.RoleAssistant, Content: "new", Timestamp: now})

			count, err := repo.CountSessions(ctx)
			if err != nil || count != 3 {
				t.Fatalf("expected 3 sessions, got %d (%v)", count, err)
			}

			removed, err := repo.DeleteIdle(ctx, now.Add(-time.Hour))
			if err != nil {
				t.Fatalf("delete idle failed: %v", err)
			}
			if len(removed) != 1 || removed[0] != "stale" {
				t.Fatalf("expected only stale session removed, got %v", removed)
			}

			count, _ = repo.CountSessions(ctx)
			if count != 2 {
				t.Fatalf("expected 2 sessions after cleanup, got %d", count)
			}
			history, _ := repo.History(ctx, "stale")
			if len(history) != 0 {
				t.Fatalf("expected stale history to be gone, got %d messages", len(history))
			}
		})
	}
}

func TestRedisDeleteIdleKeepsSessionWrittenAgain(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newRedisRepository(t)
	ctx := context.Background()

	_ = repo.Append(ctx, "s", models.ChatMessage{Role: models.RoleUser, Content: "old", Timestamp: now.Add(-2 * time.Hour)})
	_ = repo.Append(ctx, "s", models.ChatMessage{Role: models.RoleUser, Content: "x<y?", Timestamp: now})

	removed, err := repo.DeleteIdle(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("delete idle failed: %v", err)
	}
	if len(removed) != 0 {
		t.Fatalf("expected active session to be kept, got %v", removed)
	}

	history, err := repo.History(ctx, "s")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 2 || history[1].Content != "x<y?" {
		t.Fatalf("expected both messages to survive, got %+v", history)
	}
}

func TestUniqueSorted(t *testing.T) {
	got := uniqueSorted([]string{"b", "a", "b", "c", "a"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if uniqueSorted(nil) != nil {
		t.Fatalf("expected nil for no ids")
	}
}
