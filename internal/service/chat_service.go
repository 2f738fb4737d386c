package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"assistant-portal/internal/models"
	"assistant-portal/internal/repository"
	"assistant-portal/pkg/logger"
)

const DefaultSystemPrompt = "You are Dr. Infinity, DrinfinityAI's proprietary medical AI assistant. " +
	"When asked about your identity, reply: 'I'm Dr. Infinity, developed by DrinfinityAI as a specialized medical assistant.' " +
	"You are our own intellectual property and advanced AI technology - never mention external models, providers, or training sources. " +
	"If asked about your underlying technology, say: 'I'm powered by DrinfinityAI's proprietary medical AI technology.' " +
	"Clinical Expertise: Act as an experienced medical consultant with deep knowledge across all medical specialties. " +
	"Provide evidence-based clinical reasoning, differential diagnoses, treatment protocols, and drug interactions. " +
	"Draw from medical literature, clinical guidelines (NICE, AHA, ACS, etc.), and established medical practices. " +
	"Use medical terminology appropriately while remaining accessible when needed. " +
	"Professional Standards: Maintain the analytical rigor of a practicing physician. " +
	"When uncertain, acknowledge limitations and recommend appropriate next steps or specialist consultation. " +
	"Always include relevant safety considerations and contraindications. " +
	"For emergencies, immediately advise contacting emergency services or emergency department. " +
	"Disclaimer: Always remind users that you provide medical information for educational purposes and " +
	"cannot replace professional medical examination, diagnosis, or treatment by a licensed healthcare provider."

const (
	apologyPrefix      = "I apologize, but I encountered an error: "
	userTurnStop       = "User:"
	healthProbePrompt  = "Test"
	healthProbeTokens  = 5
	defaultHistorySize = 6
)

var (
	ErrEmptyMessage   = errors.New("message is required")
	ErrEmptySession   = errors.New("session id is required")
	ErrHistoryFailure = errors.New("chat history unavailable")
	errClientGone     = errors.New("client stopped reading")
)

type ChatServiceOptions struct {
	SystemPrompt  string
	HistoryWindow int
	SessionMaxAge time.Duration
	Completion    CompletionOptions
	ModelName     string
	Version       string
	Now           func() time.Time
}

type ChatService struct {
	repo      repository.ChatHistoryRepository
	completer Completer
	opts      ChatServiceOptions
}

func NewChatService(repo repository.ChatHistoryRepository, completer Completer, opts ChatServiceOptions) *ChatService {
	if strings.TrimSpace(opts.SystemPrompt) == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = defaultHistorySize
	}
	if opts.SessionMaxAge <= 0 {
		opts.SessionMaxAge = time.Hour
	}
	if len(opts.Completion.Stop) == 0 {
		opts.Completion.Stop = []string{userTurnStop}
	}
	if opts.ModelName == "" {
		opts.ModelName = "Dr. Infinity"
	}
	if opts.Version == "" {
		opts.Version = "1.0"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &ChatService{repo: repo, completer: completer, opts: opts}
}

// BuildConversation renders the last window messages as "User:"/"Assistant:" lines.
func BuildConversation(messages []models.ChatMessage, window int) string {
	if window > 0 && len(messages) > window {
		messages = messages[len(messages)-window:]
	}

	lines := make([]string, 0, len(messages))
	for _, message := range messages {
		speaker := "User"
		if message.Role == models.RoleAssistant {
			speaker = "Assistant"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, message.Content))
	}
	return strings.Join(lines, "\n")
}

func (s *ChatService) BuildPrompt(history []models.ChatMessage) string {
	return fmt.Sprintf("%s\n\nPrevious conversation:\n%s\n\nAssistant:",
		s.opts.SystemPrompt, BuildConversation(history, s.opts.HistoryWindow))
}

// Prepare records the user's message and returns the prompt for the next
// assistant turn.
func (s *ChatService) Prepare(ctx context.Context, sessionID, message string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", ErrEmptySession
	}
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	log := logger.FromContext(ctx).WithField("session_id", sessionID)
	log.Info("Processing chat request")

	if err := s.repo.Append(ctx, sessionID, models.ChatMessage{
		Role:      models.RoleUser,
		Content:   message,
		Timestamp: s.opts.Now(),
	}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHistoryFailure, err)
	}

	history, err := s.repo.History(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHistoryFailure, err)
	}
	log.WithField("history_length", len(history)).Debug("Loaded chat history")

	return s.BuildPrompt(history), nil
}

// Generate streams the assistant reply for prompt through emit and records
// it in the session history. Backend failures are reported to the reader as
// an apology chunk rather than an error.
func (s *ChatService) Generate(ctx context.Context, sessionID, prompt string, emit func(chunk string) error) error {
	log := logger.FromContext(ctx).WithField("session_id", sessionID)

	var reply strings.Builder
	err := s.completer.Complete(ctx, prompt, s.opts.Completion, func(chunk string) error {
		reply.WriteString(chunk)
		if emitErr := emit(chunk); emitErr != nil {
			return fmt.Errorf("%w: %v", errClientGone, emitErr)
		}
		return nil
	})

	switch {
	case err == nil:
		if appendErr := s.repo.Append(ctx, sessionID, models.ChatMessage{
			Role:      models.RoleAssistant,
			Content:   reply.String(),
			Timestamp: s.opts.Now(),
		}); appendErr != nil {
			log.WithError(appendErr).Error("Failed to record assistant reply")
		}
	case errors.Is(err, errClientGone), errors.Is(err, context.Canceled):
		log.WithError(err).Warn("Chat stream aborted by client")
		return err
	default:
		log.WithError(err).Error("Error generating chat reply")
		if emitErr := emit(apologyPrefix + err.Error()); emitErr != nil {
			return emitErr
		}
	}

	if _, cleanupErr := s.Cleanup(ctx); cleanupErr != nil {
		log.WithError(cleanupErr).Error("Error during session cleanup")
	}
	return nil
}

// Cleanup drops sessions idle for longer than the configured max age.
func (s *ChatService) Cleanup(ctx context.Context) ([]string, error) {
	cutoff := s.opts.Now().Add(-s.opts.SessionMaxAge)
	removed, err := s.repo.DeleteIdle(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	for _, sessionID := range removed {
		logger.Info("Cleaned up session", map[string]interface{}{"session_id": sessionID})
	}
	return removed, nil
}

func (s *ChatService) Status(ctx context.Context) (models.ChatStatus, error) {
	count, err := s.repo.CountSessions(ctx)
	if err != nil {
		return models.ChatStatus{}, fmt.Errorf("%w: %v", ErrHistoryFailure, err)
	}
	return models.ChatStatus{
		Status:         fmt.Sprintf("%s API is running", s.opts.ModelName),
		Model:          s.opts.ModelName,
		Version:        s.opts.Version,
		ActiveSessions: count,
	}, nil
}

// Health runs a tiny completion to prove the backend answers.
func (s *ChatService) Health(ctx context.Context) models.HealthStatus {
	opts := s.opts.Completion
	opts.MaxTokens = healthProbeTokens

	err := s.completer.Complete(ctx, healthProbePrompt, opts, func(string) error { return nil })
	if err != nil {
		logger.Error(err, "Health check failed", nil)
		return models.HealthStatus{Status: "unhealthy", Error: err.Error()}
	}
	return models.HealthStatus{Status: "healthy", ModelLoaded: true}
}
