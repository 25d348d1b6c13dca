// Package chat keeps an in-memory conversation on top of a model coordinator.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"llamachat/internal/coordinator"
	"llamachat/pkg/types"
)

// DefaultWelcome is the assistant greeting used by Start when none is given.
const DefaultWelcome = "Hello, how can I help you today?"

// ReplyMaxTokens bounds every assistant reply.
const ReplyMaxTokens = 512

// ErrBusy is returned by Send while a reply is being generated.
var ErrBusy = errors.New("chat: a reply is already being generated")

// Model is the part of the coordinator a Session drives.
type Model interface {
	LoadModel(ctx context.Context, name string) error
	GenerateText(ctx context.Context, prompt string, opts coordinator.GenerateOptions) (string, error)
	IsReady() bool
	IsLoading() bool
	IsGenerating() bool
	Err() error
}

// Session is a single conversation. The transcript lives only in memory.
type Session struct {
	model Model
	log   zerolog.Logger
	now   func() time.Time

	mu       sync.Mutex
	messages []types.Message
	sending  bool
}

// NewSession returns an empty session over m.
func NewSession(m Model, log zerolog.Logger) *Session {
	return &Session{model: m, log: log, now: time.Now}
}

// Start resets the transcript to a single assistant welcome message.
func (s *Session) Start(welcome string) {
	if strings.TrimSpace(welcome) == "" {
		welcome = DefaultWelcome
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = []types.Message{s.newMessage(types.RoleAssistant, welcome)}
}

// Send appends text as a user turn and, when the model answers, the assistant
// reply. Blank input is ignored and returns an empty reply. On failure the user
// turn stays in the transcript and the error is returned.
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	s.mu.Lock()
	if s.sending || s.model.IsGenerating() {
		s.mu.Unlock()
		return "", ErrBusy
	}
	s.sending = true
	s.messages = append(s.messages, s.newMessage(types.RoleUser, text))
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	if !s.model.IsReady() && !s.model.IsLoading() {
		if err := s.model.LoadModel(ctx, ""); err != nil {
			s.log.Error().Err(err).Msg("chat: load model")
			return "", err
		}
	}
	reply, err := s.model.GenerateText(ctx, text, coordinator.GenerateOptions{MaxTokens: ReplyMaxTokens})
	if err != nil {
		s.log.Error().Err(err).Msg("chat: generate reply")
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", nil
	}
	s.mu.Lock()
	s.messages = append(s.messages, s.newMessage(types.RoleAssistant, reply))
	s.mu.Unlock()
	return reply, nil
}

// StatusText summarizes the model state for display.
func (s *Session) StatusText() string {
	switch {
	case s.model.IsLoading():
		return "Loading model..."
	case s.model.IsReady():
		return "Model ready"
	case s.model.Err() != nil:
		return "Model error"
	default:
		return "Model not loaded"
	}
}

// Busy reports whether Send is in progress.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) newMessage(role types.Role, content string) types.Message {
	return types.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
}
