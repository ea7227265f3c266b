package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jmahrt/portfolio/internal/domain"
)

// State is the lifecycle of a Session.
type State int

const (
	StateIdle State = iota
	StateSending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Placeholder is shown in the assistant slot until a response arrives.
const Placeholder = "Thinking…"

const failureNotice = "Failed to get response. Please try again."

// Notifier surfaces a user-visible failure notice.
type Notifier interface {
	Notify(title, description string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, description string)

// Notify calls f.
func (f NotifierFunc) Notify(title, description string) { f(title, description) }

// SessionConfig holds the collaborators of a Session. Remote and Local may be nil.
type SessionConfig struct {
	Remote   Responder
	Local    Responder
	Notifier Notifier
	OnUpdate func(messages []domain.Message)
	Logger   *slog.Logger
}

// Session owns one conversation and allows a single request in flight.
type Session struct {
	mu       sync.Mutex
	messages []domain.Message
	state    State
	active   uint64
	seq      uint64
	lastErr  error

	remote   Responder
	local    Responder
	notifier Notifier
	onUpdate func([]domain.Message)
	logger   *slog.Logger
}

// NewSession creates an idle session with an empty conversation.
func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		remote:   cfg.Remote,
		local:    cfg.Local,
		notifier: cfg.Notifier,
		onUpdate: cfg.OnUpdate,
		logger:   logger,
	}
}

// Submit sends input and blocks until the assistant slot holds a final answer.
// Blank input returns ErrEmptyInput and overlapping calls return ErrBusy; neither
// touches the conversation.
func (s *Session) Submit(ctx context.Context, input string) error {
	text := strings.TrimSpace(input)
	if text == "" {
		return ErrEmptyInput
	}

	s.mu.Lock()
	if s.state == StateSending {
		s.mu.Unlock()
		return ErrBusy
	}
	s.messages = append(s.messages, domain.Message{Role: domain.RoleUser, Content: text})
	conv := make([]domain.Message, len(s.messages))
	copy(conv, s.messages)
	s.messages = append(s.messages, domain.Message{Role: domain.RoleAssistant, Content: Placeholder})
	slot := len(s.messages) - 1
	s.seq++
	gen := s.seq
	s.active = gen
	s.state = StateSending
	s.lastErr = nil
	s.mu.Unlock()
	s.emit()

	defer func() {
		s.mu.Lock()
		if s.active == gen {
			s.active = 0
		}
		s.state = StateIdle
		s.mu.Unlock()
		s.emit()
	}()

	write := func(content string) { s.writeSlot(gen, slot, content) }

	if s.remote != nil {
		resp, err := s.remote.Respond(ctx, conv, nil)
		if err == nil && strings.TrimSpace(resp) != "" {
			write(resp)
			return nil
		}
		if err == nil {
			err = errors.New("empty response")
		}
		s.logger.Warn("Direct chat endpoint failed, using local pipeline", "error", err)
	}

	var err error
	if s.local != nil {
		var resp string
		resp, err = s.local.Respond(ctx, conv, write)
		if err == nil {
			write(resp)
			return nil
		}
		var ie *InferenceError
		switch {
		case resp != "":
			write(resp)
		case errors.As(err, &ie):
			write(ie.Apology())
		default:
			write(GenericApology)
		}
	} else {
		err = ErrNotConfigured
		write(GenericApology)
	}

	s.logger.Error("Chat request failed", "error", err)
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	if s.notifier != nil {
		s.notifier.Notify("Error", failureNotice)
	}
	return fmt.Errorf("chat submit: %w", err)
}

// writeSlot replaces the assistant slot only while gen is the active submit.
func (s *Session) writeSlot(gen uint64, slot int, content string) {
	s.mu.Lock()
	if s.active != gen || slot >= len(s.messages) {
		s.mu.Unlock()
		return
	}
	s.messages[slot].Content = content
	s.mu.Unlock()
	s.emit()
}

func (s *Session) emit() {
	if s.onUpdate == nil {
		return
	}
	s.onUpdate(s.Messages())
}

// Messages returns a copy of the conversation.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// State reports whether a request is in flight.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError is the failure of the most recent submit, or nil.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
