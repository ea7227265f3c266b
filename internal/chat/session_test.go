package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmahrt/portfolio/internal/domain"
)

type stubResponder struct {
	mu     sync.Mutex
	reply  string
	err    error
	calls  int
	seen   [][]domain.Message
	before func()
}

func (r *stubResponder) Respond(_ context.Context, conv []domain.Message, onPartial PartialFunc) (string, error) {
	r.mu.Lock()
	r.calls++
	r.seen = append(r.seen, conv)
	before := r.before
	r.mu.Unlock()
	if before != nil {
		before()
	}
	if onPartial != nil && r.err == nil {
		onPartial("partial")
	}
	return r.reply, r.err
}

type recordingNotifier struct {
	notices []string
}

func (n *recordingNotifier) Notify(title, description string) {
	n.notices = append(n.notices, title+": "+description)
}

func TestSubmitRejectsBlankInput(t *testing.T) {
	remote := &stubResponder{reply: "hi"}
	s := NewSession(SessionConfig{Remote: remote})

	err := s.Submit(context.Background(), "   \n\t")

	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, s.Messages())
	assert.Equal(t, 0, remote.calls)
	assert.Equal(t, StateIdle, s.State())
}

func TestSubmitUsesRemoteFirst(t *testing.T) {
	remote := &stubResponder{reply: "From the server"}
	local := &stubResponder{reply: "From the pipeline"}
	s := NewSession(SessionConfig{Remote: remote, Local: local})

	require.NoError(t, s.Submit(context.Background(), "  Hello  "))

	assert.Equal(t, []domain.Message{
		{Role: domain.RoleUser, Content: "Hello"},
		{Role: domain.RoleAssistant, Content: "From the server"},
	}, s.Messages())
	assert.Equal(t, 0, local.calls)
	assert.Equal(t, []domain.Message{{Role: domain.RoleUser, Content: "Hello"}}, remote.seen[0], "placeholder is not sent upstream")
}

func TestSubmitFallsBackToLocal(t *testing.T) {
	remote := &stubResponder{err: errors.New("connection refused")}
	local := &stubResponder{reply: "From the pipeline"}
	var updates [][]domain.Message
	s := NewSession(SessionConfig{
		Remote:   remote,
		Local:    local,
		OnUpdate: func(m []domain.Message) { updates = append(updates, m) },
	})

	require.NoError(t, s.Submit(context.Background(), "Hello"))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "From the pipeline", msgs[1].Content)
	assert.NoError(t, s.LastError())

	require.NotEmpty(t, updates)
	assert.Equal(t, Placeholder, updates[0][1].Content)
	var sawPartial bool
	for _, u := range updates {
		if len(u) == 2 && u[1].Content == "partial" {
			sawPartial = true
		}
	}
	assert.True(t, sawPartial)
}

func TestSubmitTotalFailure(t *testing.T) {
	remote := &stubResponder{err: errors.New("connection refused")}
	local := &stubResponder{err: &InferenceError{Attempts: 3, RateLimited: true, Err: ErrRateLimited}}
	notifier := &recordingNotifier{}
	s := NewSession(SessionConfig{Remote: remote, Local: local, Notifier: notifier})

	err := s.Submit(context.Background(), "Hello")

	assert.ErrorIs(t, err, ErrRateLimited)
	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RateLimitApology, msgs[1].Content)
	assert.Equal(t, []string{"Error: Failed to get response. Please try again."}, notifier.notices)
	assert.Equal(t, StateIdle, s.State())
	assert.ErrorIs(t, s.LastError(), ErrRateLimited)
}

func TestSubmitWithoutResponders(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewSession(SessionConfig{Notifier: notifier})

	err := s.Submit(context.Background(), "Hello")

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, GenericApology, s.Messages()[1].Content)
	assert.Len(t, notifier.notices, 1)
}

func TestSubmitRejectsOverlap(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	remote := &stubResponder{reply: "done", before: func() {
		close(entered)
		<-release
	}}
	s := NewSession(SessionConfig{Remote: remote})

	errc := make(chan error, 1)
	go func() { errc <- s.Submit(context.Background(), "first") }()
	<-entered

	assert.Equal(t, StateSending, s.State())
	assert.ErrorIs(t, s.Submit(context.Background(), "second"), ErrBusy)
	assert.Len(t, s.Messages(), 2, "rejected submit leaves the conversation alone")

	close(release)
	require.NoError(t, <-errc)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, "done", s.Messages()[1].Content)
}

func TestLateWriteIsIgnored(t *testing.T) {
	var late PartialFunc
	responder := responderFunc(func(_ context.Context, _ []domain.Message, onPartial PartialFunc) (string, error) {
		late = onPartial
		return "answer", nil
	})
	s := NewSession(SessionConfig{Local: responder})

	require.NoError(t, s.Submit(context.Background(), "Hello"))
	late("stale partial")

	assert.Equal(t, "answer", s.Messages()[1].Content)
}

type responderFunc func(ctx context.Context, conv []domain.Message, onPartial PartialFunc) (string, error)

func (f responderFunc) Respond(ctx context.Context, conv []domain.Message, onPartial PartialFunc) (string, error) {
	return f(ctx, conv, onPartial)
}
