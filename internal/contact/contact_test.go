package contact

import (
	"context"
	"errors"
	netmail "net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmahrt/portfolio/internal/mail"
)

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func fieldNames(err error) []string {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestFormValidate(t *testing.T) {
	tests := []struct {
		name   string
		form   Form
		fields []string
	}{
		{"valid", Form{"Ada", "ada@example.com", "Hello, I'd like to chat."}, nil},
		{"empty name", Form{"", "ada@example.com", "Hello, I'd like to chat."}, []string{"name"}},
		{"bad email", Form{"Ada", "not-an-email", "Hello, I'd like to chat."}, []string{"email"}},
		{"email without dot", Form{"Ada", "ada@localhost", "Hello, I'd like to chat."}, []string{"email"}},
		{"email with name", Form{"Ada", "Ada <ada@example.com>", "Hello, I'd like to chat."}, []string{"email"}},
		{"short message", Form{"Ada", "ada@example.com", "Hi there"}, []string{"message"}},
		{"ten characters", Form{"Ada", "ada@example.com", "0123456789"}, nil},
		{"all invalid", Form{}, []string{"name", "email", "message"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.fields, fieldNames(err))
		})
	}
}

func TestSubmitSendsEmail(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, "site@example.com", "me@example.com", nil)

	err := svc.Submit(context.Background(), Form{"Ada <b>", "ada@example.com", "Line one\nLine two"})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, netmail.Address{Name: SenderName, Address: "site@example.com"}, msg.From)
	assert.Equal(t, []string{"me@example.com"}, msg.To)
	assert.Equal(t, "ada@example.com", msg.ReplyTo)
	assert.Equal(t, "Portfolio Contact Form: Message from Ada <b>", msg.Subject)
	assert.Equal(t, "Name: Ada <b>\nEmail: ada@example.com\n\nMessage:\nLine one\nLine two", msg.Text)
	assert.Contains(t, msg.HTML, "<p><strong>Name:</strong> Ada &lt;b&gt;</p>")
	assert.Contains(t, msg.HTML, "<p>Line one<br>Line two</p>")
}

func TestSubmitInvalidDoesNotSend(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, "site@example.com", "me@example.com", nil)

	err := svc.Submit(context.Background(), Form{Name: "Ada", Email: "bad", Message: "long enough message"})

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, sender.sent)
}

func TestSubmitNotConfigured(t *testing.T) {
	svc := NewService(nil, "", "", nil)
	assert.False(t, svc.Enabled())
	err := svc.Submit(context.Background(), Form{"Ada", "ada@example.com", "Hello, I'd like to chat."})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSubmitRelayFailure(t *testing.T) {
	svc := NewService(&fakeSender{err: errors.New("smtp down")}, "a@example.com", "b@example.com", nil)
	err := svc.Submit(context.Background(), Form{"Ada", "ada@example.com", "Hello, I'd like to chat."})
	assert.ErrorContains(t, err, "smtp down")
}
