// Package contact validates contact form submissions and relays them by email.
package contact

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	netmail "net/mail"
	"strings"
	"unicode/utf8"

	"github.com/jmahrt/portfolio/internal/domain"
	"github.com/jmahrt/portfolio/internal/mail"
)

// SenderName is the display name on relayed messages.
const SenderName = "Jonathan Mahrt"

const minMessageLength = 10

// ErrNotConfigured is returned when no mail relay is available.
var ErrNotConfigured = errors.New("mail relay is not configured")

// Form is a contact form submission.
type Form struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a Form.
type ValidationError struct {
	Fields []domain.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid form data: " + strings.Join(parts, "; ")
}

// Validate checks the form and returns a *ValidationError when any field is invalid.
func (f Form) Validate() error {
	var fields []domain.FieldError
	if utf8.RuneCountInString(f.Name) < 1 {
		fields = append(fields, domain.FieldError{Field: "name", Message: "Name is required"})
	}
	if !validEmail(f.Email) {
		fields = append(fields, domain.FieldError{Field: "email", Message: "Invalid email"})
	}
	if utf8.RuneCountInString(f.Message) < minMessageLength {
		fields = append(fields, domain.FieldError{
			Field:   "message",
			Message: fmt.Sprintf("Message must contain at least %d characters", minMessageLength),
		})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// validEmail accepts a bare addr-spec with a dotted domain.
func validEmail(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	addr, err := netmail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	host := s[at+1:]
	return strings.Contains(host, ".") && !strings.HasPrefix(host, ".") && !strings.HasSuffix(host, ".")
}

// Service relays validated submissions to the site owner.
type Service struct {
	sender    mail.Sender
	from      string
	recipient string
	logger    *slog.Logger
}

// NewService creates a relay. A nil sender makes Submit return ErrNotConfigured.
func NewService(sender mail.Sender, from, recipient string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sender: sender, from: from, recipient: recipient, logger: logger}
}

// Enabled reports whether Submit can deliver mail.
func (s *Service) Enabled() bool {
	return s != nil && s.sender != nil
}

// Submit validates f and emails it to the recipient with Reply-To set to the visitor.
func (s *Service) Submit(ctx context.Context, f Form) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if !s.Enabled() {
		return ErrNotConfigured
	}

	s.logger.Info("Sending contact form email", "reply_to", f.Email)
	msg := Compose(f, netmail.Address{Name: SenderName, Address: s.from}, s.recipient)
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send contact email: %w", err)
	}
	return nil
}

// Compose renders the email for f.
func Compose(f Form, from netmail.Address, recipient string) mail.Message {
	text := fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s", f.Name, f.Email, f.Message)

	var b strings.Builder
	b.WriteString("<h2>New Message from Portfolio Contact Form</h2>\n")
	fmt.Fprintf(&b, "<p><strong>Name:</strong> %s</p>\n", html.EscapeString(f.Name))
	fmt.Fprintf(&b, "<p><strong>Email:</strong> %s</p>\n", html.EscapeString(f.Email))
	b.WriteString("<p><strong>Message:</strong></p>\n")
	fmt.Fprintf(&b, "<p>%s</p>\n", strings.ReplaceAll(html.EscapeString(f.Message), "\n", "<br>"))

	return mail.Message{
		From:    from,
		To:      []string{recipient},
		ReplyTo: f.Email,
		Subject: "Portfolio Contact Form: Message from " + f.Name,
		Text:    text,
		HTML:    b.String(),
	}
}
