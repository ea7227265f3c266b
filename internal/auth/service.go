package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jmahrt/portfolio/internal/domain"
	"github.com/jmahrt/portfolio/internal/store"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthorized is returned when a token does not map to a live session.
	ErrUnauthorized = errors.New("unauthorized")
)

// DefaultSessionTTL is how long a login stays valid.
const DefaultSessionTTL = 24 * time.Hour

// Repository is the persistence auth needs.
type Repository interface {
	store.AdminStore
	store.SessionStore
}

// Service logs admins in and resolves session tokens.
type Service struct {
	repo   Repository
	signer *Signer
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a Service. A non-positive ttl uses DefaultSessionTTL.
func NewService(repo Repository, signer *Signer, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, signer: signer, ttl: ttl, now: time.Now, logger: logger}
}

// Login is the result of a successful login.
type Login struct {
	Token     string
	Admin     *domain.Admin
	ExpiresAt time.Time
}

// Login checks the credentials and opens a session.
func (s *Service) Login(ctx context.Context, username, password string) (*Login, error) {
	admin, err := s.repo.GetAdminByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if !CheckPassword(admin.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	sess := &domain.AdminSession{
		ID:        uuid.NewString(),
		AdminID:   admin.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := s.signer.Sign(sess.ID, admin.ID, now, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Admin logged in", "admin_id", admin.ID, "session_id", sess.ID)
	return &Login{Token: token, Admin: admin, ExpiresAt: sess.ExpiresAt}, nil
}

// Authenticate resolves token to its admin. Any failure is ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Admin, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	now := s.now()
	claims, err := s.signer.Parse(token, now)
	if err != nil {
		s.logger.Debug("Rejected session token", "error", err)
		return nil, ErrUnauthorized
	}

	sess, err := s.repo.GetSession(ctx, claims.SessionID())
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.Expired(now) {
		return nil, ErrUnauthorized
	}
	if adminID, err := claims.AdminID(); err != nil || adminID != sess.AdminID {
		s.logger.Warn("Session token does not match its session", "session_id", sess.ID)
		return nil, ErrUnauthorized
	}

	admin, err := s.repo.GetAdmin(ctx, sess.AdminID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return admin, nil
}

// Logout ends the session behind token. Invalid tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.signer.Parse(token, s.now())
	if err != nil {
		return nil
	}
	if err := s.repo.DeleteSession(ctx, claims.SessionID()); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// EnsureAdmin creates the admin account unless the username already exists.
// It reports whether an account was created.
func EnsureAdmin(ctx context.Context, repo store.AdminStore, username, password string) (*domain.Admin, bool, error) {
	existing, err := repo.GetAdminByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("get admin: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	admin := &domain.Admin{Username: username, PasswordHash: hash}
	if err := repo.CreateAdmin(ctx, admin); err != nil {
		return nil, false, fmt.Errorf("create admin: %w", err)
	}
	return admin, true, nil
}
