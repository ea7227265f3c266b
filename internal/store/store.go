// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmahrt/portfolio/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique key is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// ProjectStore persists portfolio projects.
type ProjectStore interface {
	// ListProjects returns all projects ordered by ID.
	ListProjects(ctx context.Context) ([]domain.Project, error)

	// GetProject retrieves a project by ID.
	GetProject(ctx context.Context, id int64) (*domain.Project, error)

	// CreateProject inserts p and assigns its ID.
	CreateProject(ctx context.Context, p *domain.Project) error

	// UpdateProject applies patch to the project and returns the result.
	UpdateProject(ctx context.Context, id int64, patch domain.ProjectPatch) (*domain.Project, error)

	// DeleteProject removes a project.
	DeleteProject(ctx context.Context, id int64) error
}

// AdminStore persists admin accounts.
type AdminStore interface {
	GetAdmin(ctx context.Context, id int64) (*domain.Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (*domain.Admin, error)

	// CreateAdmin inserts a and assigns its ID. A taken username returns ErrAlreadyExists.
	CreateAdmin(ctx context.Context, a *domain.Admin) error
}

// SessionStore persists admin login sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s *domain.AdminSession) error
	GetSession(ctx context.Context, id string) (*domain.AdminSession, error)
	DeleteSession(ctx context.Context, id string) error

	// DeleteExpiredSessions removes sessions that expired before now.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// ResumeStore persists the single resume document.
type ResumeStore interface {
	GetResume(ctx context.Context) (*domain.Resume, error)
	SaveResume(ctx context.Context, r *domain.Resume) error
}

// Repository is the full persistence surface of the server.
type Repository interface {
	ProjectStore
	AdminStore
	SessionStore
	ResumeStore

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Open returns the repository for driver: "json" keeps documents under
// dataDir, "sqlite" opens the database at sqlitePath.
func Open(driver, dataDir, sqlitePath string) (Repository, error) {
	switch driver {
	case "", "json":
		s, err := NewFileStore(dataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLite(sqlitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// Seed writes the default projects when none exist and the default resume
// when none is stored.
func Seed(ctx context.Context, repo Repository) error {
	projects, err := repo.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	if len(projects) == 0 {
		for _, p := range domain.DefaultProjects() {
			p.ID = 0
			if err := repo.CreateProject(ctx, &p); err != nil {
				return fmt.Errorf("seed project %q: %w", p.Title, err)
			}
		}
	}

	if _, err := repo.GetResume(ctx); errors.Is(err, ErrNotFound) {
		resume := domain.DefaultResume()
		if err := repo.SaveResume(ctx, &resume); err != nil {
			return fmt.Errorf("seed resume: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("get resume: %w", err)
	}
	return nil
}
