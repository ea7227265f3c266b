package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jmahrt/portfolio/internal/domain"
)

const (
	projectsFile = "projects.json"
	adminsFile   = "admins.json"
	resumeFile   = "resume.json"
)

// FileStore implements Repository with JSON documents in a data directory.
// Admin sessions are kept in memory and do not survive a restart.
type FileStore struct {
	dir string

	mu            sync.RWMutex
	projects      map[int64]domain.Project
	admins        map[int64]domain.Admin
	resume        *domain.Resume
	sessions      map[string]domain.AdminSession
	nextProjectID int64
	nextAdminID   int64
}

var _ Repository = (*FileStore)(nil)

// NewFileStore loads (or creates) the JSON documents under dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &FileStore{
		dir:           dir,
		projects:      make(map[int64]domain.Project),
		admins:        make(map[int64]domain.Admin),
		sessions:      make(map[string]domain.AdminSession),
		nextProjectID: 1,
		nextAdminID:   1,
	}

	var projects []domain.Project
	if _, err := s.readJSON(projectsFile, &projects); err != nil {
		return nil, err
	}
	for _, p := range projects {
		s.projects[p.ID] = p
		if p.ID >= s.nextProjectID {
			s.nextProjectID = p.ID + 1
		}
	}

	var admins []domain.Admin
	if _, err := s.readJSON(adminsFile, &admins); err != nil {
		return nil, err
	}
	for _, a := range admins {
		s.admins[a.ID] = a
		if a.ID >= s.nextAdminID {
			s.nextAdminID = a.ID + 1
		}
	}

	var resume domain.Resume
	found, err := s.readJSON(resumeFile, &resume)
	if err != nil {
		return nil, err
	}
	if found {
		s.resume = &resume
	}

	return s, nil
}

// readJSON decodes name into v and reports whether the file existed.
func (s *FileStore) readJSON(name string, v any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

// writeJSON replaces name atomically via a temp file and rename. Callers hold mu.
func (s *FileStore) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) sortedProjects() []domain.Project {
	out := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *FileStore) saveProjects() error {
	return s.writeJSON(projectsFile, s.sortedProjects())
}

func (s *FileStore) saveAdmins() error {
	out := make([]domain.Admin, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return s.writeJSON(adminsFile, out)
}

// Ping checks that the data directory is still accessible.
func (s *FileStore) Ping(_ context.Context) error {
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}
	return nil
}

// Close is a no-op; every write is flushed immediately.
func (s *FileStore) Close() error { return nil }

// ListProjects returns all projects ordered by ID.
func (s *FileStore) ListProjects(_ context.Context) ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedProjects(), nil
}

// GetProject retrieves a project by ID.
func (s *FileStore) GetProject(_ context.Context, id int64) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := p.Clone()
	return &out, nil
}

// CreateProject inserts p and assigns its ID.
func (s *FileStore) CreateProject(_ context.Context, p *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextProjectID
	p.Technologies = nonNil(p.Technologies)
	s.projects[p.ID] = p.Clone()
	if err := s.saveProjects(); err != nil {
		delete(s.projects, p.ID)
		return err
	}
	s.nextProjectID++
	return nil
}

// UpdateProject applies patch and returns the result.
func (s *FileStore) UpdateProject(_ context.Context, id int64, patch domain.ProjectPatch) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := prev.Clone()
	patch.Apply(&next)
	s.projects[id] = next
	if err := s.saveProjects(); err != nil {
		s.projects[id] = prev
		return nil, err
	}
	out := next.Clone()
	return &out, nil
}

// DeleteProject removes a project.
func (s *FileStore) DeleteProject(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.projects[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.projects, id)
	if err := s.saveProjects(); err != nil {
		s.projects[id] = prev
		return err
	}
	return nil
}

// GetAdmin retrieves an admin by ID.
func (s *FileStore) GetAdmin(_ context.Context, id int64) (*domain.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

// GetAdminByUsername retrieves an admin by username.
func (s *FileStore) GetAdminByUsername(_ context.Context, username string) (*domain.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.admins {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

// CreateAdmin inserts a and assigns its ID.
func (s *FileStore) CreateAdmin(_ context.Context, a *domain.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.admins {
		if existing.Username == a.Username {
			return fmt.Errorf("admin %q: %w", a.Username, ErrAlreadyExists)
		}
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.ID = s.nextAdminID
	s.admins[a.ID] = *a
	if err := s.saveAdmins(); err != nil {
		delete(s.admins, a.ID)
		return err
	}
	s.nextAdminID++
	return nil
}

// CreateSession stores an admin login session.
func (s *FileStore) CreateSession(_ context.Context, sess *domain.AdminSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

// GetSession retrieves a session by ID. Expired sessions are still returned.
func (s *FileStore) GetSession(_ context.Context, id string) (*domain.AdminSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sess, nil
}

// DeleteSession removes a session. Missing sessions are not an error.
func (s *FileStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// DeleteExpiredSessions removes sessions whose expiry is not after now.
func (s *FileStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// GetResume returns the stored resume.
func (s *FileStore) GetResume(_ context.Context) (*domain.Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.resume == nil {
		return nil, ErrNotFound
	}
	r := s.resume.Clone()
	return &r, nil
}

// SaveResume replaces the stored resume.
func (s *FileStore) SaveResume(_ context.Context, r *domain.Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeJSON(resumeFile, r); err != nil {
		return err
	}
	saved := r.Clone()
	s.resume = &saved
	return nil
}
