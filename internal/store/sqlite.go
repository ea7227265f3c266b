package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmahrt/portfolio/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Repository = (*SQLiteStore)(nil)

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode and a busy timeout.
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		image TEXT NOT NULL,
		technologies_json TEXT NOT NULL,
		category TEXT NOT NULL,
		link TEXT,
		github TEXT
	);

	CREATE TABLE IF NOT EXISTS admins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS admin_sessions (
		id TEXT PRIMARY KEY,
		admin_id INTEGER NOT NULL REFERENCES admins(id) ON DELETE CASCADE,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_admin_sessions_expires ON admin_sessions(expires_at);

	CREATE TABLE IF NOT EXISTS resume (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		data_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

const projectColumns = `id, title, description, image, technologies_json, category, link, github`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var techJSON string
	var link, github sql.NullString

	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Image, &techJSON, &p.Category, &link, &github); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(techJSON), &p.Technologies); err != nil {
		return nil, fmt.Errorf("decode technologies: %w", err)
	}
	if link.Valid {
		p.Link = &link.String
	}
	if github.Valid {
		p.GitHub = &github.String
	}
	return &p, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// ListProjects returns all projects ordered by ID.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close project rows", "error", closeErr)
		}
	}()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

// GetProject retrieves a project by ID.
func (s *SQLiteStore) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return p, nil
}

// CreateProject inserts p and assigns its ID.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *domain.Project) error {
	techJSON, err := json.Marshal(nonNil(p.Technologies))
	if err != nil {
		return fmt.Errorf("encode technologies: %w", err)
	}

	query := `
		INSERT INTO projects (title, description, image, technologies_json, category, link, github)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	return withBusyRetry(ctx, "create project", func() error {
		res, err := s.db.ExecContext(ctx, query,
			p.Title, p.Description, p.Image, string(techJSON), p.Category,
			nullable(p.Link), nullable(p.GitHub),
		)
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("project id: %w", err)
		}
		p.ID = id
		return nil
	})
}

// UpdateProject applies patch inside a transaction and returns the stored result.
func (s *SQLiteStore) UpdateProject(ctx context.Context, id int64, patch domain.ProjectPatch) (*domain.Project, error) {
	var updated *domain.Project
	err := withBusyRetry(ctx, "update project", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		row := tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
		p, err := scanProject(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("scan project: %w", err)
		}

		patch.Apply(p)
		techJSON, err := json.Marshal(nonNil(p.Technologies))
		if err != nil {
			return fmt.Errorf("encode technologies: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE projects SET title = ?, description = ?, image = ?, technologies_json = ?,
				category = ?, link = ?, github = ?
			WHERE id = ?`,
			p.Title, p.Description, p.Image, string(techJSON), p.Category,
			nullable(p.Link), nullable(p.GitHub), id,
		)
		if err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteProject removes a project.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id int64) error {
	return withBusyRetry(ctx, "delete project", func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *SQLiteStore) getAdminWhere(ctx context.Context, where string, arg any) (*domain.Admin, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at FROM admins WHERE `+where, arg)

	var a domain.Admin
	var createdAt int64
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan admin: %w", err)
	}
	a.CreatedAt = time.Unix(createdAt, 0)
	return &a, nil
}

// GetAdmin retrieves an admin by ID.
func (s *SQLiteStore) GetAdmin(ctx context.Context, id int64) (*domain.Admin, error) {
	return s.getAdminWhere(ctx, "id = ?", id)
}

// GetAdminByUsername retrieves an admin by username.
func (s *SQLiteStore) GetAdminByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	return s.getAdminWhere(ctx, "username = ?", username)
}

// CreateAdmin inserts a and assigns its ID.
func (s *SQLiteStore) CreateAdmin(ctx context.Context, a *domain.Admin) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return withBusyRetry(ctx, "create admin", func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO admins (username, password_hash, created_at) VALUES (?, ?, ?)`,
			a.Username, a.PasswordHash, a.CreatedAt.Unix(),
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("admin %q: %w", a.Username, ErrAlreadyExists)
			}
			return fmt.Errorf("insert admin: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("admin id: %w", err)
		}
		a.ID = id
		return nil
	})
}

// CreateSession stores an admin login session.
func (s *SQLiteStore) CreateSession(ctx context.Context, sess *domain.AdminSession) error {
	return withBusyRetry(ctx, "create session", func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO admin_sessions (id, admin_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
			sess.ID, sess.AdminID, sess.CreatedAt.Unix(), sess.ExpiresAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
}

// GetSession retrieves a session by ID. Expired sessions are still returned.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*domain.AdminSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, admin_id, created_at, expires_at FROM admin_sessions WHERE id = ?`, id)

	var sess domain.AdminSession
	var createdAt, expiresAt int64
	err := row.Scan(&sess.ID, &sess.AdminID, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.ExpiresAt = time.Unix(expiresAt, 0)
	return &sess, nil
}

// DeleteSession removes a session. Missing sessions are not an error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	return withBusyRetry(ctx, "delete session", func() error {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// DeleteExpiredSessions removes sessions whose expiry is not after now.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := withBusyRetry(ctx, "delete expired sessions", func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE expires_at <= ?`, now.Unix())
		if err != nil {
			return fmt.Errorf("delete expired sessions: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// GetResume returns the stored resume.
func (s *SQLiteStore) GetResume(ctx context.Context) (*domain.Resume, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data_json FROM resume WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan resume: %w", err)
	}

	var r domain.Resume
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("decode resume: %w", err)
	}
	return &r, nil
}

// SaveResume replaces the stored resume.
func (s *SQLiteStore) SaveResume(ctx context.Context, r *domain.Resume) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode resume: %w", err)
	}
	query := `
		INSERT INTO resume (id, data_json, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data_json = excluded.data_json,
			updated_at = excluded.updated_at`

	return withBusyRetry(ctx, "save resume", func() error {
		if _, err := s.db.ExecContext(ctx, query, string(data), time.Now().Unix()); err != nil {
			return fmt.Errorf("upsert resume: %w", err)
		}
		return nil
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
