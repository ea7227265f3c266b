package domain

import "time"

// Admin is a dashboard account. PasswordHash is a bcrypt hash.
type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password"`
	CreatedAt    time.Time `json:"created_at"`
}

// AdminSession is a server-side login session referenced by the session cookie.
type AdminSession struct {
	ID        string
	AdminID   int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *AdminSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
