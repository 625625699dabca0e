package store

import "pngconverter/pkg/domain"

// Store defines persistence operations for user accounts.
type Store interface {
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	HasUsername(username string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
}

// SessionStore persists login sessions keyed by opaque token.
type SessionStore interface {
	NewSession(user domain.User) (string, error)
	GetSession(token string) (domain.Session, bool, error)
	DeleteSession(token string) error
}
