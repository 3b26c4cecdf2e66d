package internal

import (
	"database/sql"
	"errors"
	"fmt"
)

// Keys written to local_storage
const (
	KeyToken          = "token"
	KeyUserID         = "user_id"
	KeyUserType       = "user_type"
	KeyProfilePicture = "profile_picture"
)

var sessionKeys = []string{KeyToken, KeyUserID, KeyUserType, KeyProfilePicture}

// SessionStore persists the login session in the local_storage table.
// Writes come only from login, registration and logout; last write wins.
type SessionStore struct {
	db   *sql.DB
	path string
}

// NewSessionStore creates a SessionStore over an open database
func NewSessionStore(db *sql.DB, path string) *SessionStore {
	return &SessionStore{db: db, path: path}
}

// OpenSessionStore opens the database at path and wraps it in a SessionStore
func OpenSessionStore(path string) (*SessionStore, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	return NewSessionStore(db, path), nil
}

// Close closes the underlying database
func (s *SessionStore) Close() error {
	return s.db.Close()
}

// Get returns the value for key, or "" when it is not set
func (s *SessionStore) Get(key string) (string, error) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM local_storage WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", &StorageError{Path: s.path, Op: "read", Err: fmt.Errorf("%s: %w", key, err)}
	}
	return value.String, nil
}

// Set writes a single key
func (s *SessionStore) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO local_storage (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: fmt.Errorf("%s: %w", key, err)}
	}
	return nil
}

// Remove deletes a single key
func (s *SessionStore) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM local_storage WHERE key = ?", key); err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: fmt.Errorf("%s: %w", key, err)}
	}
	return nil
}

// Load reads the session. A missing session is returned as an empty,
// unauthenticated Session rather than an error.
func (s *SessionStore) Load() (*Session, error) {
	pairs, err := QueryLocalStorage(s.db, "%")
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "read", Err: err}
	}

	session := &Session{}
	for _, pair := range pairs {
		switch pair.Key {
		case KeyToken:
			session.Token = pair.Value
		case KeyUserID:
			session.UserID = ID(pair.Value)
		case KeyUserType:
			session.UserType = pair.Value
		case KeyProfilePicture:
			session.ProfilePicture = pair.Value
		}
	}
	return session, nil
}

// Save writes all session keys in one transaction
func (s *SessionStore) Save(session *Session) error {
	if session == nil {
		return errors.New("nil session")
	}
	picture := session.ProfilePicture
	if picture == "" {
		picture = DefaultProfilePicture
	}
	values := map[string]string{
		KeyToken:          session.Token,
		KeyUserID:         string(session.UserID),
		KeyUserType:       session.UserType,
		KeyProfilePicture: picture,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	for _, key := range sessionKeys {
		_, err := tx.Exec(
			"INSERT INTO local_storage (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, values[key],
		)
		if err != nil {
			_ = tx.Rollback()
			return &StorageError{Path: s.path, Op: "write", Err: fmt.Errorf("%s: %w", key, err)}
		}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

// Clear removes every key, as logout does
func (s *SessionStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM local_storage"); err != nil {
		return &StorageError{Path: s.path, Op: "clear", Err: err}
	}
	return nil
}
