package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateInMemoryDB creates an in-memory SQLite database with the
// local_storage table. The pool is pinned to one connection because every
// new :memory: connection would otherwise see an empty database.
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS local_storage (
		key TEXT PRIMARY KEY,
		value TEXT
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create local_storage table: %v", err)
	}

	return db
}

// CreateLoggedInDB creates a database holding a stored session
func CreateLoggedInDB(t *testing.T, token, userID, userType string) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)

	values := map[string]string{
		"token":           token,
		"user_id":         userID,
		"user_type":       userType,
		"profile_picture": "/default-profile.jpg",
	}
	for key, value := range values {
		InsertValue(t, db, key, value)
	}
	return db
}

// InsertValue inserts a raw key into local_storage
func InsertValue(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	insertSQL := "INSERT INTO local_storage (key, value) VALUES (?, ?)"
	if _, err := db.Exec(insertSQL, key, value); err != nil {
		t.Fatalf("Failed to insert %s: %v", key, err)
	}
}
