package internal

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const createLocalStorageSQL = `
CREATE TABLE IF NOT EXISTS local_storage (
	key TEXT PRIMARY KEY,
	value TEXT
)`

// OpenDatabase opens (creating if needed) the client's SQLite database
func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates the local_storage table if it is missing
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(createLocalStorageSQL); err != nil {
		return fmt.Errorf("failed to create local_storage table: %w", err)
	}
	return nil
}

// QueryLocalStorage returns the key-value pairs whose key matches a LIKE pattern
func QueryLocalStorage(db *sql.DB, pattern string) ([]KeyValuePair, error) {
	query := "SELECT key, value FROM local_storage WHERE key LIKE ? AND value IS NOT NULL"
	rows, err := db.Query(query, pattern)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var pairs []KeyValuePair
	for rows.Next() {
		var pair KeyValuePair
		var value sql.NullString
		if err := rows.Scan(&pair.Key, &value); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if value.Valid {
			pair.Value = value.String
			pairs = append(pairs, pair)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return pairs, nil
}

// KeyValuePair represents a row of local_storage
type KeyValuePair struct {
	Key   string
	Value string
}
