package store

import (
	"database/sql"
	"time"
)

// Well-known token keys. The fallback identity used when the live session
// check fails consists of these two entries.
const (
	TokenAuth   = "authToken"
	TokenUserID = "userId"
)

// SaveToken stores or replaces a token value.
func (db *DB) SaveToken(key, value string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO tokens (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, value, now)
	return err
}

// Token returns the stored value for key, or "" if absent.
func (db *DB) Token(key string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM tokens WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// ClearTokens removes all stored tokens (sign-out).
func (db *DB) ClearTokens() error {
	_, err := db.Exec(`DELETE FROM tokens`)
	return err
}
