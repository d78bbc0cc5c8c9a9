package store

import (
	"database/sql"
	"time"
)

// CacheSetting stores a settings blob (JSON text) under the given key.
// Used for backend-served configuration like banner image URIs.
func (db *DB) CacheSetting(key, valueJSON string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO settings (key, value_json, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value_json = excluded.value_json,
			fetched_at = excluded.fetched_at`,
		key, valueJSON, now)
	return err
}

// CachedSetting returns the cached blob and its fetch time. A missing key
// returns ok=false instead of an error.
func (db *DB) CachedSetting(key string) (valueJSON string, fetchedAt time.Time, ok bool, err error) {
	var ms int64
	err = db.QueryRow(`SELECT value_json, fetched_at FROM settings WHERE key = ?`, key).
		Scan(&valueJSON, &ms)
	if err == sql.ErrNoRows {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, err
	}
	return valueJSON, time.UnixMilli(ms), true, nil
}
