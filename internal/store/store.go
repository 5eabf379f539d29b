package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adityanavgire01/walkie-talkie/internal/backend"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS prefs (
	key       TEXT PRIMARY KEY,
	value     TEXT NOT NULL,
	updatedAt REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS conversations (
	position       INTEGER PRIMARY KEY,
	id             INTEGER NOT NULL,
	userText       TEXT NOT NULL,
	aiText         TEXT NOT NULL,
	inputAudioUrl  TEXT NOT NULL,
	outputAudioUrl TEXT NOT NULL,
	cachedAt       REAL NOT NULL
);
`

const (
	keyTheme      = "theme"
	keySize       = "settings.size"
	keyCustom     = "settings.custom"
	keyUseContext = "settings.use_context"
)

// Store provides read-write access to the local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between the TUI and its commands.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Theme returns the persisted theme, or DefaultTheme if none was saved.
func (s *Store) Theme() (string, error) {
	v, ok, err := s.get(keyTheme)
	if err != nil {
		return DefaultTheme, err
	}
	if !ok || (v != ThemeDark && v != ThemeLight) {
		return DefaultTheme, nil
	}
	return v, nil
}

// SetTheme persists the theme preference.
func (s *Store) SetTheme(theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return fmt.Errorf("unknown theme %q (want %s or %s)", theme, ThemeDark, ThemeLight)
	}
	return s.set(keyTheme, theme)
}

// SaveSettings stores the last confirmed settings.
func (s *Store) SaveSettings(snap SettingsSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := toUnix(time.Now())
	for key, value := range map[string]string{
		keySize:       strconv.Itoa(snap.Size),
		keyCustom:     strconv.FormatBool(snap.Custom),
		keyUseContext: strconv.FormatBool(snap.UseContext),
	} {
		if _, err := tx.Exec(upsertPref, key, value, now); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Settings returns the cached settings, or nil if none were saved yet.
func (s *Store) Settings() (*SettingsSnapshot, error) {
	rows, err := s.db.Query(`SELECT key, value, updatedAt FROM prefs WHERE key IN (?, ?, ?)`,
		keySize, keyCustom, keyUseContext)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	var snap SettingsSnapshot
	found := false
	for rows.Next() {
		var key, value string
		var updatedAt float64
		if err := rows.Scan(&key, &value, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		found = true
		snap.UpdatedAt = timeFromUnix(updatedAt)
		switch key {
		case keySize:
			snap.Size, _ = strconv.Atoi(value)
		case keyCustom:
			snap.Custom, _ = strconv.ParseBool(value)
		case keyUseContext:
			snap.UseContext, _ = strconv.ParseBool(value)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &snap, nil
}

// ReplaceConversations swaps the cached list for records, keeping order.
func (s *Store) ReplaceConversations(records []backend.Conversation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM conversations`); err != nil {
		return fmt.Errorf("clear conversations: %w", err)
	}

	now := toUnix(time.Now())
	for i, c := range records {
		if _, err := tx.Exec(`
			INSERT INTO conversations (position, id, userText, aiText, inputAudioUrl, outputAudioUrl, cachedAt)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, i, c.ID, c.UserText, c.AIText, c.InputAudioURL, c.OutputAudioURL, now); err != nil {
			return fmt.Errorf("insert conversation %d: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// Conversations returns the cached list, oldest first.
func (s *Store) Conversations() ([]backend.Conversation, error) {
	rows, err := s.db.Query(`
		SELECT id, userText, aiText, inputAudioUrl, outputAudioUrl
		FROM conversations
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var records []backend.Conversation
	for rows.Next() {
		var c backend.Conversation
		if err := rows.Scan(&c.ID, &c.UserText, &c.AIText, &c.InputAudioURL, &c.OutputAudioURL); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		records = append(records, c)
	}
	return records, rows.Err()
}

const upsertPref = `
	INSERT INTO prefs (key, value, updatedAt) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = excluded.updatedAt
`

func (s *Store) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) set(key, value string) error {
	if _, err := s.db.Exec(upsertPref, key, value, toUnix(time.Now())); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func toUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
