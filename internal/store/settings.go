package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/leighmacdonald/cs2-friends/internal/network/encoding"
)

const settingsName = "settings"

var (
	ErrSettingsNotFound = errors.New("no saved settings")
	errSettingsLoad     = errors.New("failed to load settings")
	errSettingsSave     = errors.New("failed to save settings")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SettingsStore saves and loads an opaque JSON document.
type SettingsStore interface {
	Load(ctx context.Context) (json.RawMessage, error)
	Save(ctx context.Context, document json.RawMessage) error
}

// Settings is what the cli keeps between runs.
type Settings struct {
	Credential string   `json:"credential"`
	FriendIDs  []string `json:"friend_ids"`
}

func NewSettingsStore(database DBTX) *SQLSettings {
	return &SQLSettings{db: database}
}

// SQLSettings is a SettingsStore backed by the settings table.
type SQLSettings struct {
	db DBTX
}

func (s *SQLSettings) Load(ctx context.Context) (json.RawMessage, error) {
	var value string
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE name = ?`, settingsName).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}

		return nil, errors.Join(err, errSettingsLoad)
	}

	return json.RawMessage(value), nil
}

func (s *SQLSettings) Save(ctx context.Context, document json.RawMessage) error {
	if !json.Valid(document) {
		return errSettingsSave
	}

	const query = `INSERT INTO settings (name, value, updated_on) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_on = excluded.updated_on`

	if _, err := s.db.ExecContext(ctx, query, settingsName, string(document), time.Now().Unix()); err != nil {
		return errors.Join(err, errSettingsSave)
	}

	return nil
}

// LoadSettings decodes the stored document. A missing document results in empty settings.
func LoadSettings(ctx context.Context, store SettingsStore) (Settings, error) {
	document, errLoad := store.Load(ctx)
	if errLoad != nil {
		if errors.Is(errLoad, ErrSettingsNotFound) {
			return Settings{}, nil
		}

		return Settings{}, errLoad
	}

	settings, errDecode := encoding.UnmarshalJSON[Settings](bytes.NewReader(document))
	if errDecode != nil {
		return Settings{}, errors.Join(errDecode, errSettingsLoad)
	}

	return settings, nil
}

func SaveSettings(ctx context.Context, store SettingsStore, settings Settings) error {
	document, errEncode := json.Marshal(settings)
	if errEncode != nil {
		return errors.Join(errEncode, errSettingsSave)
	}

	return store.Save(ctx, document)
}
