package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ericfisherdev/replybot/internal/domain/model"
	"github.com/ericfisherdev/replybot/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SettingsStore = (*SettingsRepo)(nil)

// SettingsRepo is the SQLite implementation of the SettingsStore port.
// Secret values are encrypted with AES-256-GCM before write and decrypted after read.
type SettingsRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil disables secret settings.
}

// NewSettingsRepo creates a new SettingsRepo. key must be 32 bytes for AES-256-GCM,
// or nil, in which case reading or writing a secret setting returns
// model.ErrStorageUnavailable. Non-secret settings work without a key.
func NewSettingsRepo(db *DB, key []byte) *SettingsRepo {
	return &SettingsRepo{db: db, key: key}
}

// Get returns the stored values for keys. Missing keys are absent from the result.
func (r *SettingsRepo) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	if r == nil || r.db == nil {
		return nil, model.ErrStorageUnavailable
	}

	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	for _, k := range keys {
		if model.IsSecretSetting(k) && r.key == nil {
			return nil, fmt.Errorf("read %q: %w", k, model.ErrStorageUnavailable)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	query := `SELECT key, value, encrypted FROM settings WHERE key IN (` + placeholders + `)`

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w: %w", model.ErrStorage, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		var encrypted bool
		if err := rows.Scan(&key, &value, &encrypted); err != nil {
			return nil, fmt.Errorf("scan setting: %w: %w", model.ErrStorage, err)
		}

		if encrypted {
			plaintext, err := r.decrypt(value)
			if err != nil {
				return nil, fmt.Errorf("decrypt setting %q: %w: %w", key, model.ErrStorage, err)
			}
			value = plaintext
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w: %w", model.ErrStorage, err)
	}

	return values, nil
}

// Set stores or replaces every value in a single transaction.
func (r *SettingsRepo) Set(ctx context.Context, values map[string]string) error {
	if r == nil || r.db == nil {
		return model.ErrStorageUnavailable
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings write: %w: %w", model.ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `INSERT INTO settings (key, value, encrypted, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			encrypted = excluded.encrypted,
			updated_at = excluded.updated_at`

	for key, value := range values {
		stored := value
		secret := model.IsSecretSetting(key)
		if secret {
			stored, err = r.encrypt(value)
			if err != nil {
				return fmt.Errorf("write %q: %w", key, err)
			}
		}

		if _, err := tx.ExecContext(ctx, query, key, stored, secret); err != nil {
			return fmt.Errorf("set setting %q: %w: %w", key, model.ErrStorage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings: %w: %w", model.ErrStorage, err)
	}
	return nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded string
// containing the nonce (12 bytes) prepended to the ciphertext.
func (r *SettingsRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", model.ErrStorageUnavailable
	}

	gcm, err := newGCM(r.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *SettingsRepo) decrypt(encoded string) (string, error) {
	if r.key == nil {
		return "", model.ErrStorageUnavailable
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := newGCM(r.key)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
