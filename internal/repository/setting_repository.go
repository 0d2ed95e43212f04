package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// SettingRepo persists site settings as key -> opaque JSON value rows.
type SettingRepo struct{ DB *sql.DB }

func NewSettingRepo(db *sql.DB) *SettingRepo { return &SettingRepo{DB: db} }

// All returns every setting flattened into a single key -> value map.
func (r *SettingRepo) All(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT `key`, value FROM site_settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]json.RawMessage{}
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = json.RawMessage(v)
	}
	return out, rows.Err()
}

// Get returns the value for one key, or ErrNotFound when the key is absent.
func (r *SettingRepo) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var v []byte
	err := r.DB.QueryRowContext(ctx,
		"SELECT value FROM site_settings WHERE `key` = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(v), nil
}

// Upsert writes every supplied key in one transaction: insert when absent,
// overwrite value and refresh updated_at otherwise.
func (r *SettingRepo) Upsert(ctx context.Context, values map[string]json.RawMessage) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for k, v := range values {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO site_settings (`key`, value) VALUES (?,?) "+
				"ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = CURRENT_TIMESTAMP",
			k, []byte(v)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
