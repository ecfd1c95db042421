package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// OverrideStore persists explicit user action choices keyed by
// (account_email, message_id). It is the authoritative record consulted by
// action resolution; re-setting the same pair is a no-op in effect.
type OverrideStore struct {
	db *sql.DB
}

// NewOverrideStore creates an override store from a base store
func NewOverrideStore(store *Store) *OverrideStore {
	if store == nil {
		return nil
	}
	return &OverrideStore{db: store.DB()}
}

// Set upserts the chosen action for (account_email, message_id) and appends
// an audit row. The upsert makes repeated identical sets idempotent.
func (s *OverrideStore) Set(ctx context.Context, accountEmail, messageID, actionID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("override store not initialized")
	}
	if strings.TrimSpace(accountEmail) == "" || strings.TrimSpace(messageID) == "" || strings.TrimSpace(actionID) == "" {
		return fmt.Errorf("invalid override inputs")
	}
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO action_overrides(account_email, message_id, action_id, updated_at)
VALUES(?,?,?,?)
ON CONFLICT(account_email, message_id) DO UPDATE SET action_id=excluded.action_id, updated_at=excluded.updated_at;
`, accountEmail, messageID, actionID, now)
	if err != nil {
		return err
	}
	// History insert is best-effort; the override itself is already durable
	_, _ = s.db.ExecContext(ctx, `INSERT INTO override_history(account_email, message_id, action_id, recorded_at)
VALUES(?,?,?,?)`, accountEmail, messageID, actionID, now)
	return nil
}

// Get returns the chosen action for (account_email, message_id) if present
func (s *OverrideStore) Get(ctx context.Context, accountEmail, messageID string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, fmt.Errorf("override store not initialized")
	}
	var out string
	err := s.db.QueryRowContext(ctx, `SELECT action_id FROM action_overrides WHERE account_email=? AND message_id=?`, accountEmail, messageID).Scan(&out)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

// Delete removes the override for (account_email, message_id). Resolution
// never calls this itself; stale overrides are left in place and skipped.
func (s *OverrideStore) Delete(ctx context.Context, accountEmail, messageID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("override store not initialized")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM action_overrides WHERE account_email=? AND message_id=?`, accountEmail, messageID)
	return err
}
