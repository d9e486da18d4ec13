package kv

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// MySQLStore implements Store on a single kv_entries table. The
// conditional set is one INSERT ... ON DUPLICATE KEY UPDATE statement
// so MySQL's row lock provides the atomicity; there is no client-side
// check-then-set window.
//
// Expired rows are overwritten in place by the next SetIfAbsent for the
// same key; rows for keys never touched again are removed by an
// opportunistic bounded DELETE on mutating calls.
type MySQLStore struct {
	db *sql.DB

	// OpTimeout bounds each statement. Zero uses a 2s default. A stalled
	// server then surfaces as an error instead of hanging the caller, so
	// the gates can degrade to their fallback store.
	OpTimeout time.Duration

	sweepMu   sync.Mutex
	lastSweep time.Time
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	s.maybeSweep(ctx)

	// Assignment order matters: v reads the pre-update expires_at, so it
	// must be assigned before expires_at is.
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO kv_entries (k, v, expires_at)
		 VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE
		   v          = IF(expires_at IS NOT NULL AND expires_at <= NOW(3), VALUES(v), v),
		   expires_at = IF(expires_at IS NOT NULL AND expires_at <= NOW(3), VALUES(expires_at), expires_at)`,
		key, value, nullableExpiry(ttl),
	)
	if err != nil {
		return false, err
	}

	// 1 = fresh insert, 2 = expired row reclaimed, 0 = live row untouched.
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MySQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var v string
	var expires sql.NullTime

	err := s.db.QueryRowContext(
		ctx,
		`SELECT v, expires_at FROM kv_entries WHERE k = ?`,
		key,
	).Scan(&v, &expires)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if expires.Valid && !time.Now().UTC().Before(expires.Time.UTC()) {
		return "", false, nil
	}
	return v, true, nil
}

func (s *MySQLStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	s.maybeSweep(ctx)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO kv_entries (k, v, expires_at)
		 VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE v = VALUES(v), expires_at = VALUES(expires_at)`,
		key, value, nullableExpiry(ttl),
	)
	return err
}

func (s *MySQLStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var expires sql.NullTime

	err := s.db.QueryRowContext(
		ctx,
		`SELECT expires_at FROM kv_entries WHERE k = ?`,
		key,
	).Scan(&expires)

	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if !expires.Valid {
		return 0, false, nil
	}

	remaining := expires.Time.UTC().Sub(time.Now().UTC())
	if remaining <= 0 {
		return 0, false, nil
	}
	return remaining, true, nil
}

func (s *MySQLStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE k = ?`, key)
	return err
}

func (s *MySQLStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.OpTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// maybeSweep deletes a bounded batch of expired rows at most once per
// minute. Failures are ignored; the next Get for an expired key still
// reports absence, so the sweep is purely about reclaiming space.
func (s *MySQLStore) maybeSweep(ctx context.Context) {
	s.sweepMu.Lock()
	if time.Since(s.lastSweep) < time.Minute {
		s.sweepMu.Unlock()
		return
	}
	s.lastSweep = time.Now()
	s.sweepMu.Unlock()

	_, _ = s.db.ExecContext(
		ctx,
		`DELETE FROM kv_entries WHERE expires_at IS NOT NULL AND expires_at <= NOW(3) LIMIT 1000`,
	)
}

func nullableExpiry(ttl time.Duration) sql.NullTime {
	if ttl <= 0 {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: time.Now().UTC().Add(ttl), Valid: true}
}
