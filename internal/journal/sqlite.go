package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	logx "countdown/pkg/logx"
)

//go:embed migrations.sql
var migrations string

type sqliteStore struct {
	log logx.Logger

	// mu guards db against Close racing a late Append.
	mu sync.RWMutex
	db *sql.DB
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return &sqliteStore{log: log, db: db}, nil
}

func (s *sqliteStore) Append(ctx context.Context, r Record) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries(tick_id, seq, at, kind, status_code, err, days, clock, reached, took_ms)
		 VALUES(?,?,?,?,?,?,?,?,?,?)`,
		r.TickID, int64(r.Seq), r.At.UTC().Format(time.RFC3339Nano), r.Kind, nullInt(r.StatusCode), nullStr(r.Error),
		r.Days, r.Clock, r.Reached, r.TookMS,
	)
	return err
}

func (s *sqliteStore) Recent(ctx context.Context, n int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tick_id, seq, at, kind, status_code, err, days, clock, reached, took_ms
		 FROM deliveries ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r      Record
			seq    int64
			at     string
			status sql.NullInt64
			errStr sql.NullString
		)
		if err := rows.Scan(&r.TickID, &seq, &at, &r.Kind, &status, &errStr, &r.Days, &r.Clock, &r.Reached, &r.TookMS); err != nil {
			return nil, err
		}
		r.Seq = uint64(seq)
		r.At, _ = time.Parse(time.RFC3339Nano, at)
		r.StatusCode = int(status.Int64)
		r.Error = errStr.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func nullInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
