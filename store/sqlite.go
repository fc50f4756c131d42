package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tbxark/homi/types"
	_ "modernc.org/sqlite"
)

var _ RequestStore = (*SQLiteRequestStore)(nil)

type SQLiteRequestStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRequestStore(dbPath string) (*SQLiteRequestStore, error) {
	path := filepath.Clean(dbPath)
	if path == "" || path == "." {
		return nil, fmt.Errorf("invalid sqlite db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir failed: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite failed: %w", err)
	}

	s := &SQLiteRequestStore{db: db, now: time.Now}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteRequestStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteRequestStore) initSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS requests (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	raw_input TEXT NOT NULL,
	task_type TEXT NOT NULL,
	location TEXT NOT NULL,
	budget TEXT NOT NULL,
	timeline TEXT NOT NULL,
	task_specific TEXT NOT NULL,
	skills_json TEXT NOT NULL,
	duration TEXT NOT NULL,
	suggested_price REAL NOT NULL,
	description TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at_unix_ms INTEGER NOT NULL,
	updated_at_unix_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_user_created ON requests(user_id, created_at_unix_ms DESC);`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("init requests schema failed: %w", err)
	}
	return nil
}

func (s *SQLiteRequestStore) Create(ctx context.Context, req *types.CompletedRequest) error {
	if err := checkCreate(req); err != nil {
		return err
	}
	skills, err := sonic.MarshalString(req.Skills)
	if err != nil {
		return fmt.Errorf("marshal skills failed: %w", err)
	}
	const insert = `
INSERT INTO requests (
	id, user_id, raw_input, task_type, location, budget, timeline, task_specific,
	skills_json, duration, suggested_price, description, status,
	created_at_unix_ms, updated_at_unix_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	_, err = s.db.ExecContext(ctx, insert,
		req.ID, req.UserID, req.RawInput, req.TaskType, req.Location, req.Budget, req.Timeline, req.TaskSpecific,
		skills, req.Duration, req.SuggestedPrice, req.Description, string(req.Status),
		timeToUnixMS(req.CreatedAt), timeToUnixMS(req.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("insert request failed: %w", err)
	}
	return nil
}

const selectColumns = `
SELECT
	id, user_id, raw_input, task_type, location, budget, timeline, task_specific,
	skills_json, duration, suggested_price, description, status,
	created_at_unix_ms, updated_at_unix_ms
FROM requests`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*types.CompletedRequest, error) {
	var (
		req                      types.CompletedRequest
		skills, status           string
		createdAtMS, updatedAtMS int64
	)
	err := row.Scan(
		&req.ID, &req.UserID, &req.RawInput, &req.TaskType, &req.Location, &req.Budget, &req.Timeline, &req.TaskSpecific,
		&skills, &req.Duration, &req.SuggestedPrice, &req.Description, &status,
		&createdAtMS, &updatedAtMS,
	)
	if err != nil {
		return nil, err
	}
	if err := sonic.UnmarshalString(skills, &req.Skills); err != nil {
		return nil, fmt.Errorf("unmarshal skills failed: %w", err)
	}
	req.Status = types.RequestStatus(status)
	req.CreatedAt = unixMSToTime(createdAtMS)
	req.UpdatedAt = unixMSToTime(updatedAtMS)
	return &req, nil
}

func (s *SQLiteRequestStore) Get(ctx context.Context, id string) (*types.CompletedRequest, error) {
	req, err := scanRequest(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query request failed: %w", err)
	}
	return req, nil
}

func (s *SQLiteRequestStore) List(ctx context.Context, userID string) ([]*types.CompletedRequest, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE user_id = ? ORDER BY created_at_unix_ms DESC, id ASC;`, userID)
	if err != nil {
		return nil, fmt.Errorf("query requests failed: %w", err)
	}
	defer rows.Close()

	out := make([]*types.CompletedRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request failed: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests failed: %w", err)
	}
	return out, nil
}

func (s *SQLiteRequestStore) Update(ctx context.Context, id string, status types.RequestStatus) (*types.CompletedRequest, error) {
	if err := checkStatus(status); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE requests SET status = ?, updated_at_unix_ms = ? WHERE id = ?;`,
		string(status), s.now().UTC().UnixMilli(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update request failed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func timeToUnixMS(ts time.Time) int64 {
	if ts.IsZero() {
		return 0
	}
	return ts.UTC().UnixMilli()
}

func unixMSToTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
