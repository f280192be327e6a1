package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists jobs and usage counters in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and bootstraps the
// schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent workers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id TEXT NOT NULL,
			job_type TEXT NOT NULL,
			status TEXT NOT NULL,
			input_uri TEXT NOT NULL,
			result TEXT,
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_jobs_tenant ON jobs(tenant_id, id);

		CREATE TABLE IF NOT EXISTS usage (
			tenant_id TEXT NOT NULL,
			month TEXT NOT NULL,
			docs INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (tenant_id, month)
		)
	`); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, job *Job) error {
	now := time.Now().UTC()
	job.Status = StatusQueued
	job.CreatedAt = now
	job.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (tenant_id, job_type, status, input_uri, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', ?, ?)
	`, job.TenantID, string(job.Type), string(job.Status), job.InputURI, now, now)
	if err != nil {
		return err
	}
	job.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, tenantID string, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, job_type, status, input_uri, result, error, created_at, updated_at
		FROM jobs WHERE id = ? AND tenant_id = ?
	`, id, tenantID)
	return scanJob(row)
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, job_type, status, input_uri, result, error, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)
	return scanJob(row)
}

func scanJob(row *sql.Row) (*Job, error) {
	var job Job
	var jobType, status string
	var result sql.NullString
	if err := row.Scan(&job.ID, &job.TenantID, &jobType, &status, &job.InputURI,
		&result, &job.Error, &job.CreatedAt, &job.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	job.Type = Type(jobType)
	job.Status = Status(status)
	if result.Valid && result.String != "" {
		job.Result = json.RawMessage(result.String)
	}
	return &job, nil
}

func (s *SQLiteStore) List(ctx context.Context, tenantID string, limit, offset int) ([]Summary, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jobs WHERE tenant_id = ?`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_type, status, input_uri, created_at
		FROM jobs WHERE tenant_id = ?
		ORDER BY id DESC LIMIT ? OFFSET ?
	`, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]Summary, 0, limit)
	for rows.Next() {
		var it Summary
		var jobType, status string
		if err := rows.Scan(&it.ID, &jobType, &status, &it.InputURI, &it.CreatedAt); err != nil {
			return nil, 0, err
		}
		it.Type = Type(jobType)
		it.Status = Status(status)
		items = append(items, it)
	}
	return items, total, rows.Err()
}

func (s *SQLiteStore) SetRunning(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, StatusRunning, nil, "")
}

func (s *SQLiteStore) SetResult(ctx context.Context, id int64, result json.RawMessage) error {
	return s.setStatus(ctx, id, StatusDone, result, "")
}

func (s *SQLiteStore) SetFailed(ctx context.Context, id int64, errMsg string) error {
	return s.setStatus(ctx, id, StatusFailed, nil, errMsg)
}

func (s *SQLiteStore) setStatus(ctx context.Context, id int64, status Status, result json.RawMessage, errMsg string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, result = ?, error = ?, updated_at = ? WHERE id = ?
	`, string(status), nullable(result), errMsg, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(result json.RawMessage) interface{} {
	if len(result) == 0 {
		return nil
	}
	return string(result)
}

func (s *SQLiteStore) ReserveQuota(ctx context.Context, tenantID, month string, limit int) error {
	// Single-connection pool makes the read-check-write race-free.
	var docs int
	err := s.db.QueryRowContext(ctx,
		`SELECT docs FROM usage WHERE tenant_id = ? AND month = ?`, tenantID, month).Scan(&docs)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if docs+1 > limit {
		return ErrQuotaExceeded
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO usage (tenant_id, month, docs) VALUES (?, ?, 1)
		ON CONFLICT (tenant_id, month) DO UPDATE SET docs = docs + 1
	`, tenantID, month)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
