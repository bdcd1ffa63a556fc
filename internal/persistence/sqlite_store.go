// Package persistence keeps the relational audit trail of batch submissions.
// It is best-effort bookkeeping next to the pipeline's own job store: a write
// failure here is logged by the caller and never fails the batch.
package persistence

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Record is one audit row describing a batch submission.
type Record struct {
	BatchID           string
	FileName          string
	SelectedLanguages []string
	Status            string
	UserID            string
	DeletionDate      time.Time
	IsDeleted         bool
	CreatedAt         time.Time
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (s *SQLiteStore) CreateRecord(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	langsJSON, err := json.Marshal(rec.SelectedLanguages)
	if err != nil {
		return err
	}
	createdAt := rec.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO translations (
			batch_id, file_name, selected_languages, status, user_id, deletion_date, is_deleted, created_at
		) VALUES (?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(batch_id) DO UPDATE SET
			file_name=excluded.file_name,
			selected_languages=excluded.selected_languages,
			status=excluded.status,
			user_id=excluded.user_id,
			deletion_date=excluded.deletion_date`,
		rec.BatchID,
		rec.FileName,
		string(langsJSON),
		rec.Status,
		rec.UserID,
		rec.DeletionDate.UTC(),
		createdAt,
	)
	return err
}

func (s *SQLiteStore) UpdateStatusByBatch(ctx context.Context, batchID string, status string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE translations SET status = ? WHERE batch_id = ?`,
		status,
		batchID,
	)
	return err
}

func (s *SQLiteStore) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT batch_id, file_name, selected_languages, status, user_id, deletion_date, is_deleted, created_at
		 FROM translations
		 WHERE user_id = ? AND is_deleted = 0
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]Record, 0)
	for rows.Next() {
		item, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// ExpiredBatchIDs returns ids of batches whose deletion date has passed and
// that have not yet been swept.
func (s *SQLiteStore) ExpiredBatchIDs(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT batch_id FROM translations WHERE is_deleted = 0 AND deletion_date <= ?`,
		now.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ret = append(ret, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// MarkDeleted flags a swept batch. The row stays for audit history.
func (s *SQLiteStore) MarkDeleted(ctx context.Context, batchID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE translations SET is_deleted = 1 WHERE batch_id = ?`,
		batchID,
	)
	return err
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var item Record
	var langsJSON string
	var isDeleted int
	if err := rows.Scan(
		&item.BatchID,
		&item.FileName,
		&langsJSON,
		&item.Status,
		&item.UserID,
		&item.DeletionDate,
		&isDeleted,
		&item.CreatedAt,
	); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(langsJSON), &item.SelectedLanguages); err != nil {
		return Record{}, err
	}
	item.IsDeleted = isDeleted == 1
	return item, nil
}
