package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/neomorfeo/parkiq/internal/domain"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// AuditStore implements domain.AuditStore using SQLite. The table is
// append-only: records are inserted after successful parks and listed
// for display, never read back into active parking state.
type AuditStore struct {
	db *sql.DB
}

// Compile-time check: AuditStore implements domain.AuditStore.
var _ domain.AuditStore = (*AuditStore)(nil)

// New opens a SQLite database, runs migrations, and returns a ready store.
func New(dataSourceName string) (*AuditStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and
// returns a ready store. Use this when the *sql.DB has been
// pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*AuditStore, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &AuditStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *AuditStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for use by other
// adapters (e.g., river).
func (s *AuditStore) DB() *sql.DB {
	return s.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

// Append inserts one audit record.
func (s *AuditStore) Append(ctx context.Context, r domain.AuditRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (token_id, slot_id, registration, class, entry_time)
		 VALUES (?, ?, ?, ?, ?)`,
		r.TokenID, r.SlotID, r.Registration, string(r.Class),
		r.EntryTime.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}
	return nil
}

// List returns audit records newest first. A limit of 0 means no limit.
func (s *AuditStore) List(ctx context.Context, limit, offset int) ([]domain.AuditRecord, error) {
	query := `SELECT token_id, slot_id, registration, class, entry_time
	          FROM audit_log ORDER BY id DESC`
	var args []any

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	} else if offset > 0 {
		// SQLite requires a LIMIT clause before OFFSET; -1 means unlimited.
		query += ` LIMIT -1`
	}

	if offset > 0 {
		query += ` OFFSET ?`
		args = append(args, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit records: %w", err)
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var r domain.AuditRecord
		var class, entryTime string

		if err := rows.Scan(&r.TokenID, &r.SlotID, &r.Registration, &class, &entryTime); err != nil {
			return nil, fmt.Errorf("scanning audit record: %w", err)
		}

		r.Class = domain.VehicleClass(class)
		r.EntryTime, _ = time.Parse(timeFormat, entryTime)

		records = append(records, r)
	}

	return records, rows.Err()
}
