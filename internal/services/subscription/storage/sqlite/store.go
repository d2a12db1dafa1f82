// Package sqlite provides a SQLite-backed subscription storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/fruitbox12/Subscription/internal/platform/errors"
	"github.com/fruitbox12/Subscription/internal/platform/id"
	sqlitemigrate "github.com/fruitbox12/Subscription/internal/platform/storage/sqlitemigrate"
	"github.com/fruitbox12/Subscription/internal/platform/timeouts"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/principal"
	"github.com/fruitbox12/Subscription/internal/services/subscription/storage"
	"github.com/fruitbox12/Subscription/internal/services/subscription/storage/sqlite/migrations"
)

// Store persists subscription state in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
	newID func() (string, error)
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite subscription store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.StorageOpen)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now, newID: id.NewID}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func (s *Store) timestamp() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

func (s *Store) nextID() (string, error) {
	if s.newID == nil {
		return id.NewID()
	}
	return s.newID()
}

// IsContractAdmin reports whether caller is the stored admin. It returns
// storage.ErrAdminNotSet before the admin is bootstrapped.
func (s *Store) IsContractAdmin(ctx context.Context, caller principal.ID) (bool, error) {
	admin, err := s.GetContractAdmin(ctx)
	if err != nil {
		return false, err
	}
	return admin == caller, nil
}

// GetContractAdmin returns the stored admin.
func (s *Store) GetContractAdmin(ctx context.Context) (principal.ID, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	var address string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT address FROM contract_admin WHERE singleton = 1`).Scan(&address)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrAdminNotSet
		}
		return "", fmt.Errorf("get contract admin: %w", err)
	}
	return principal.ID(address), nil
}

// SetContractAdminIfUnset stores admin unless an admin already exists.
func (s *Store) SetContractAdminIfUnset(ctx context.Context, admin principal.ID) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	if admin.IsZero() {
		return false, fmt.Errorf("contract admin is required")
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO contract_admin (singleton, address, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(singleton) DO NOTHING`,
		string(admin),
		toMillis(s.timestamp()),
	)
	if err != nil {
		return false, errors.Wrap(errors.CodeStorageWrite, "set contract admin", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set contract admin: %w", err)
	}
	return affected == 1, nil
}

func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if stderrors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_CHECK:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "constraint failed")
}

func whereClause(base string, extra string) string {
	switch {
	case base == "" && extra == "":
		return ""
	case base == "":
		return " WHERE " + extra
	case extra == "":
		return " WHERE " + base
	default:
		return " WHERE " + base + " AND " + extra
	}
}

var _ storage.Store = (*Store)(nil)
