// Package sqlite provides the SQLite-backed user store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/domain/repository"
	"github.com/oksasatya/go-user-registry/internal/infrastructure/sqlite/migrations"
)

// dsnPragmas are applied by modernc.org/sqlite to every pooled connection.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"

// Store persists user records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the database at path, creating parent directories, and applies
// embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	dsn := cleanPath + dsnPragmas
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func applyMigrations(sqlDB *sql.DB) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}
	driver, err := sqlitemigrate.WithInstance(sqlDB, &sqlitemigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadAll returns every record in first-insert order.
func (s *Store) LoadAll(ctx context.Context) ([]entity.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, name, email, phone, password_hash, created_at, created_by, customers
		FROM users
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.UserRecord
	for rows.Next() {
		var (
			rec       entity.UserRecord
			createdAt int64
			customers string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Phone, &rec.PasswordHash,
			&createdAt, &rec.CreatedBy, &customers); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		rec.CreatedAt = time.Unix(0, createdAt).UTC()
		if err := json.Unmarshal([]byte(customers), &rec.Customers); err != nil {
			return nil, fmt.Errorf("decode customers for %q: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

// Save upserts rec by id. Rewriting an existing row keeps its position.
func (s *Store) Save(ctx context.Context, rec entity.UserRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	customers := rec.Customers
	if customers == nil {
		customers = []string{}
	}
	encoded, err := json.Marshal(customers)
	if err != nil {
		return fmt.Errorf("encode customers: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx, `
		INSERT INTO users (id, name, email, phone, password_hash, created_at, created_by, customers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   email = excluded.email,
		   phone = excluded.phone,
		   password_hash = excluded.password_hash,
		   created_at = excluded.created_at,
		   created_by = excluded.created_by,
		   customers = excluded.customers`,
		rec.ID, rec.Name, rec.Email, rec.Phone, rec.PasswordHash,
		rec.CreatedAt.UTC().UnixNano(), rec.CreatedBy, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("save user %q: %w", rec.ID, err)
	}
	return nil
}

var _ repository.UserStore = (*Store)(nil)
