package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/domain/repository"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// LoadAll returns every stored record in first-insert order.
func (r *UserRepository) LoadAll(ctx context.Context) ([]entity.UserRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, phone, password_hash, created_at, created_by, customers
		FROM users
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []entity.UserRecord
	for rows.Next() {
		var rec entity.UserRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Phone, &rec.PasswordHash,
			&rec.CreatedAt, &rec.CreatedBy, &rec.Customers); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if rec.Customers == nil {
			rec.Customers = []string{}
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

// Save upserts rec by id; seq is only assigned on first insert.
func (r *UserRepository) Save(ctx context.Context, rec entity.UserRecord) error {
	customers := rec.Customers
	if customers == nil {
		customers = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, phone, password_hash, created_at, created_by, customers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			password_hash = EXCLUDED.password_hash,
			created_at = EXCLUDED.created_at,
			created_by = EXCLUDED.created_by,
			customers = EXCLUDED.customers
	`, rec.ID, rec.Name, rec.Email, rec.Phone, rec.PasswordHash, rec.CreatedAt.UTC(), rec.CreatedBy, customers)
	if err != nil {
		return fmt.Errorf("save user %q: %w", rec.ID, err)
	}
	return nil
}

// Close releases the pool.
func (r *UserRepository) Close() error {
	r.pool.Close()
	return nil
}

var _ repository.UserStore = (*UserRepository)(nil)
