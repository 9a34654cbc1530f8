package repository

import (
	"context"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
)

// UserStore is the durable record store behind the registry.
type UserStore interface {
	// LoadAll returns every persisted record, or none for a fresh store.
	LoadAll(ctx context.Context) ([]entity.UserRecord, error)
	// Save durably writes one record, replacing any previous version.
	Save(ctx context.Context, rec entity.UserRecord) error
	Close() error
}
