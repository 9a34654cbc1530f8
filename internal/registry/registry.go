// Package registry holds the authoritative in-process set of users.
//
// A single mutex covers the whole collection. Every operation, including the
// durability write performed by Insert and Update, runs inside that critical
// section, so uniqueness checks and mutations can never interleave.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/domain/repository"
	"github.com/oksasatya/go-user-registry/pkg/apperror"
)

// DefaultWriteTimeout bounds a single durability write.
const DefaultWriteTimeout = 5 * time.Second

var (
	ErrNotFound    = apperror.New(apperror.KindNotFound, apperror.CodeUserNotFound, "user not found")
	ErrDuplicateID = apperror.New(apperror.KindAlreadyExists, apperror.CodeUserDuplicateID, "user id already taken")
)

// Registry maps user ids to aggregates. Callers only ever see clones.
type Registry struct {
	mu           sync.Mutex
	store        repository.UserStore
	users        map[string]*entity.User
	order        []string
	writeTimeout time.Duration
	logger       *logrus.Logger
}

type Option func(*Registry)

func WithWriteTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.writeTimeout = d
		}
	}
}

func WithLogger(l *logrus.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// Load initializes the registry from the store. An empty store yields an
// empty registry.
func Load(ctx context.Context, store repository.UserStore, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, apperror.Internal(apperror.CodeStoreLoadFailed, "load users", fmt.Errorf("store is required"))
	}
	r := &Registry{
		store:        store,
		users:        make(map[string]*entity.User),
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logrus.New()
		r.logger.SetLevel(logrus.WarnLevel)
	}

	recs, err := store.LoadAll(ctx)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeStoreLoadFailed, "load users", err)
	}
	for _, rec := range recs {
		u, err := entity.Restore(rec)
		if err != nil {
			return nil, err
		}
		if _, dup := r.users[u.ID()]; dup {
			return nil, apperror.Internal(apperror.CodeRecordMalformed, "load users",
				fmt.Errorf("duplicate stored id %q", u.ID()))
		}
		r.users[u.ID()] = u
		r.order = append(r.order, u.ID())
	}
	r.logger.WithField("users", len(r.order)).Info("user registry loaded")
	return r, nil
}

// persist runs one bounded durability write. The caller's cancellation is
// ignored: once a mutation reaches the registry it completes or fails.
func (r *Registry) persist(ctx context.Context, u *entity.User) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
	defer cancel()
	if err := r.store.Save(wctx, u.Record()); err != nil {
		r.logger.WithError(err).WithField("user_id", u.ID()).Error("user store write failed")
		return apperror.Internal(apperror.CodeStoreWriteFailed, "persist user", err)
	}
	return nil
}

// Insert adds u if its id is free. The uniqueness check, the durability write
// and the in-memory insert happen under one lock; if the write fails nothing
// is added.
func (r *Registry) Insert(ctx context.Context, u *entity.User) error {
	if u == nil {
		return apperror.Invalid("user", "user is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[u.ID()]; exists {
		return ErrDuplicateID
	}
	stored := u.Clone()
	if err := r.persist(ctx, stored); err != nil {
		return err
	}
	r.users[stored.ID()] = stored
	r.order = append(r.order, stored.ID())
	return nil
}

// Find returns a snapshot of the user with the given id.
func (r *Registry) Find(id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[entity.NormalizeID(id)]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

// Update applies mutate to a copy of the stored user, persists the copy and
// only then replaces the stored user. A mutation or write error leaves the
// stored user untouched. The returned user is the post-mutation snapshot.
func (r *Registry) Update(ctx context.Context, id string, mutate func(*entity.User) error) (*entity.User, error) {
	if mutate == nil {
		return nil, apperror.Invalid("mutation", "mutation is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[entity.NormalizeID(id)]
	if !ok {
		return nil, ErrNotFound
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if next.ID() != current.ID() {
		return nil, apperror.Internal(apperror.CodeRecordMalformed, "update user", fmt.Errorf("mutation changed id"))
	}
	if err := r.persist(ctx, next); err != nil {
		return nil, err
	}
	r.users[next.ID()] = next
	return next.Clone(), nil
}

// List returns snapshots of all users in registry order.
func (r *Registry) List() []*entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*entity.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.users[id].Clone())
	}
	return out
}

// Exists reports whether id is registered.
func (r *Registry) Exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.users[entity.NormalizeID(id)]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
