package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/infrastructure/memory"
	"github.com/oksasatya/go-user-registry/pkg/apperror"
)

func newUser(t *testing.T, id string) *entity.User {
	t.Helper()
	u, err := entity.NewUser(entity.NewUserInput{ID: id, Name: "Valid Name", Email: id + "@example.com", CreatedBy: "test"}, nil)
	require.NoError(t, err)
	return u
}

func newRegistry(t *testing.T, store *memory.Store) *Registry {
	t.Helper()
	r, err := Load(context.Background(), store)
	require.NoError(t, err)
	return r
}

func TestLoadEmptyStore(t *testing.T) {
	r := newRegistry(t, memory.NewStore())
	require.Equal(t, 0, r.Len())
	require.Empty(t, r.List())
}

func TestLoadRestoresRecordsInStoreOrder(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := memory.NewStore(
		entity.UserRecord{ID: "second", Name: "Second", Email: "s@x.io", CreatedAt: base.Add(time.Minute)},
		entity.UserRecord{ID: "first", Name: "First", Email: "f@x.io", CreatedAt: base},
	)
	r := newRegistry(t, store)

	list := r.List()
	require.Len(t, list, 2)
	require.Equal(t, "first", list[0].ID())
	require.Equal(t, "second", list[1].ID())
}

func TestLoadRejectsMalformedRecord(t *testing.T) {
	store := memory.NewStore(entity.UserRecord{ID: "Bad ID", CreatedAt: time.Now()})
	_, err := Load(context.Background(), store)
	require.Equal(t, apperror.KindInternal, apperror.KindOf(err))
}

func TestInsertAndFind(t *testing.T) {
	store := memory.NewStore()
	r := newRegistry(t, store)

	require.NoError(t, r.Insert(context.Background(), newUser(t, "alice")))
	require.Equal(t, 1, store.Saves())
	_, ok := store.Get("alice")
	require.True(t, ok)

	u, err := r.Find("alice")
	require.NoError(t, err)
	require.Equal(t, "alice", u.ID())

	u, err = r.Find("ALICE")
	require.NoError(t, err)
	require.Equal(t, "alice", u.ID())

	require.True(t, r.Exists("alice"))
	require.False(t, r.Exists("bob"))
}

func TestInsertDuplicate(t *testing.T) {
	r := newRegistry(t, memory.NewStore())
	require.NoError(t, r.Insert(context.Background(), newUser(t, "alice")))

	err := r.Insert(context.Background(), newUser(t, "alice"))
	require.ErrorIs(t, err, ErrDuplicateID)
	require.ErrorIs(t, err, apperror.ErrAlreadyExists)
	require.Equal(t, 1, r.Len())
}

func TestInsertRollsBackOnStoreFailure(t *testing.T) {
	store := memory.NewStore()
	r := newRegistry(t, store)
	store.FailSaves(errors.New("disk full"))

	err := r.Insert(context.Background(), newUser(t, "alice"))
	require.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	require.Equal(t, apperror.CodeStoreWriteFailed, apperror.CodeOf(err))
	require.False(t, r.Exists("alice"))

	store.FailSaves(nil)
	require.NoError(t, r.Insert(context.Background(), newUser(t, "alice")))
}

func TestInsertIgnoresCallerCancellation(t *testing.T) {
	r := newRegistry(t, memory.NewStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Insert(ctx, newUser(t, "alice")))
	require.True(t, r.Exists("alice"))
}

func TestConcurrentInsertSameID(t *testing.T) {
	store := memory.NewStore()
	r := newRegistry(t, store)

	const workers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dupes     int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		u := newUser(t, "racer")
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := r.Insert(context.Background(), u)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrDuplicateID):
				dupes++
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, succeeded)
	require.Equal(t, workers-1, dupes)
	require.Equal(t, 1, r.Len())
	require.Equal(t, 1, store.Saves())
}

func TestConcurrentInsertDistinctIDs(t *testing.T) {
	r := newRegistry(t, memory.NewStore())

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		u := newUser(t, fmt.Sprintf("user_%02d", i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Insert(context.Background(), u))
		}()
	}
	wg.Wait()

	list := r.List()
	require.Len(t, list, n)
	seen := make(map[string]bool, n)
	for _, u := range list {
		require.False(t, seen[u.ID()], "duplicate id %s", u.ID())
		seen[u.ID()] = true
	}
}

func TestUpdateNotFound(t *testing.T) {
	store := memory.NewStore()
	r := newRegistry(t, store)

	called := false
	_, err := r.Update(context.Background(), "ghost", func(*entity.User) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, apperror.ErrNotFound)
	require.False(t, called)
	require.Equal(t, 0, store.Saves())
}

func TestUpdateAppliesAndPersists(t *testing.T) {
	store := memory.NewStore()
	r := newRegistry(t, store)
	require.NoError(t, r.Insert(context.Background(), newUser(t, "alice")))

	updated, err := r.Update(context.Background(), "alice", func(u *entity.User) error {
		return u.SetName("Alice Liddell")
	})
	require.NoError(t, err)
	require.Equal(t, "Alice Liddell", updated.Name())

	rec, ok := store.Get("alice")
	require.True(t, ok)
	require.Equal(t, "Alice Liddell", rec.Name)

	found, err := r.Find("alice")
	require.NoError(t, err)
	require.Equal(t, "Alice Liddell", found.Name())
}

func TestUpdateValidationFailureLeavesRecord(t *testing.T) {
	store := memory.NewStore()
	r := newRegistry(t, store)
	require.NoError(t, r.Insert(context.Background(), newUser(t, "alice")))

	_, err := r.Update(context.Background(), "alice", func(u *entity.User) error {
		if err := u.SetName("Half Applied"); err != nil {
			return err
		}
		return u.SetPhone("1")
	})
	require.ErrorIs(t, err, entity.ErrPhoneLength)

	found, err := r.Find("alice")
	require.NoError(t, err)
	require.Equal(t, "Valid Name", found.Name())
	require.Equal(t, 1, store.Saves())
}

func TestUpdateRollsBackOnStoreFailure(t *testing.T) {
	store := memory.NewStore()
	r := newRegistry(t, store)
	require.NoError(t, r.Insert(context.Background(), newUser(t, "alice")))
	store.FailSaves(errors.New("io error"))

	_, err := r.Update(context.Background(), "alice", func(u *entity.User) error {
		return u.SetName("Not Persisted")
	})
	require.Equal(t, apperror.CodeStoreWriteFailed, apperror.CodeOf(err))

	found, err := r.Find("alice")
	require.NoError(t, err)
	require.Equal(t, "Valid Name", found.Name())
}

func TestSnapshotsAreIsolated(t *testing.T) {
	r := newRegistry(t, memory.NewStore())
	u := newUser(t, "alice")
	require.NoError(t, r.Insert(context.Background(), u))

	require.NoError(t, u.SetName("Caller Owned"))
	list := r.List()
	require.NoError(t, list[0].SetName("Listed Copy"))

	found, err := r.Find("alice")
	require.NoError(t, err)
	require.Equal(t, "Valid Name", found.Name())
}

func TestFindIsIdempotent(t *testing.T) {
	r := newRegistry(t, memory.NewStore())
	require.NoError(t, r.Insert(context.Background(), newUser(t, "alice")))

	a, err := r.Find("alice")
	require.NoError(t, err)
	b, err := r.Find("alice")
	require.NoError(t, err)
	require.Equal(t, a.Record(), b.Record())
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	r := newRegistry(t, memory.NewStore())
	require.NoError(t, r.Insert(context.Background(), newUser(t, "alice")))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		phone := fmt.Sprintf("+36 %06d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Update(context.Background(), "alice", func(u *entity.User) error {
				return u.SetPhone(phone)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	found, err := r.Find("alice")
	require.NoError(t, err)
	require.Len(t, found.Phone(), len("+36 000000"))
}
