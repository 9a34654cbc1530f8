// Package redisstore keeps user records in a Redis hash of id to JSON, with a
// companion list holding first-insert order.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/domain/repository"
)

// saveScript writes the record and appends the id to the order list only
// when the field is new.
var saveScript = redis.NewScript(`
if redis.call('HSET', KEYS[1], ARGV[1], ARGV[2]) == 1 then
  redis.call('RPUSH', KEYS[2], ARGV[1])
end
return 1
`)

type Store struct {
	rdb      *redis.Client
	key      string
	orderKey string
}

// New returns a store over the hash named key. The client stays owned by the
// caller.
func New(rdb *redis.Client, key string) *Store {
	return &Store{rdb: rdb, key: key, orderKey: key + ":order"}
}

func (s *Store) LoadAll(ctx context.Context) ([]entity.UserRecord, error) {
	raw, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read users hash: %w", err)
	}
	order, err := s.rdb.LRange(ctx, s.orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read users order: %w", err)
	}

	out := make([]entity.UserRecord, 0, len(raw))
	decode := func(id string) error {
		body, ok := raw[id]
		if !ok {
			return nil
		}
		delete(raw, id)
		var rec entity.UserRecord
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return fmt.Errorf("decode user %q: %w", id, err)
		}
		out = append(out, rec)
		return nil
	}
	for _, id := range order {
		if err := decode(id); err != nil {
			return nil, err
		}
	}
	// Fields written outside this store have no order entry.
	rest := make([]string, 0, len(raw))
	for id := range raw {
		rest = append(rest, id)
	}
	sort.Strings(rest)
	for _, id := range rest {
		if err := decode(id); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, rec entity.UserRecord) error {
	if rec.Customers == nil {
		rec.Customers = []string{}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode user %q: %w", rec.ID, err)
	}
	if err := saveScript.Run(ctx, s.rdb, []string{s.key, s.orderKey}, rec.ID, b).Err(); err != nil {
		return fmt.Errorf("save user %q: %w", rec.ID, err)
	}
	return nil
}

// Close is a no-op; the shared client is closed by its owner.
func (s *Store) Close() error { return nil }

var _ repository.UserStore = (*Store)(nil)
