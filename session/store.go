package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the session core.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Store is a Redis-backed store for the durable session record. One Store
// manages one profile (device/installation scope): a single record key plus a
// revalidation marker used by the TTL restore policy.
type Store struct {
	redis   redis.UniversalClient
	prefix  string
	profile string
}

// NewStore creates a session record [Store] backed by the given Redis client.
// prefix sets the Redis key namespace; profile scopes the record.
func NewStore(redisClient redis.UniversalClient, prefix, profile string) *Store {
	if profile == "" {
		profile = "default"
	}
	return &Store{
		redis:   redisClient,
		prefix:  prefix,
		profile: profile,
	}
}

func (s *Store) recordKey() string {
	return s.prefix + ":rec:" + s.profile
}

func (s *Store) revalidatedKey() string {
	return s.prefix + ":rvd:" + s.profile
}

// Save persists a [Record] with the given TTL, overwriting any previous one.
func (s *Store) Save(ctx context.Context, rec *Record, ttl time.Duration) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.recordKey(), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Load retrieves the persisted record. Returns redis.Nil when no record
// exists or the stored one has expired (expired records are deleted on the
// way out). migrated reports that an old-schema record was rewritten at the
// current version.
func (s *Store) Load(ctx context.Context) (rec *Record, migrated bool, err error) {
	key := s.recordKey()

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err = Decode(data)
	if err != nil {
		// An unreadable record is as good as no record; drop it.
		_ = s.redis.Del(ctx, key).Err()
		return nil, false, errors.Join(redis.Nil, err)
	}

	if rec.ExpiresAt > 0 && time.Now().Unix() > rec.ExpiresAt {
		if err := s.Delete(ctx); err != nil {
			return nil, false, err
		}
		return nil, false, redis.Nil
	}

	migrated, err = s.maybeMigrateSchema(ctx, key, rec)
	if err != nil {
		return nil, false, err
	}

	return rec, migrated, nil
}

// Delete removes the record and the revalidation marker. Idempotent.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.recordKey(), s.revalidatedKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// MarkRevalidated notes that the record was confirmed against the API within
// the given window. Used by the TTL restore policy.
func (s *Store) MarkRevalidated(ctx context.Context, window time.Duration) error {
	if window <= 0 {
		window = time.Minute
	}
	if err := s.redis.Set(ctx, s.revalidatedKey(), 1, window).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RevalidatedRecently reports whether the revalidation marker is still live.
func (s *Store) RevalidatedRecently(ctx context.Context) (bool, error) {
	n, err := s.redis.Exists(ctx, s.revalidatedKey()).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func (s *Store) maybeMigrateSchema(ctx context.Context, key string, rec *Record) (bool, error) {
	if rec == nil || rec.SchemaVersion == CurrentSchemaVersion {
		return false, nil
	}

	pttl, err := s.redis.PTTL(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if pttl <= 0 {
		return false, nil
	}

	rec.SchemaVersion = CurrentSchemaVersion
	encoded, err := Encode(rec)
	if err != nil {
		return false, err
	}

	if err := s.redis.Set(ctx, key, encoded, pttl).Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return true, nil
}
