package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oemparts/storefront/services/bulkorder-service/models"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound  = errors.New("bulk order session not found")
	ErrConcurrentUpdate = errors.New("bulk order session modified concurrently")
)

const maxUpdateAttempts = 8

// SessionRepository stores editing sessions. Update is the only way to
// mutate a stored session and applies fn atomically.
type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Update(ctx context.Context, id string, fn func(s *models.Session) error) (*models.Session, error)
	Delete(ctx context.Context, id string) error

	// AcquireValidationLock marks a validation as in flight for ttl. The
	// returned release func is a no-op when ok is false.
	AcquireValidationLock(ctx context.Context, id string, ttl time.Duration) (release func(), ok bool, err error)
	IsValidating(ctx context.Context, id string) (bool, error)
}

type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, ttl: ttl, now: time.Now}
}

func (r *RedisSessionRepository) key(id string) string {
	return "bulkorder:session:" + id
}

func (r *RedisSessionRepository) lockKey(id string) string {
	return "bulkorder:validating:" + id
}

func (r *RedisSessionRepository) Create(ctx context.Context, s *models.Session) error {
	now := r.now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ok, err := r.client.SetNX(ctx, r.key(s.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if !ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	return nil
}

// Get also slides the session TTL.
func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.client.GetEx(ctx, r.key(id), r.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return decodeSession(data)
}

func decodeSession(data []byte) (*models.Session, error) {
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Update runs fn against the stored session under WATCH and retries when
// another writer got in first. An error from fn aborts without writing.
func (r *RedisSessionRepository) Update(ctx context.Context, id string, fn func(s *models.Session) error) (*models.Session, error) {
	key := r.key(id)
	var updated *models.Session

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		s, err := decodeSession(data)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		s.UpdatedAt = r.now().UTC()

		out, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, r.ttl)
			return nil
		})
		if err == nil {
			updated = s
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
	}
	return nil, ErrConcurrentUpdate
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id), r.lockKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (r *RedisSessionRepository) AcquireValidationLock(ctx context.Context, id string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	key := r.lockKey(id)

	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("acquire validation lock: %w", err)
	}
	if !ok {
		return func() {}, false, nil
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = releaseLockScript.Run(releaseCtx, r.client, []string{key}, token).Err()
	}
	return release, true, nil
}

func (r *RedisSessionRepository) IsValidating(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.lockKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("check validation lock: %w", err)
	}
	return n > 0, nil
}
