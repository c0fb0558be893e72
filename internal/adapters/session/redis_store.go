package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/AchilleasB/care-portal/care-portal-service/internal/config"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/domain"
	"github.com/AchilleasB/care-portal/care-portal-service/internal/core/ports"
)

const keyPrefix = "session:"

// RedisStore keeps session identities in Redis so they survive restarts of
// the API and page reloads of the client.
type RedisStore struct {
	client redis.Cmdable
	cb     *gobreaker.CircuitBreaker
}

var _ ports.SessionStore = (*RedisStore)(nil)

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{
		client: client,
		cb:     config.NewCircuitBreaker(config.BreakerRedis),
	}
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, identity domain.Identity, ttl time.Duration) error {
	payload, err := EncodeIdentity(identity)
	if err != nil {
		return err
	}
	_, err = s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.Set(ctx, keyPrefix+sessionID, payload, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*domain.Identity, error) {
	raw, err := s.cb.Execute(func() (interface{}, error) {
		data, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
		if errors.Is(err, redis.Nil) {
			// A missing key is a normal outcome and must not trip the breaker.
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	data, _ := raw.([]byte)
	if data == nil {
		return nil, domain.ErrSessionNotFound
	}
	return DecodeIdentity(data), nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.Del(ctx, keyPrefix+sessionID).Err()
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
