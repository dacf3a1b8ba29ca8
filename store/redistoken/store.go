// Package redistoken provides a Redis-backed token store for clients that
// share credentials across processes, e.g. a fleet of kiosk terminals.
package redistoken

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

const (
	keyAuthToken    = "authToken"
	keyRefreshToken = "refreshToken"

	defaultTimeout = 5 * time.Second
)

// Store keeps the auth and refresh tokens in Redis under a shared prefix.
// The token store interface carries no context, so every command runs under
// an internal timeout.
type Store struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// Option customizes store construction.
type Option func(*Store)

// WithPrefix overrides the key prefix (default "voteclient:").
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTimeout bounds each Redis command.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// New creates a Redis-backed token store.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client:  client,
		prefix:  "voteclient:",
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Get returns the stored auth token, empty when absent.
func (s *Store) Get() (string, error) {
	return s.get(keyAuthToken)
}

// Set stores the auth token.
func (s *Store) Set(token string) error {
	return s.set(keyAuthToken, token)
}

// GetRefresh returns the stored refresh token, empty when absent.
func (s *Store) GetRefresh() (string, error) {
	return s.get(keyRefreshToken)
}

// SetRefresh stores the refresh token.
func (s *Store) SetRefresh(token string) error {
	return s.set(keyRefreshToken, token)
}

// Clear removes both tokens. Missing keys are not an error.
func (s *Store) Clear() error {
	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.client.Del(ctx, s.key(keyAuthToken), s.key(keyRefreshToken)).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "redis del")
	}
	return nil
}

func (s *Store) get(name string) (string, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	val, err := s.client.Get(ctx, s.key(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errors.Wrap(err, errors.CategoryOperation, "redis get")
	}
	return val, nil
}

func (s *Store) set(name, token string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	if token == "" {
		if err := s.client.Del(ctx, s.key(name)).Err(); err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "redis del")
		}
		return nil
	}

	if err := s.client.Set(ctx, s.key(name), token, 0).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "redis set")
	}
	return nil
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}
