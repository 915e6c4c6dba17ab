package xcron

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker 任务互斥锁。TryLock 未抢到锁时返回 (nil, nil)。
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (LockHandle, error)
}

// LockHandle 一次成功加锁的句柄
type LockHandle interface {
	Unlock(ctx context.Context) error
	Key() string
}

type noopLocker struct{}

// NoopLocker 总是加锁成功，单实例部署使用。
func NoopLocker() Locker { return noopLocker{} }

func (noopLocker) TryLock(_ context.Context, key string, _ time.Duration) (LockHandle, error) {
	return noopHandle(key), nil
}

type noopHandle string

func (noopHandle) Unlock(context.Context) error { return nil }
func (h noopHandle) Key() string               { return string(h) }

// RedisLocker 基于 redsync 的单节点互斥锁，锁值为实例标识加随机 token。
type RedisLocker struct {
	rs       *redsync.Redsync
	prefix   string
	identity string
}

type RedisLockerOption func(*RedisLocker)

// WithKeyPrefix 默认 "xpoolsrv:cron:"
func WithKeyPrefix(prefix string) RedisLockerOption {
	return func(l *RedisLocker) { l.prefix = prefix }
}

// WithIdentity 默认 "hostname:pid"
func WithIdentity(id string) RedisLockerOption {
	return func(l *RedisLocker) {
		if id != "" {
			l.identity = id
		}
	}
}

func NewRedisLocker(client redis.UniversalClient, opts ...RedisLockerOption) (*RedisLocker, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	l := &RedisLocker{
		rs:       redsync.New(goredis.NewPool(client)),
		prefix:   "xpoolsrv:cron:",
		identity: defaultIdentity(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (LockHandle, error) {
	full := l.prefix + key
	m := l.rs.NewMutex(full,
		redsync.WithExpiry(ttl),
		redsync.WithTries(1),
		redsync.WithGenValueFunc(func() (string, error) {
			return l.identity + ":" + uuid.NewString(), nil
		}),
	)
	if err := m.TryLockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.As(err, &taken) || errors.Is(err, redsync.ErrFailed) {
			return nil, nil //nolint:nilnil // 未抢到锁不是错误
		}
		return nil, fmt.Errorf("xcron: lock %s: %w", full, err)
	}
	return &redisHandle{mutex: m, key: full}, nil
}

func (l *RedisLocker) Identity() string { return l.identity }

type redisHandle struct {
	mutex *redsync.Mutex
	key   string
}

// Unlock 锁已过期或已被他人持有时返回 ErrLockNotHeld。
func (h *redisHandle) Unlock(ctx context.Context) error {
	ok, err := h.mutex.UnlockContext(ctx)
	var taken *redsync.ErrTaken
	switch {
	case errors.Is(err, redsync.ErrLockAlreadyExpired), errors.As(err, &taken):
		return ErrLockNotHeld
	case err != nil:
		return fmt.Errorf("xcron: unlock %s: %w", h.key, err)
	case !ok:
		return ErrLockNotHeld
	}
	return nil
}

func (h *redisHandle) Key() string { return h.key }

func defaultIdentity() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s:%d", host, os.Getpid())
}
