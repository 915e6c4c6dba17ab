package xhits

import (
	"context"
	"errors"
	"maps"
	"sync"
)

var (
	ErrNilClient  = errors.New("xhits: nil redis client")
	ErrEmptyKey   = errors.New("xhits: empty key")
	ErrNilContext = errors.New("xhits: nil context")
)

// Store 访问计数存储，并发安全。
type Store interface {
	// Incr 将 key 的计数加一。
	Incr(ctx context.Context, key string) error

	// Snapshot 返回所有 key 的当前计数。
	Snapshot(ctx context.Context) (map[string]int64, error)

	// Close 释放存储持有的资源
	Close() error
}

// Memory 进程内计数
type Memory struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemory 创建空的进程内计数
func NewMemory() *Memory {
	return &Memory{counts: map[string]int64{}}
}

// Incr 计数加一
func (m *Memory) Incr(ctx context.Context, key string) error {
	if err := check(ctx, key); err != nil {
		return err
	}
	m.mu.Lock()
	m.counts[key]++
	m.mu.Unlock()
	return nil
}

// Snapshot 返回计数副本
func (m *Memory) Snapshot(context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.counts), nil
}

// Close 无资源需要释放
func (m *Memory) Close() error { return nil }

func check(ctx context.Context, key string) error {
	if ctx == nil {
		return ErrNilContext
	}
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
