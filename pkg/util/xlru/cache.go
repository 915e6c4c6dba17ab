package xlru

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const maxSize = 1 << 24

// Config 缓存配置
type Config struct {
	// Size 最大条目数，(0, 16777216]
	Size int

	// TTL 条目存活时间，0 表示不过期
	TTL time.Duration
}

// Option 可选配置
type Option[K comparable, V any] func(*options[K, V])

type options[K comparable, V any] struct {
	onEvicted func(key K, value V)
}

// WithOnEvicted 设置淘汰回调。回调在底层锁内同步执行，不能回调 Cache 自身方法。
func WithOnEvicted[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(o *options[K, V]) {
		o.onEvicted = fn
	}
}

// Stats 命中统计
type Stats struct {
	Hits   uint64
	Misses uint64
	Len    int
}

// Cache 带 TTL 的 LRU 缓存，必须由 New 创建。
// Close 之后读返回零值，写被忽略。
type Cache[K comparable, V any] struct {
	lru       *expirable.LRU[K, V]
	hits      atomic.Uint64
	misses    atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func New[K comparable, V any](cfg Config, opts ...Option[K, V]) (*Cache[K, V], error) {
	switch {
	case cfg.Size <= 0:
		return nil, ErrInvalidSize
	case cfg.Size > maxSize:
		return nil, ErrSizeExceedsMax
	case cfg.TTL < 0:
		return nil, ErrInvalidTTL
	}
	o := &options[K, V]{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return &Cache[K, V]{lru: expirable.NewLRU(cfg.Size, o.onEvicted, cfg.TTL)}, nil
}

// Get 返回值并刷新 LRU 顺序，过期视为不存在。
func (c *Cache[K, V]) Get(key K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// GetOrLoad 未命中时调用 load 并缓存结果，load 出错时不缓存。
// 同一 key 的并发未命中可能各自调用 load。
func (c *Cache[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if load == nil {
		var zero V
		return zero, ErrNilLoader
	}
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load(key)
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

// Set 写入或更新，返回是否发生了淘汰。
func (c *Cache[K, V]) Set(key K, value V) bool {
	if c.closed.Load() {
		return false
	}
	return c.lru.Add(key, value)
}

func (c *Cache[K, V]) Delete(key K) bool {
	if c.closed.Load() {
		return false
	}
	return c.lru.Remove(key)
}

// Peek 不刷新 LRU 顺序，也不计入统计。
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.lru.Peek(key)
}

// Purge 清空全部条目
func (c *Cache[K, V]) Purge() {
	if !c.closed.Load() {
		c.lru.Purge()
	}
}

// Len 可能包含已过期但未清理的条目
func (c *Cache[K, V]) Len() int {
	if c.closed.Load() {
		return 0
	}
	return c.lru.Len()
}

func (c *Cache[K, V]) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Len: c.Len()}
}

// Close 清空缓存并停止过期清理 goroutine，可重复调用。
func (c *Cache[K, V]) Close() {
	c.closed.Store(true)
	c.closeOnce.Do(func() {
		c.lru.Purge()
		stopCleanupGoroutine(c.lru)
	})
}

// stopCleanupGoroutine 关闭 expirable.LRU 未导出的 done 通道。
// golang-lru v2.0.7 的后台清理 goroutine 没有公开的停止方法；
// 上游结构变化时返回 false，由 TestStopCleanupGoroutine 发现。
func stopCleanupGoroutine(lru any) (stopped bool) {
	defer func() {
		if recover() != nil {
			stopped = false
		}
	}()

	v := reflect.ValueOf(lru)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return false
	}
	done := v.Elem().FieldByName("done")
	if !done.IsValid() || done.Type() != reflect.TypeOf(make(chan struct{})) || done.IsNil() {
		return false
	}
	ch := *(*chan struct{})(unsafe.Pointer(done.UnsafeAddr())) //nolint:gosec // 访问上游未导出字段
	close(ch)
	return true
}
