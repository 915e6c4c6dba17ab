package xsampling

import (
	"context"
	"math"
	"math/rand/v2"
	"net"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/omeyang/xpoolsrv/pkg/context/xctx"
)

// Sampler 采样策略，并发安全。
type Sampler interface {
	ShouldSample(ctx context.Context) bool
}

// Func 函数适配为 Sampler
type Func func(ctx context.Context) bool

func (f Func) ShouldSample(ctx context.Context) bool { return f(ctx) }

// Always 全部采样
func Always() Sampler { return Func(func(context.Context) bool { return true }) }

// Never 全不采样
func Never() Sampler { return Func(func(context.Context) bool { return false }) }

func validateRate(rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return ErrInvalidRate
	}
	return nil
}

// RateSampler 按比率随机采样
type RateSampler struct {
	rate float64
}

func NewRate(rate float64) (*RateSampler, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	return &RateSampler{rate: rate}, nil
}

func (s *RateSampler) ShouldSample(context.Context) bool {
	switch {
	case s.rate <= 0:
		return false
	case s.rate >= 1:
		return true
	default:
		return rand.Float64() < s.rate
	}
}

func (s *RateSampler) Rate() float64 { return s.rate }

// CountSampler 每 n 个采样 1 个，第 1、n+1、2n+1... 个被采样。
type CountSampler struct {
	n       uint64
	counter atomic.Uint64
}

func NewCount(n int) (*CountSampler, error) {
	if n < 1 {
		return nil, ErrInvalidCount
	}
	return &CountSampler{n: uint64(n)}, nil
}

func (s *CountSampler) ShouldSample(context.Context) bool {
	return (s.counter.Add(1)-1)%s.n == 0
}

func (s *CountSampler) Reset() { s.counter.Store(0) }

// KeyFunc 从 ctx 取采样键
type KeyFunc func(ctx context.Context) string

// ByClient 以对端 IP 为键，无端口。
func ByClient(ctx context.Context) string {
	addr := xctx.RemoteAddr(ctx)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// ByRequestID 以请求 ID 为键
func ByRequestID(ctx context.Context) string { return xctx.RequestID(ctx) }

// KeyBasedSampler 同一键在同一比率下结果恒定（xxhash），键为空时退化为随机采样。
type KeyBasedSampler struct {
	rate    float64
	keyFunc KeyFunc
}

func NewKeyBased(rate float64, keyFunc KeyFunc) (*KeyBasedSampler, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	if keyFunc == nil {
		return nil, ErrNilKeyFunc
	}
	return &KeyBasedSampler{rate: rate, keyFunc: keyFunc}, nil
}

func (s *KeyBasedSampler) ShouldSample(ctx context.Context) bool {
	switch {
	case s.rate <= 0:
		return false
	case s.rate >= 1:
		return true
	}
	var key string
	if ctx != nil {
		key = s.keyFunc(ctx)
	}
	if key == "" {
		return rand.Float64() < s.rate
	}
	// hash == MaxUint64 时归一化为 1.0，rate < 1 时不会被采样
	return float64(xxhash.Sum64String(key))/float64(math.MaxUint64) < s.rate
}

func (s *KeyBasedSampler) Rate() float64 { return s.rate }

type composite struct {
	samplers []Sampler
	all      bool
}

// All 所有子采样器都同意才采样，短路求值。
func All(samplers ...Sampler) (Sampler, error) { return newComposite(true, samplers) }

// Any 任一子采样器同意即采样，短路求值。
func Any(samplers ...Sampler) (Sampler, error) { return newComposite(false, samplers) }

func newComposite(all bool, samplers []Sampler) (Sampler, error) {
	if len(samplers) == 0 {
		return nil, ErrNoSamplers
	}
	for _, s := range samplers {
		if s == nil {
			return nil, ErrNilSampler
		}
	}
	return &composite{samplers: append([]Sampler(nil), samplers...), all: all}, nil
}

func (c *composite) ShouldSample(ctx context.Context) bool {
	for _, s := range c.samplers {
		if s.ShouldSample(ctx) != c.all {
			return !c.all
		}
	}
	return c.all
}
