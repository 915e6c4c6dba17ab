package xpage

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/omeyang/xpoolsrv/pkg/util/xlru"
)

// 内置页面名称
const (
	PageHello    = "hello.html"
	PageNotFound = "404.html"
)

const (
	// DefaultCacheSize 默认缓存页面数
	DefaultCacheSize = 64
	// DefaultTTL 默认缓存存活时间，覆盖目录中的修改最迟在此之后生效
	DefaultTTL = time.Minute
)

//go:embed pages/*.html
var embedded embed.FS

type options struct {
	dir       string
	cacheSize int
	ttl       time.Duration
}

// Option 配置 New
type Option func(*options)

// WithDir 覆盖目录，空字符串表示只用内嵌页面。
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithCacheSize 缓存的页面数，非正值忽略。
func WithCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// WithTTL 缓存条目存活时间，0 表示永不过期。
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.ttl = d
		}
	}
}

// Loader 按名称读取页面，并发安全。
type Loader struct {
	overlay fs.FS
	base    fs.FS
	cache   *xlru.Cache[string, []byte]
}

// New 创建 Loader。WithDir 指定的目录必须存在。
func New(opts ...Option) (*Loader, error) {
	o := options{cacheSize: DefaultCacheSize, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	base, err := fs.Sub(embedded, "pages")
	if err != nil {
		return nil, fmt.Errorf("xpage: embedded pages: %w", err)
	}
	cache, err := xlru.New[string, []byte](xlru.Config{Size: o.cacheSize, TTL: o.ttl})
	if err != nil {
		return nil, fmt.Errorf("xpage: create cache: %w", err)
	}
	l := &Loader{base: base, cache: cache}
	if o.dir != "" {
		info, err := os.Stat(o.dir)
		if err != nil {
			cache.Close()
			return nil, fmt.Errorf("xpage: static dir: %w", err)
		}
		if !info.IsDir() {
			cache.Close()
			return nil, fmt.Errorf("xpage: static dir %s is not a directory", o.dir)
		}
		l.overlay = os.DirFS(o.dir)
	}
	return l, nil
}

// Load 返回页面内容。返回的切片为缓存共享，调用方不得修改。
func (l *Loader) Load(name string) ([]byte, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return l.cache.GetOrLoad(name, l.read)
}

func (l *Loader) read(name string) ([]byte, error) {
	if l.overlay != nil {
		data, err := fs.ReadFile(l.overlay, name)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("xpage: read %s: %w", name, err)
		}
	}
	data, err := fs.ReadFile(l.base, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("xpage: read embedded %s: %w", name, err)
	}
	return data, nil
}

// Invalidate 清空缓存，下次 Load 重新读取。
func (l *Loader) Invalidate() { l.cache.Purge() }

// Stats 返回缓存命中统计
func (l *Loader) Stats() xlru.Stats { return l.cache.Stats() }

// Close 停止缓存的过期清理
func (l *Loader) Close() error {
	l.cache.Close()
	return nil
}

// 只允许目录下的单层文件名
func validName(name string) bool {
	return name != "" && fs.ValidPath(name) && !strings.Contains(name, "/")
}
