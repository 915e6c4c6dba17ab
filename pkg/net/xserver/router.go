package xserver

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/omeyang/xpoolsrv/pkg/observability/xlog"
	"github.com/omeyang/xpoolsrv/pkg/observability/xsampling"
	"github.com/omeyang/xpoolsrv/pkg/storage/xhits"
	"github.com/omeyang/xpoolsrv/pkg/storage/xpage"
	"github.com/omeyang/xpoolsrv/pkg/util/xpool"
)

const (
	// DefaultSleepDelay /sleep 默认等待时长
	DefaultSleepDelay = 5 * time.Second

	maxRequestLine = 8 << 10

	hitBadRequest = "400"
	hitNotFound   = "404"
)

// PageSource 按名称返回页面，*xpage.Loader 满足该接口。
type PageSource interface {
	Load(name string) ([]byte, error)
}

// RouterOption 配置 NewRouter
type RouterOption func(*Router)

// WithSleepDelay /sleep 的等待时长，默认 DefaultSleepDelay，负值忽略。
func WithSleepDelay(d time.Duration) RouterOption {
	return func(r *Router) {
		if d >= 0 {
			r.sleepDelay = d
		}
	}
}

// WithHits 记录每个路由的访问次数，默认进程内计数。
func WithHits(h xhits.Store) RouterOption {
	return func(r *Router) {
		if h != nil {
			r.hits = h
		}
	}
}

// WithPoolStats /stats 中输出的线程池统计来源
func WithPoolStats(fn func() xpool.Stats) RouterOption {
	return func(r *Router) { r.poolStats = fn }
}

// WithRouterLogger 访问日志与告警的输出，默认 xlog.Default()。
func WithRouterLogger(l xlog.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithAccessLogSampler 访问日志采样，默认全部记录。错误响应（4xx）不受采样影响。
func WithAccessLogSampler(s xsampling.Sampler) RouterOption {
	return func(r *Router) {
		if s != nil {
			r.sampler = s
		}
	}
}

// Router 按请求行路由的 Handler
type Router struct {
	pages      PageSource
	hits       xhits.Store
	poolStats  func() xpool.Stats
	sleepDelay time.Duration
	logger     xlog.Logger
	sampler    xsampling.Sampler
}

// NewRouter 创建 Router，pages 不能为 nil。
func NewRouter(pages PageSource, opts ...RouterOption) (*Router, error) {
	if pages == nil {
		return nil, ErrNilPages
	}
	r := &Router{
		pages:      pages,
		hits:       xhits.NewMemory(),
		sleepDelay: DefaultSleepDelay,
		logger:     xlog.Default(),
		sampler:    xsampling.Always(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Hits 返回访问计数存储
func (r *Router) Hits() xhits.Store { return r.hits }

// ServeConn 读取请求行、路由并写回一个响应。
// 只有页面加载失败、写响应失败与 ctx 取消会返回错误。
func (r *Router) ServeConn(ctx context.Context, conn net.Conn) error {
	start := time.Now()
	line, readErr := readRequestLine(conn)

	var (
		status, hit string
		body        []byte
		err         error
	)
	method, path := "", ""
	if readErr != nil {
		status, hit = StatusBadRequest, hitBadRequest
		body = []byte(ErrBadRequest.Error() + "\n")
	} else {
		method, path = splitRequestLine(line)
		status, hit, body, err = r.route(ctx, line, path)
		if err != nil {
			return err
		}
	}

	if herr := r.hits.Incr(ctx, hit); herr != nil {
		r.logger.Warn(ctx, "xserver: failed to count hit", slog.String("route", hit), xlog.Err(herr))
	}
	if err := writeResponse(conn, status, nil, body); err != nil {
		return fmt.Errorf("xserver: write response: %w", err)
	}
	code := statusCode(status)
	if code >= 400 || r.sampler.ShouldSample(ctx) {
		r.logger.Info(ctx, "xserver: request",
			xlog.Method(method), xlog.Path(path), xlog.StatusCode(code), xlog.Duration(time.Since(start)))
	}
	return nil
}

func (r *Router) route(ctx context.Context, line, path string) (status, hit string, body []byte, err error) {
	switch line {
	case "GET / HTTP/1.1":
		body, err = r.pages.Load(xpage.PageHello)
		return StatusOK, path, body, err
	case "GET /sleep HTTP/1.1":
		if err := sleep(ctx, r.sleepDelay); err != nil {
			return "", "", nil, err
		}
		body, err = r.pages.Load(xpage.PageHello)
		return StatusOK, path, body, err
	case "GET /stats HTTP/1.1":
		return StatusOK, path, r.statsBody(ctx), nil
	default:
		body, err = r.pages.Load(xpage.PageNotFound)
		return StatusNotFound, hitNotFound, body, err
	}
}

// statsBody 计数存储不可用时输出 "hits unavailable"，响应照常返回。
func (r *Router) statsBody(ctx context.Context) []byte {
	var b strings.Builder
	if r.poolStats != nil {
		st := r.poolStats()
		fmt.Fprintf(&b, "workers %d\nalive %d\nactive %d\npending %d\nsubmitted %d\ncompleted %d\npanicked %d\n",
			st.Workers, st.Alive, st.Active, st.Pending, st.Submitted, st.Completed, st.Panicked)
	}
	snap, err := r.hits.Snapshot(ctx)
	if err != nil {
		r.logger.Warn(ctx, "xserver: failed to snapshot hits", xlog.Err(err))
		b.WriteString("hits unavailable\n")
		return []byte(b.String())
	}
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "hits %s %d\n", k, snap[k])
	}
	return []byte(b.String())
}

// readRequestLine 读取第一行并去掉行尾 CRLF，空行或读取失败返回 ErrBadRequest。
func readRequestLine(conn net.Conn) (string, error) {
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 512), maxRequestLine)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		return "", ErrBadRequest
	}
	line := strings.TrimSuffix(sc.Text(), "\r")
	if line == "" {
		return "", ErrBadRequest
	}
	return line, nil
}

func splitRequestLine(line string) (method, path string) {
	fields := strings.Fields(line)
	if len(fields) > 0 {
		method = fields[0]
	}
	if len(fields) > 1 {
		path = fields[1]
	}
	return method, path
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
