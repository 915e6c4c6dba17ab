package xserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xpoolsrv/pkg/context/xctx"
	"github.com/omeyang/xpoolsrv/pkg/observability/xlog"
	"github.com/omeyang/xpoolsrv/pkg/observability/xmetrics"
	"github.com/omeyang/xpoolsrv/pkg/resilience/xretry"
	"github.com/omeyang/xpoolsrv/pkg/util/xnet"
	"github.com/omeyang/xpoolsrv/pkg/util/xpool"
	"github.com/omeyang/xpoolsrv/pkg/util/xsys"
)

// Submitter 执行连接任务，*xpool.Pool 满足该接口。
type Submitter interface {
	Submit(job xpool.Job) error
}

// Handler 处理一个连接。返回后连接由 Server 关闭。
type Handler interface {
	ServeConn(ctx context.Context, conn net.Conn) error
}

// HandlerFunc 函数适配为 Handler
type HandlerFunc func(ctx context.Context, conn net.Conn) error

// ServeConn 调用 f
func (f HandlerFunc) ServeConn(ctx context.Context, conn net.Conn) error { return f(ctx, conn) }

// Stats 连接计数快照
type Stats struct {
	Accepted  uint64 // 已接受
	Denied    uint64 // 白名单拒绝
	Limited   uint64 // 限流拒绝
	Dropped   uint64 // 提交线程池失败
	Submitted uint64 // 已提交线程池，WithMaxConns 按它计数
	Handled   uint64 // 处理完成
	Active    int64  // 处理中
}

// Server 接受 TCP 连接，每个连接作为一个任务提交给 Submitter。
type Server struct {
	submitter Submitter
	handler   Handler
	opts      options

	connSeq  atomic.Uint64
	accepted atomic.Uint64
	denied   atomic.Uint64
	limited  atomic.Uint64
	dropped  atomic.Uint64
	served   atomic.Uint64
	handled  atomic.Uint64
	active   atomic.Int64

	mu    sync.Mutex
	addr  net.Addr
	ready chan struct{}
}

// New 创建 Server，submitter 与 handler 不能为 nil。
func New(submitter Submitter, handler Handler, opts ...Option) (*Server, error) {
	if submitter == nil {
		return nil, ErrNilSubmitter
	}
	if handler == nil {
		return nil, ErrNilHandler
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Server{submitter: submitter, handler: handler, opts: o, ready: make(chan struct{})}, nil
}

// Listen 以 SO_REUSEADDR 监听 addr，失败按指数退避重试。
func (s *Server) Listen(ctx context.Context, addr string) (net.Listener, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	lc := net.ListenConfig{Control: xsys.ListenControl(true, s.opts.reusePort)}
	r := xretry.NewRetryer(
		xretry.WithAttempts(s.opts.bindAttempts),
		xretry.WithBackoff(xretry.NewExponentialBackoff(
			xretry.WithInitialDelay(200*time.Millisecond),
			xretry.WithMaxDelay(2*time.Second),
		)),
		xretry.WithOnRetry(func(attempt int, err error) {
			s.opts.logger.Warn(ctx, "xserver: bind failed; retrying",
				slog.String("addr", addr), slog.Int("attempt", attempt), xlog.Err(err))
		}),
	)
	ln, err := xretry.DoWithResult(ctx, r, func(ctx context.Context) (net.Listener, error) {
		return lc.Listen(ctx, "tcp", addr)
	})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.addr == nil {
		s.addr = ln.Addr()
		close(s.ready)
	}
	s.mu.Unlock()
	s.opts.logger.Info(ctx, "xserver: listening", slog.String("addr", ln.Addr().String()))
	return ln, nil
}

// Run 监听 WithAddr 指定的地址并 Serve，满足 xrun.Service。
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen(ctx, s.opts.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Ready 在首次 Listen 成功后关闭
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr 返回首次 Listen 得到的地址，尚未监听时为 nil。
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Serve 运行接受循环，直到 ctx 取消、达到 WithMaxConns 或 Accept 出错。
// 返回时 ln 已关闭；已提交的连接任务由线程池继续处理。
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if ctx == nil {
		return ErrNilContext
	}
	if ln == nil {
		return ErrNilListener
	}
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer func() {
		stop()
		_ = ln.Close()
	}()

	// 已提交的连接在关闭阶段继续处理完
	jobCtx := context.WithoutCancel(ctx)
	for {
		if s.opts.maxConns > 0 && s.served.Load() >= s.opts.maxConns {
			s.opts.logger.Info(ctx, "xserver: connection limit reached; no longer accepting",
				xlog.Count(int64(s.opts.maxConns)))
			return nil
		}
		if s.opts.acceptRate != nil {
			if err := s.opts.acceptRate.Wait(ctx); err != nil {
				return nil
			}
		}
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.opts.logger.Warn(ctx, "xserver: accept timeout", xlog.Err(err))
				continue
			}
			return err
		}
		s.accepted.Add(1)
		s.dispatch(ctx, jobCtx, conn)
	}
}

func (s *Server) dispatch(ctx, jobCtx context.Context, conn net.Conn) {
	id := s.connSeq.Add(1)
	remote := conn.RemoteAddr()

	if s.opts.allowlist != nil && !s.opts.allowlist.Allows(remote) {
		s.denied.Add(1)
		s.opts.logger.Warn(ctx, "xserver: connection denied by allowlist",
			slog.String(xlog.KeyRemoteAddr, remote.String()))
		_ = conn.Close()
		return
	}

	if s.opts.limiter != nil {
		res, err := s.opts.limiter.Allow(ctx, clientKey(remote))
		switch {
		case err != nil:
			// 限流器不可用时放行
			s.opts.logger.Warn(ctx, "xserver: rate limiter failed", xlog.Err(err))
		case !res.Allowed:
			s.limited.Add(1)
			s.rejectLimited(ctx, conn, res.Headers())
			return
		}
	}

	err := s.submitter.Submit(func() { s.serveConn(jobCtx, id, conn) })
	if err != nil {
		s.dropped.Add(1)
		s.opts.logger.Error(ctx, "xserver: failed to submit connection", slog.Uint64(xlog.KeyConnID, id), xlog.Err(err))
		_ = conn.Close()
		return
	}
	s.served.Add(1)
}

func (s *Server) rejectLimited(ctx context.Context, conn net.Conn, headers map[string]string) {
	defer conn.Close()
	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	if err := writeResponse(conn, StatusTooManyRequests, headers, []byte(bodyTooManyRequests)); err != nil {
		s.opts.logger.Debug(ctx, "xserver: failed to write 429", xlog.Err(err))
	}
}

func (s *Server) serveConn(base context.Context, id uint64, conn net.Conn) {
	defer conn.Close()
	s.active.Add(1)
	defer s.active.Add(-1)

	ctx, _ := xctx.WithConnID(base, id)
	ctx, _ = xctx.WithRemoteAddr(ctx, conn.RemoteAddr().String())
	ctx, _, _ = xctx.EnsureRequestID(ctx)

	ctx, span := xmetrics.Start(ctx, s.opts.observer, xmetrics.SpanOptions{
		Component: "xserver",
		Operation: "handle",
		Kind:      xmetrics.KindServer,
		Attrs:     []xmetrics.Attr{xmetrics.Uint64(xlog.KeyConnID, id)},
	})
	if s.opts.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.opts.readTimeout))
	}
	err := s.handler.ServeConn(ctx, conn)
	span.End(xmetrics.Result{Err: err})
	s.handled.Add(1)
	if err != nil {
		s.opts.logger.Warn(ctx, "xserver: connection handler failed", xlog.Err(err))
	}
}

// Stats 返回当前计数
func (s *Server) Stats() Stats {
	return Stats{
		Accepted:  s.accepted.Load(),
		Denied:    s.denied.Load(),
		Limited:   s.limited.Load(),
		Dropped:   s.dropped.Load(),
		Submitted: s.served.Load(),
		Handled:   s.handled.Load(),
		Active:    s.active.Load(),
	}
}

func clientKey(remote net.Addr) string {
	if addr, ok := xnet.AddrOf(remote); ok {
		return "ip:" + addr.String()
	}
	return "addr:" + remote.String()
}
