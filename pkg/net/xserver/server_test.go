package xserver

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xpoolsrv/pkg/context/xctx"
	"github.com/omeyang/xpoolsrv/pkg/resilience/xlimit"
	"github.com/omeyang/xpoolsrv/pkg/storage/xpage"
	"github.com/omeyang/xpoolsrv/pkg/util/xnet"
	"github.com/omeyang/xpoolsrv/pkg/util/xpool"
)

func newPool(t *testing.T, size int) *xpool.Pool {
	t.Helper()
	p, err := xpool.New(size, xpool.WithLogger(quietLogger(t)))
	require.NoError(t, err)
	return p
}

type running struct {
	srv  *Server
	addr string
	stop func() error
	errs chan error
}

func startServer(t *testing.T, sub Submitter, h Handler, opts ...Option) *running {
	t.Helper()
	s, err := New(sub, h, append([]Option{WithLogger(quietLogger(t))}, opts...)...)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	ln, err := s.Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() { errs <- s.Serve(ctx, ln) }()
	return &running{
		srv:  s,
		addr: ln.Addr().String(),
		errs: errs,
		stop: func() error {
			cancel()
			return <-errs
		},
	}
}

// request 发送一行请求并读到连接关闭；被服务端直接关闭的连接返回空串。
func request(t *testing.T, addr, line string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	_, _ = fmt.Fprintf(conn, "%s\r\n\r\n", line)
	data, _ := io.ReadAll(conn)
	return string(data)
}

func TestNew_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, err := New(nil, NewMockHandler(ctrl))
	assert.ErrorIs(t, err, ErrNilSubmitter)
	_, err = New(NewMockSubmitter(ctrl), nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestServe_NilArgs(t *testing.T) {
	ctrl := gomock.NewController(t)
	s, err := New(NewMockSubmitter(ctrl), NewMockHandler(ctrl), nil)
	require.NoError(t, err)
	//nolint:staticcheck // 故意传入 nil context
	assert.ErrorIs(t, s.Serve(nil, nil), ErrNilContext)
	assert.ErrorIs(t, s.Serve(context.Background(), nil), ErrNilListener)
	//nolint:staticcheck // 故意传入 nil context
	_, err = s.Listen(nil, "127.0.0.1:0")
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestServer_EndToEnd(t *testing.T) {
	pool := newPool(t, 2)
	pages, err := xpage.New()
	require.NoError(t, err)
	defer pages.Close()

	router, err := NewRouter(pages, WithRouterLogger(quietLogger(t)),
		WithSleepDelay(20*time.Millisecond), WithPoolStats(pool.Stats))
	require.NoError(t, err)
	rs := startServer(t, pool, router, WithAcceptRate(1000, 10), WithAcceptRate(0, 0), WithAcceptRate(1000, 0),
		WithReadTimeout(time.Second), WithReadTimeout(-1))

	assert.Contains(t, request(t, rs.addr, "GET / HTTP/1.1"), "<h1>Hello!</h1>")
	resp := request(t, rs.addr, "GET /sleep HTTP/1.1")
	assert.True(t, strings.HasPrefix(resp, StatusOK), resp)
	assert.Contains(t, request(t, rs.addr, "GET /nope HTTP/1.1"), StatusNotFound)
	assert.True(t, strings.HasPrefix(request(t, rs.addr, ""), StatusBadRequest))

	stats := request(t, rs.addr, "GET /stats HTTP/1.1")
	assert.Contains(t, stats, "workers 2\n")
	assert.Contains(t, stats, "hits / 1\n")
	assert.Contains(t, stats, "hits /sleep 1\n")

	require.NoError(t, rs.stop())
	require.NoError(t, pool.Shutdown(context.Background()))

	st := rs.srv.Stats()
	assert.Equal(t, uint64(5), st.Accepted)
	assert.Equal(t, uint64(5), st.Submitted)
	assert.Equal(t, uint64(5), st.Handled)
	assert.Zero(t, st.Active)
	assert.Equal(t, uint64(5), pool.Stats().Completed)
}

func TestServer_MaxConnsStopsAccepting(t *testing.T) {
	pool := newPool(t, 2)
	h := HandlerFunc(func(_ context.Context, conn net.Conn) error {
		_, err := conn.Write([]byte("ok"))
		return err
	})
	rs := startServer(t, pool, h, WithMaxConns(2))

	assert.Equal(t, "ok", request(t, rs.addr, "a"))
	assert.Equal(t, "ok", request(t, rs.addr, "b"))

	select {
	case err := <-rs.errs:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after reaching the connection limit")
	}
	require.NoError(t, pool.Shutdown(context.Background()))

	_, err := net.DialTimeout("tcp", rs.addr, 200*time.Millisecond)
	assert.Error(t, err, "listener is closed")
}

func TestServer_MaxConnsIgnoresRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	allow, err := xnet.NewAllowlist([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	rs := startServer(t, NewMockSubmitter(ctrl), NewMockHandler(ctrl), WithAllowlist(allow), WithMaxConns(1))
	for range 3 {
		assert.Empty(t, request(t, rs.addr, "GET / HTTP/1.1"))
	}
	select {
	case err := <-rs.errs:
		t.Fatalf("Serve returned after denied connections only: %v", err)
	default:
	}
	require.NoError(t, rs.stop())
	st := rs.srv.Stats()
	assert.Equal(t, uint64(3), st.Denied)
	assert.Zero(t, st.Submitted)
}

func TestServer_MaxConnsIgnoresLimited(t *testing.T) {
	pool := newPool(t, 1)
	lim, err := xlimit.NewLocal(xlimit.Limit{Rate: 1, Burst: 1, Period: time.Hour})
	require.NoError(t, err)
	defer lim.Close()

	h := HandlerFunc(func(_ context.Context, conn net.Conn) error {
		_, err := conn.Write([]byte("ok"))
		return err
	})
	rs := startServer(t, pool, h, WithLimiter(lim), WithMaxConns(2))

	assert.Equal(t, "ok", request(t, rs.addr, "a"))
	assert.True(t, strings.HasPrefix(request(t, rs.addr, "b"), StatusTooManyRequests))
	assert.True(t, strings.HasPrefix(request(t, rs.addr, "c"), StatusTooManyRequests))

	require.NoError(t, rs.stop())
	require.NoError(t, pool.Shutdown(context.Background()))
	st := rs.srv.Stats()
	assert.Equal(t, uint64(1), st.Submitted)
	assert.Equal(t, uint64(2), st.Limited)
}

func TestServer_SubmitFailureClosesConn(t *testing.T) {
	ctrl := gomock.NewController(t)
	sub := NewMockSubmitter(ctrl)
	sub.EXPECT().Submit(gomock.Any()).Return(xpool.ErrPoolStopped)

	rs := startServer(t, sub, NewMockHandler(ctrl))
	assert.Empty(t, request(t, rs.addr, "GET / HTTP/1.1"))
	require.NoError(t, rs.stop())
	assert.Equal(t, uint64(1), rs.srv.Stats().Dropped)
}

func TestServer_JobCarriesConnectionContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	sub := NewMockSubmitter(ctrl)
	sub.EXPECT().Submit(gomock.Any()).DoAndReturn(func(job xpool.Job) error {
		job()
		return nil
	}).Times(2)

	h := NewMockHandler(ctrl)
	h.EXPECT().ServeConn(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, conn net.Conn) error {
		id, ok := xctx.ConnID(ctx)
		assert.True(t, ok)
		assert.NotEmpty(t, xctx.RequestID(ctx))
		assert.Equal(t, conn.RemoteAddr().String(), xctx.RemoteAddr(ctx))
		_, err := fmt.Fprintf(conn, "conn %d", id)
		return err
	}).Times(2)

	rs := startServer(t, sub, h)
	assert.Equal(t, "conn 1", request(t, rs.addr, "x"))
	assert.Equal(t, "conn 2", request(t, rs.addr, "x"))
	require.NoError(t, rs.stop())
}

func TestServer_AllowlistDenies(t *testing.T) {
	ctrl := gomock.NewController(t)
	allow, err := xnet.NewAllowlist([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	rs := startServer(t, NewMockSubmitter(ctrl), NewMockHandler(ctrl), WithAllowlist(allow))
	assert.Empty(t, request(t, rs.addr, "GET / HTTP/1.1"))
	require.NoError(t, rs.stop())
	assert.Equal(t, uint64(1), rs.srv.Stats().Denied)
}

func TestServer_LimiterRejectsWith429(t *testing.T) {
	pool := newPool(t, 1)
	lim, err := xlimit.NewLocal(xlimit.Limit{Rate: 1, Burst: 1, Period: time.Hour})
	require.NoError(t, err)
	defer lim.Close()

	h := HandlerFunc(func(_ context.Context, conn net.Conn) error {
		_, err := conn.Write([]byte("ok"))
		return err
	})
	rs := startServer(t, pool, h, WithLimiter(lim))

	assert.Equal(t, "ok", request(t, rs.addr, "a"))
	resp := request(t, rs.addr, "b")
	assert.True(t, strings.HasPrefix(resp, StatusTooManyRequests+"\r\n"), resp)
	assert.Contains(t, resp, "Retry-After: ")
	assert.Contains(t, resp, "X-RateLimit-Limit: 1\r\n")

	require.NoError(t, rs.stop())
	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, uint64(1), rs.srv.Stats().Limited)
}

func TestListen_RetriesThenFails(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	ctrl := gomock.NewController(t)
	s, err := New(NewMockSubmitter(ctrl), NewMockHandler(ctrl),
		WithLogger(quietLogger(t)), WithBindAttempts(2), WithBindAttempts(0))
	require.NoError(t, err)

	_, err = s.Listen(context.Background(), taken.Addr().String())
	assert.Error(t, err)
	assert.Nil(t, s.Addr())
}

func TestRun_ReadyAndCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	s, err := New(NewMockSubmitter(ctrl), NewMockHandler(ctrl),
		WithLogger(quietLogger(t)), WithAddr("127.0.0.1:0"), WithAddr(""), WithReusePort(true))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server not ready")
	}
	require.NotNil(t, s.Addr())
	cancel()
	assert.NoError(t, <-done)
}

func TestClientKey(t *testing.T) {
	assert.Equal(t, "ip:10.1.2.3", clientKey(&net.TCPAddr{IP: net.ParseIP("10.1.2.3"), Port: 80}))
	assert.Equal(t, "addr:pipe", clientKey(pipeAddr{}))
}

type pipeAddr struct{}

func (pipeAddr) Network() string { return "pipe" }
func (pipeAddr) String() string  { return "pipe" }
