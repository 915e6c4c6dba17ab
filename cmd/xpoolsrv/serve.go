package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/omeyang/xpoolsrv/pkg/config/xconf"
	"github.com/omeyang/xpoolsrv/pkg/distributed/xcron"
	"github.com/omeyang/xpoolsrv/pkg/lifecycle/xrun"
	"github.com/omeyang/xpoolsrv/pkg/net/xserver"
	"github.com/omeyang/xpoolsrv/pkg/observability/xlog"
	"github.com/omeyang/xpoolsrv/pkg/observability/xmetrics"
	"github.com/omeyang/xpoolsrv/pkg/observability/xrotate"
	"github.com/omeyang/xpoolsrv/pkg/observability/xsampling"
	"github.com/omeyang/xpoolsrv/pkg/resilience/xlimit"
	"github.com/omeyang/xpoolsrv/pkg/resilience/xretry"
	"github.com/omeyang/xpoolsrv/pkg/storage/xhits"
	"github.com/omeyang/xpoolsrv/pkg/storage/xpage"
	"github.com/omeyang/xpoolsrv/pkg/util/xnet"
	"github.com/omeyang/xpoolsrv/pkg/util/xpool"
	"github.com/omeyang/xpoolsrv/pkg/util/xsys"
)

// errServerStopped 服务端主动停止接受（达到 max_conns），用于结束整个运行组。
var errServerStopped = errors.New("server stopped accepting")

// serveOptions 命令行对配置文件的覆盖，零值表示不覆盖。
type serveOptions struct {
	configPath string
	addr       string
	workers    int
}

func buildLogger(cfg LogConfig, out io.Writer) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().
		SetOutput(out).
		SetLevelString(cfg.Level).
		SetFormat(cfg.Format).
		SetEnrich(true)
	if cfg.File != "" {
		b = b.SetRotation(cfg.File,
			xrotate.WithMaxSize(cfg.MaxSizeMB),
			xrotate.WithMaxBackups(cfg.MaxBackups),
			xrotate.WithMaxAge(cfg.MaxAgeDays),
			xrotate.WithCompress(cfg.Compress),
		)
	}
	return b.Build()
}

// closers 按注册的逆序关闭
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c closers) close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i]())
	}
	return errors.Join(errs...)
}

func runServe(ctx context.Context, so serveOptions, stderr io.Writer) (err error) {
	cfg, src, err := LoadConfig(so.configPath)
	if err != nil {
		return err
	}
	if so.addr != "" {
		cfg.Server.Addr = so.addr
	}
	if so.workers != 0 {
		cfg.Pool.Size = so.workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, cleanup, err := buildLogger(cfg.Log, stderr)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { err = errors.Join(err, cleanup()) }()
	xlog.SetDefault(logger)
	defer xlog.ResetDefault()

	var cs closers
	defer func() { err = errors.Join(err, cs.close()) }()

	if cfg.Server.MaxOpenFiles > 0 {
		limit, ferr := xsys.RaiseFileLimit(cfg.Server.MaxOpenFiles)
		if ferr != nil {
			logger.Warn(ctx, "xpoolsrv: failed to raise open file limit", xlog.Err(ferr))
		} else {
			logger.Info(ctx, "xpoolsrv: open file limit", slog.Uint64("limit", limit))
		}
	}

	observer, err := xmetrics.NewOTelObserver()
	if err != nil {
		return err
	}

	pool, err := xpool.New(cfg.Pool.Size,
		xpool.WithName("xpoolsrv"),
		xpool.WithQueueSize(cfg.Pool.QueueSize),
		xpool.WithLogger(logger),
		xpool.WithObserver(observer),
	)
	if err != nil {
		return err
	}
	// 线程池最后关闭：所有已接受的连接处理完才退出
	defer func() { err = errors.Join(err, shutdownPool(pool, cfg.Server.ShutdownTimeout, logger)) }()

	unregister, err := xpool.RegisterGauges(pool, otel.GetMeterProvider())
	if err != nil {
		return err
	}
	cs.add(unregister)

	var rdb redis.UniversalClient
	if cfg.Stats.RedisAddr != "" {
		rdb = connectRedis(ctx, cfg.Stats.RedisAddr, logger)
		cs.add(rdb.Close)
	}

	hits, locker, err := buildStores(rdb, logger)
	if err != nil {
		return err
	}
	cs.add(hits.Close)

	pages, err := xpage.New(xpage.WithDir(cfg.Server.StaticDir))
	if err != nil {
		return err
	}
	cs.add(pages.Close)

	sampler, err := xsampling.NewKeyBased(cfg.Log.AccessSampleRate, xsampling.ByClient)
	if err != nil {
		return err
	}
	router, err := xserver.NewRouter(pages,
		xserver.WithAccessLogSampler(sampler),
		xserver.WithSleepDelay(cfg.Server.SleepDelay),
		xserver.WithHits(hits),
		xserver.WithPoolStats(pool.Stats),
		xserver.WithRouterLogger(logger),
	)
	if err != nil {
		return err
	}

	srvOpts, limiter, err := serverOptions(cfg, rdb, logger, observer)
	if err != nil {
		return err
	}
	if limiter != nil {
		cs.add(limiter.Close)
	}
	srv, err := xserver.New(pool, router, srvOpts...)
	if err != nil {
		return err
	}

	sched := xcron.New(xcron.WithLocker(locker), xcron.WithLogger(logger), xcron.WithObserver(observer))
	if _, err := sched.AddFunc(cfg.Stats.ReportCron, reportStats(pool, srv, hits, logger),
		xcron.WithName("stats-report"), xcron.WithTimeout(10*time.Second)); err != nil {
		return fmt.Errorf("stats.report_cron: %w", err)
	}

	services := []xrun.Service{
		xrun.ServiceFunc(func(ctx context.Context) error {
			if err := srv.Run(ctx); err != nil {
				return err
			}
			if ctx.Err() == nil {
				return errServerStopped
			}
			return nil
		}),
		xrun.ServiceFunc(xrun.Stoppable(sched.Start, sched.Stop)),
	}
	if src.Path() != "" {
		w, err := xconf.Watch(src, reloadLogLevel(logger))
		if err != nil {
			return err
		}
		services = append(services, xrun.ServiceFunc(xrun.Stoppable(w.Start, w.Stop)))
	}

	logger.Info(ctx, "xpoolsrv: starting",
		slog.String("addr", cfg.Server.Addr), slog.Int("workers", cfg.Pool.Size))
	runErr := xrun.RunServicesWithOptions(ctx,
		[]xrun.Option{xrun.WithLogger(logger), xrun.WithName("xpoolsrv")}, services...)
	switch {
	case runErr == nil, errors.Is(runErr, errServerStopped), errors.Is(runErr, xrun.ErrSignal):
		logger.Info(ctx, "xpoolsrv: stopping", slog.String("reason", reason(runErr)))
		return nil
	default:
		return runErr
	}
}

func reason(err error) string {
	if err == nil {
		return "context canceled"
	}
	return err.Error()
}

func shutdownPool(pool *xpool.Pool, timeout time.Duration, logger xlog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := pool.Shutdown(ctx); err != nil {
		logger.Error(ctx, "xpoolsrv: worker pool shutdown incomplete", xlog.Err(err))
		return err
	}
	logger.Info(ctx, "xpoolsrv: all workers stopped")
	return nil
}

// connectRedis 启动时探测 Redis，失败只告警，运行期由熔断与降级兜底。
func connectRedis(ctx context.Context, addr string, logger xlog.Logger) redis.UniversalClient {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	r := xretry.NewRetryer(xretry.WithAttempts(3), xretry.WithBackoff(xretry.NewFixedBackoff(200*time.Millisecond)))
	if err := r.Do(ctx, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		logger.Warn(ctx, "xpoolsrv: redis unreachable; using local fallbacks",
			slog.String("addr", addr), xlog.Err(err))
	}
	return rdb
}

func buildStores(rdb redis.UniversalClient, logger xlog.Logger) (xhits.Store, xcron.Locker, error) {
	if rdb == nil {
		return xhits.NewMemory(), xcron.NoopLocker(), nil
	}
	hits, err := xhits.NewRedis(rdb, xhits.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	locker, err := xcron.NewRedisLocker(rdb)
	if err != nil {
		return nil, nil, err
	}
	return hits, locker, nil
}

func serverOptions(cfg Config, rdb redis.UniversalClient, logger xlog.Logger, observer xmetrics.Observer) ([]xserver.Option, xlimit.Limiter, error) {
	allow, err := xnet.NewAllowlist(cfg.Server.AllowCIDRs)
	if err != nil {
		return nil, nil, err
	}
	opts := []xserver.Option{
		xserver.WithAddr(cfg.Server.Addr),
		xserver.WithLogger(logger),
		xserver.WithObserver(observer),
		xserver.WithReadTimeout(cfg.Server.ReadTimeout),
		xserver.WithMaxConns(cfg.Server.MaxConns),
		xserver.WithAcceptRate(cfg.Server.AcceptRate, cfg.Server.AcceptBurst),
		xserver.WithAllowlist(allow),
		xserver.WithBindAttempts(cfg.Server.BindAttempts),
		xserver.WithReusePort(cfg.Server.ReusePort),
	}
	if cfg.Limit.Rate <= 0 {
		return opts, nil, nil
	}
	var limiter xlimit.Limiter
	if rdb != nil {
		limiter, err = xlimit.NewWithFallback(rdb, cfg.Limit, xlimit.WithLogger(logger))
	} else {
		limiter, err = xlimit.NewLocal(cfg.Limit, xlimit.WithLogger(logger))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("limit: %w", err)
	}
	return append(opts, xserver.WithLimiter(limiter)), limiter, nil
}

// reloadLogLevel 配置文件变化时只热更新 log.level。
func reloadLogLevel(logger xlog.LoggerWithLevel) xconf.WatchCallback {
	return func(c xconf.Config, err error) {
		ctx := context.Background()
		if err != nil {
			logger.Warn(ctx, "xpoolsrv: config reload failed; keeping previous settings", xlog.Err(err))
			return
		}
		raw := c.Client().String("log.level")
		if raw == "" {
			return
		}
		level, err := xlog.ParseLevel(raw)
		if err != nil {
			logger.Warn(ctx, "xpoolsrv: ignoring invalid log.level", slog.String("level", raw), xlog.Err(err))
			return
		}
		if level != logger.GetLevel() {
			logger.SetLevel(level)
			logger.Info(ctx, "xpoolsrv: log level changed", slog.String("level", level.String()))
		}
	}
}

// reportStats 周期性输出线程池、连接与访问计数。
func reportStats(pool *xpool.Pool, srv *xserver.Server, hits xhits.Store, logger xlog.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ps := pool.Stats()
		ss := srv.Stats()
		attrs := []slog.Attr{
			slog.Int("workers", ps.Workers),
			slog.Int("alive", ps.Alive),
			slog.Int("active", ps.Active),
			slog.Int("pending", ps.Pending),
			slog.Uint64("completed", ps.Completed),
			slog.Uint64("panicked", ps.Panicked),
			slog.Uint64("accepted", ss.Accepted),
			slog.Uint64("handled", ss.Handled),
			slog.Uint64("limited", ss.Limited),
			slog.Uint64("denied", ss.Denied),
		}
		snap, err := hits.Snapshot(ctx)
		if err != nil {
			return err
		}
		var total int64
		for _, n := range snap {
			total += n
		}
		attrs = append(attrs, slog.Int64("hits", total))
		logger.Info(ctx, "xpoolsrv: stats", attrs...)
		return nil
	}
}
