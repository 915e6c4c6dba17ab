package xrun

import (
	"context"
	"os"
	"syscall"
	"time"
)

// DefaultSignals 返回 SIGHUP、SIGINT、SIGTERM、SIGQUIT，每次返回新切片。
func DefaultSignals() []os.Signal {
	return []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}
}

// 测试通过 context 注入信号，避免向进程发送真实信号。
type testSigChanKey struct{}

func testSigChan(ctx context.Context) <-chan os.Signal {
	c, _ := ctx.Value(testSigChanKey{}).(<-chan os.Signal)
	return c
}

func withTestSigChan(ctx context.Context, c <-chan os.Signal) context.Context {
	return context.WithValue(ctx, testSigChanKey{}, c)
}

// Ticker 每隔 interval 执行一次 fn，immediate 为 true 时启动即执行。
// fn 出错则服务以该错误退出。
func Ticker(interval time.Duration, immediate bool, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return ErrInvalidInterval
		}
		if fn == nil {
			return ErrNilFunc
		}
		if immediate {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx); err != nil {
				return err
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Stoppable 适配 Start/Stop 形式的组件（如 xconf.Watcher、xcron.Scheduler）：
// start 在后台运行，ctx 取消时调用 stop 并等待 start 返回。
func Stoppable(start func(), stop func() error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if start == nil || stop == nil {
			return ErrNilFunc
		}
		started := make(chan struct{})
		go func() {
			defer close(started)
			start()
		}()
		<-ctx.Done()
		err := stop()
		<-started
		if err != nil {
			return err
		}
		return ctx.Err()
	}
}

// WaitForDone 阻塞到 ctx 取消。
func WaitForDone() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
}
