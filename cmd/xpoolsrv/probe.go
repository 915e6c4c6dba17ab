package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/omeyang/xpoolsrv/pkg/resilience/xretry"
)

type probeOptions struct {
	addr     string
	path     string
	timeout  time.Duration
	attempts int
}

// runProbe 发送一个请求行并把完整响应写到 out。
func runProbe(ctx context.Context, po probeOptions, out io.Writer) error {
	if po.path == "" || po.path[0] != '/' {
		return &usageError{msg: fmt.Sprintf("path must start with '/', got %q", po.path)}
	}
	if po.timeout <= 0 {
		return &usageError{msg: fmt.Sprintf("timeout must be positive, got %s", po.timeout)}
	}
	ctx, cancel := context.WithTimeout(ctx, po.timeout)
	defer cancel()

	var d net.Dialer
	r := xretry.NewRetryer(
		xretry.WithAttempts(max(po.attempts, 1)),
		xretry.WithBackoff(xretry.NewExponentialBackoff(xretry.WithInitialDelay(100*time.Millisecond))),
	)
	conn, err := xretry.DoWithResult(ctx, r, func(ctx context.Context) (net.Conn, error) {
		return d.DialContext(ctx, "tcp", po.addr)
	})
	if err != nil {
		return fmt.Errorf("connect %s: %w", po.addr, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := fmt.Fprintf(conn, "GET %s HTTP/1.1\r\nHost: %s\r\n\r\n", po.path, po.addr); err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	if _, err := io.Copy(out, conn); err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	return nil
}
