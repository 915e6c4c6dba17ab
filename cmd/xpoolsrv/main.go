// xpoolsrv 是基于固定大小线程池的演示服务端。
//
// 用法:
//
//	xpoolsrv serve [--config FILE] [--addr ADDR] [--workers N]
//	xpoolsrv probe [--addr ADDR] [--path /sleep]
//	xpoolsrv version
//
// serve 的每个连接作为一个任务提交到线程池；收到 SIGINT/SIGTERM 或达到
// server.max_conns 后停止接受，等待已接受的连接处理完（上限 server.shutdown_timeout）后退出。
// 配置文件修改后 log.level 即时生效，其余配置需重启。
//
// 退出码:
//
//	0: 成功
//	1: 运行失败
//	2: 参数或配置错误
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
)

// 版本信息，构建时通过 -ldflags "-X main.Version=..." 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// usageError 参数错误，退出码 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := createApp(stdout, stderr)
	if err := app.Run(ctx, args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) || errors.Is(err, errInvalidConfig) || isCLIUsageError(err) {
			fmt.Fprintf(stderr, "usage error: %v\n", err)
			return 2
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xpoolsrv",
		Usage:     "fixed-size worker pool demo server",
		Version:   versionString(),
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			serveCommand(stderr),
			probeCommand(stdout),
			versionCommand(stdout),
		},
		// 退出码由 run 统一映射
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func serveCommand(stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file (.yaml/.yml/.json)"},
			&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Usage: "listen address, overrides server.addr"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "worker count, overrides pool.size"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.IsSet("workers") && cmd.Int("workers") < 1 {
				return &usageError{msg: fmt.Sprintf("--workers must be positive, got %d", cmd.Int("workers"))}
			}
			return runServe(ctx, serveOptions{
				configPath: cmd.String("config"),
				addr:       cmd.String("addr"),
				workers:    cmd.Int("workers"),
			}, stderr)
		},
	}
}

func probeCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "send one request and print the response",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Value: "127.0.0.1:7878", Usage: "server address"},
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Value: "/", Usage: "request path"},
			&cli.DurationFlag{Name: "timeout", Aliases: []string{"t"}, Value: 10 * time.Second, Usage: "overall timeout, must be positive"},
			&cli.IntFlag{Name: "attempts", Value: 3, Usage: "connect attempts"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runProbe(ctx, probeOptions{
				addr:     cmd.String("addr"),
				path:     cmd.String("path"),
				timeout:  cmd.Duration("timeout"),
				attempts: cmd.Int("attempts"),
			}, stdout)
		},
	}
}

func versionCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print version information",
		Action: func(context.Context, *cli.Command) error {
			_, err := fmt.Fprintln(stdout, "xpoolsrv "+versionString())
			return err
		},
	}
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime)
}

// isCLIUsageError 识别 urfave/cli 产生的参数解析错误。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, p := range []string{"flag provided but not defined", "invalid value", "No help topic for", "invalid boolean"} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
