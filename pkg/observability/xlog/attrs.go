package xlog

import (
	"log/slog"
	"time"

	"github.com/omeyang/xpoolsrv/pkg/context/xctx"
)

// 标准字段名
const (
	KeyError      = "error"
	KeyStack      = "stack"
	KeyDuration   = "duration"
	KeyCount      = "count"
	KeyComponent  = "component"
	KeyOperation  = "operation"
	KeyWorker     = "worker"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatusCode = "status_code"

	// 与 xctx 保持一致，EnrichHandler 注入时使用同名字段
	KeyRequestID  = xctx.KeyRequestID
	KeyConnID     = xctx.KeyConnID
	KeyRemoteAddr = xctx.KeyRemoteAddr
)

// Err 创建错误属性，err 为 nil 时返回会被 slog 忽略的空属性。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建可读格式的耗时属性，如 "1.5s"。
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Worker 创建 worker 编号属性。
func Worker(id int) slog.Attr {
	return slog.Int(KeyWorker, id)
}

func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

func StatusCode(code int) slog.Attr {
	return slog.Int(KeyStatusCode, code)
}
