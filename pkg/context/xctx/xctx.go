package xctx

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// contextKey 包私有类型，避免与其他包的 key 冲突。
type contextKey string

const (
	keyRequestID  contextKey = "request_id"
	keyConnID     contextKey = "conn_id"
	keyRemoteAddr contextKey = "remote_addr"
)

// 日志字段名。
const (
	KeyRequestID  = "request_id"
	KeyConnID     = "conn_id"
	KeyRemoteAddr = "remote_addr"
)

// fieldCount 可注入日志的字段数量。
const fieldCount = 3

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xctx: nil context")

	// ErrMissingRequestID request_id 缺失
	ErrMissingRequestID = errors.New("xctx: missing request_id")
)

// =============================================================================
// request_id
// =============================================================================

// WithRequestID 注入请求 ID。
func WithRequestID(ctx context.Context, id string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyRequestID, id), nil
}

// RequestID 返回请求 ID，未设置时返回空字符串。
func RequestID(ctx context.Context) string {
	return stringValue(ctx, keyRequestID)
}

// MustRequestID 返回请求 ID，未设置时返回 ErrMissingRequestID。
func MustRequestID(ctx context.Context) (string, error) {
	if v := RequestID(ctx); v != "" {
		return v, nil
	}
	return "", ErrMissingRequestID
}

// EnsureRequestID 若 ctx 中没有请求 ID 则生成一个 UUID 注入。
// 返回新 context 与最终使用的 ID。
func EnsureRequestID(ctx context.Context) (context.Context, string, error) {
	if ctx == nil {
		return nil, "", ErrNilContext
	}
	if v := RequestID(ctx); v != "" {
		return ctx, v, nil
	}
	id := uuid.NewString()
	return context.WithValue(ctx, keyRequestID, id), id, nil
}

// =============================================================================
// conn_id
// =============================================================================

// WithConnID 注入连接编号。
func WithConnID(ctx context.Context, id uint64) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyConnID, id), nil
}

// ConnID 返回连接编号；第二个返回值表示是否设置过。
func ConnID(ctx context.Context) (uint64, bool) {
	if ctx == nil {
		return 0, false
	}
	v, ok := ctx.Value(keyConnID).(uint64)
	return v, ok
}

// =============================================================================
// remote_addr
// =============================================================================

// WithRemoteAddr 注入对端地址。
func WithRemoteAddr(ctx context.Context, addr string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyRemoteAddr, addr), nil
}

// RemoteAddr 返回对端地址，未设置时返回空字符串。
func RemoteAddr(ctx context.Context) string {
	return stringValue(ctx, keyRemoteAddr)
}

// =============================================================================
// slog 集成
// =============================================================================

// AppendAttrs 将 context 中已设置的字段追加到 attrs。
// 传入预分配切片时热路径零分配。
func AppendAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if v := RequestID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyRequestID, v))
	}
	if v, ok := ConnID(ctx); ok {
		attrs = append(attrs, slog.Uint64(KeyConnID, v))
	}
	if v := RemoteAddr(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyRemoteAddr, v))
	}
	return attrs
}

// Attrs 返回 context 中已设置的字段，全部为空时返回 nil。
func Attrs(ctx context.Context) []slog.Attr {
	attrs := AppendAttrs(make([]slog.Attr, 0, fieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
