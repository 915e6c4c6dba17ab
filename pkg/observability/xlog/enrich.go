package xlog

import (
	"context"
	"log/slog"

	"github.com/omeyang/xpoolsrv/pkg/context/xctx"
)

// maxEnrichAttrs request_id + conn_id + remote_addr
const maxEnrichAttrs = 3

// EnrichHandler 装饰 slog.Handler，在 Handle 时从 context 注入
// request_id、conn_id、remote_addr。缺少字段时不影响日志输出。
//
// 对带 enrich 的 logger 调用 WithGroup 后，注入字段会落在该 group 下。
type EnrichHandler struct {
	base slog.Handler
}

// NewEnrichHandler 包装 base，base 为 nil 时返回 ErrNilHandler。
func NewEnrichHandler(base slog.Handler) (*EnrichHandler, error) {
	if base == nil {
		return nil, ErrNilHandler
	}
	return &EnrichHandler{base: base}, nil
}

func (h *EnrichHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle 按 slog 约定先 Clone record 再追加属性。
func (h *EnrichHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf [maxEnrichAttrs]slog.Attr
	attrs := xctx.AppendAttrs(buf[:0], ctx)
	if len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.base.Handle(ctx, r)
}

func (h *EnrichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EnrichHandler{base: h.base.WithAttrs(attrs)}
}

func (h *EnrichHandler) WithGroup(name string) slog.Handler {
	return &EnrichHandler{base: h.base.WithGroup(name)}
}
