// Package xctx 在 context.Context 中携带请求级标识。
//
// 字段：
//   - request_id: 单次请求的唯一 ID，由 [EnsureRequestID] 用 UUID 生成
//   - conn_id: 服务端为连接分配的递增编号
//   - remote_addr: 对端地址
//
// 所有 With* 函数拒绝 nil context（返回 [ErrNilContext]），
// 所有读取函数对 nil context 返回零值。
//
// [AppendAttrs] 把已设置的字段追加为 slog.Attr，供 xlog 的 EnrichHandler 使用。
package xctx
