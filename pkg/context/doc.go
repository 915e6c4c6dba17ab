// Package context 提供上下文相关的子包。
//
// 子包列表：
//   - xctx: Context 增强，注入/提取请求 ID、连接 ID、对端地址
//
// 设计原则：
//   - 所有请求级信息通过 context.Context 传递，不使用全局变量
//   - 日志通过 xlog.EnrichHandler 自动带出这些字段
package context
