// Package xlog 基于 log/slog 的结构化日志库。
//
// # 创建 Logger
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/xpoolsrv.log", xrotate.WithMaxSize(100)).
//		Build()
//	defer cleanup()
//
// Builder 采用 first-error-wins：第一个配置错误在 Build 时返回。
//
// # Context 注入
//
// 默认启用 [EnrichHandler]，自动带出 xctx 中的 request_id、conn_id、remote_addr。
//
// # 动态级别
//
// Build 返回 [LoggerWithLevel]，SetLevel 对所有派生 logger 同步生效，
// xpoolsrv 在配置热更新时用它调整 log.level。
//
// # 全局 Logger
//
// [Default] 惰性创建（stderr、Info、text），[SetDefault] 替换，[ResetDefault] 仅用于测试。
package xlog
