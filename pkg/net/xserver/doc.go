// Package xserver 是以 xpool 为执行器的 TCP 服务端。
//
// 接受循环运行在调用 Serve 的 goroutine 中，每个被接受的连接封装为一个
// xpool.Job 提交到线程池，由 worker 调用 Handler 处理后关闭连接。
//
// 接受阶段按顺序执行：连接数上限（WithMaxConns）、接受速率（WithAcceptRate）、
// 来源地址白名单（WithAllowlist）、按客户端限流（WithLimiter，超限直接回 429）。
//
// Router 是默认的 Handler，只读取请求行，支持：
//
//	GET /       200 hello 页面
//	GET /sleep  等待 sleep_delay 后返回 hello 页面
//	GET /stats  线程池统计与访问计数
//	其他         404 页面；空请求行 400
package xserver

//go:generate mockgen -source=server.go -destination=mock_test.go -package=xserver
