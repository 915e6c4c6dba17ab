// Package xsampling 决定一次事件是否被记录。
//
// xpoolsrv 用它对访问日志采样：高并发压测时每个请求一条 Info 日志会淹没输出，
// 按客户端一致采样（ByClient）使同一客户端的请求要么全记、要么全不记，便于排查。
//
//	s, _ := xsampling.NewKeyBased(0.1, xsampling.ByClient)
//	if s.ShouldSample(ctx) { ... }
package xsampling
