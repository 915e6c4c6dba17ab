// Package xrotate 为日志文件提供按大小轮转。
//
// [NewLumberjack] 返回的 [Rotator] 可直接作为 xlog 的输出目标；
// xpoolsrv 在配置了 log.file 时通过它写日志。
package xrotate
