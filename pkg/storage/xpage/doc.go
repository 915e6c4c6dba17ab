// Package xpage 提供服务端返回的静态页面。
//
// 页面内嵌在二进制中（hello.html、404.html），可用 WithDir 指定目录覆盖：
// 目录中存在同名文件时优先使用，否则回退到内嵌版本。
// 读取结果缓存在 xlru 中，TTL 到期后重新读盘，修改目录中的页面无需重启。
package xpage
