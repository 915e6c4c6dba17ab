// Package config 提供配置相关的子包。
//
// 子包列表：
//   - xconf: 基于 koanf 的配置加载与文件热更新
package config
