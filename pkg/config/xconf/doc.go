// Package xconf 基于 koanf 加载 YAML/JSON 配置，并通过 fsnotify 监视文件变更。
//
//	cfg, err := xconf.New("/etc/xpoolsrv/config.yaml")
//	var app AppConfig
//	err = cfg.Unmarshal("", &app)
//
//	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) { ... })
//	w.StartAsync()
//	defer w.Stop()
//
// 监视的是文件所在目录，编辑器"写临时文件再 rename"的保存方式也能被捕获。
// 连续变更在防抖窗口内只触发一次 Reload。
package xconf
