package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/xpoolsrv/pkg/config/xconf"
	"github.com/omeyang/xpoolsrv/pkg/observability/xlog"
	"github.com/omeyang/xpoolsrv/pkg/resilience/xlimit"
	"github.com/omeyang/xpoolsrv/pkg/util/xnet"
)

// Config 应用配置
type Config struct {
	Pool   PoolConfig   `koanf:"pool"`
	Server ServerConfig `koanf:"server"`
	Limit  xlimit.Limit `koanf:"limit"`
	Log    LogConfig    `koanf:"log"`
	Stats  StatsConfig  `koanf:"stats"`
}

type PoolConfig struct {
	Size      int `koanf:"size"`
	QueueSize int `koanf:"queue_size"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	SleepDelay      time.Duration `koanf:"sleep_delay"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	MaxConns        uint64        `koanf:"max_conns"`
	AcceptRate      float64       `koanf:"accept_rate"`
	AcceptBurst     int           `koanf:"accept_burst"`
	AllowCIDRs      []string      `koanf:"allow_cidrs"`
	ReusePort       bool          `koanf:"reuse_port"`
	BindAttempts    int           `koanf:"bind_attempts"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	StaticDir       string        `koanf:"static_dir"`
	MaxOpenFiles    uint64        `koanf:"max_open_files"`
}

type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`

	// AccessSampleRate 按客户端 IP 一致采样访问日志，1 为全部记录。
	AccessSampleRate float64 `koanf:"access_sample_rate"`
}

type StatsConfig struct {
	RedisAddr  string `koanf:"redis_addr"`
	ReportCron string `koanf:"report_cron"`
}

func DefaultConfig() Config {
	return Config{
		Pool: PoolConfig{Size: 4},
		Server: ServerConfig{
			Addr:            "127.0.0.1:7878",
			SleepDelay:      5 * time.Second,
			ReadTimeout:     10 * time.Second,
			AcceptBurst:     1,
			BindAttempts:    3,
			ShutdownTimeout: 30 * time.Second,
		},
		Limit: xlimit.Limit{Period: time.Second},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 7,
			MaxAgeDays: 30,

			AccessSampleRate: 1,
		},
		Stats: StatsConfig{ReportCron: "@every 1m"},
	}
}

var errInvalidConfig = errors.New("invalid config")

// LoadConfig 在默认值之上加载 path，path 为空时只用默认值。
// 返回的 xconf.Config 用于监视文件变化。
func LoadConfig(path string) (Config, xconf.Config, error) {
	var (
		src xconf.Config
		err error
	)
	if path == "" {
		src, err = xconf.NewFromBytes(nil, xconf.FormatYAML)
	} else {
		src, err = xconf.New(path)
	}
	if err != nil {
		return Config{}, nil, err
	}
	cfg := DefaultConfig()
	if err := src.Unmarshal("", &cfg); err != nil {
		return Config{}, nil, err
	}
	return cfg, src, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Pool.Size < 1 {
		errs = append(errs, fmt.Errorf("pool.size must be positive, got %d", c.Pool.Size))
	}
	if c.Pool.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("pool.queue_size must not be negative, got %d", c.Pool.QueueSize))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.SleepDelay < 0 || c.Server.ReadTimeout < 0 {
		errs = append(errs, errors.New("server.sleep_delay and server.read_timeout must not be negative"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Server.BindAttempts < 1 {
		errs = append(errs, errors.New("server.bind_attempts must be at least 1"))
	}
	if _, err := xnet.ParseRanges(c.Server.AllowCIDRs); err != nil {
		errs = append(errs, fmt.Errorf("server.allow_cidrs: %w", err))
	}
	if c.Limit.Rate < 0 || c.Limit.Burst < 0 || (c.Limit.Rate > 0 && c.Limit.Period <= 0) {
		errs = append(errs, errors.New("limit: rate and burst must not be negative; period must be positive"))
	}
	if _, err := xlog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.AccessSampleRate < 0 || c.Log.AccessSampleRate > 1 {
		errs = append(errs, fmt.Errorf("log.access_sample_rate must be within [0, 1], got %v", c.Log.AccessSampleRate))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", errInvalidConfig, errors.Join(errs...))
}
