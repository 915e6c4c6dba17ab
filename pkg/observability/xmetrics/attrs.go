package xmetrics

import "time"

func String(key, value string) Attr { return Attr{Key: key, Value: value} }

func Bool(key string, value bool) Attr { return Attr{Key: key, Value: value} }

func Int(key string, value int) Attr { return Attr{Key: key, Value: value} }

func Int64(key string, value int64) Attr { return Attr{Key: key, Value: value} }

func Uint64(key string, value uint64) Attr { return Attr{Key: key, Value: value} }

// Duration 以纳秒整数记录，key 建议带单位。
func Duration(key string, value time.Duration) Attr { return Attr{Key: key, Value: value} }

// Any 非基础类型以 fmt.Sprint 结果记录。
func Any(key string, value any) Attr { return Attr{Key: key, Value: value} }
