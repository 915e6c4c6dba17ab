package xmetrics

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/metric"
)

// RegisterInt64Gauges 为每个 name→读数函数注册一个 Int64ObservableGauge，
// 采集时统一在一个回调中读取。返回的函数用于注销回调。
func RegisterInt64Gauges(provider metric.MeterProvider, gauges map[string]func() int64) (func() error, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	meter := provider.Meter(defaultInstrumentationName)

	// 固定顺序，保证注册失败时报错稳定
	names := make([]string, 0, len(gauges))
	for name := range gauges {
		names = append(names, name)
	}
	sort.Strings(names)

	type entry struct {
		gauge metric.Int64ObservableGauge
		read  func() int64
	}
	entries := make([]entry, 0, len(names))
	instruments := make([]metric.Observable, 0, len(names))
	for _, name := range names {
		read := gauges[name]
		if read == nil {
			continue
		}
		g, err := meter.Int64ObservableGauge(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, name, err)
		}
		entries = append(entries, entry{gauge: g, read: read})
		instruments = append(instruments, g)
	}

	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for _, e := range entries {
			o.ObserveInt64(e.gauge, e.read())
		}
		return nil
	}, instruments...)
	if err != nil {
		return nil, fmt.Errorf("%w: callback: %w", ErrCreateInstrument, err)
	}
	return reg.Unregister, nil
}
