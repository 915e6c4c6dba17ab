package xmetrics

import "errors"

var (
	// ErrCreateInstrument 创建 OTel 指标失败
	ErrCreateInstrument = errors.New("xmetrics: create instrument failed")

	// ErrNilProvider RegisterInt64Gauges 收到 nil MeterProvider
	ErrNilProvider = errors.New("xmetrics: nil meter provider")
)
