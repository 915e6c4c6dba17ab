// Package xmetrics 定义统一的观测接口（Observer/Span/Result），
// 默认实现基于 OpenTelemetry，业务只依赖接口。
//
//	obs, _ := xmetrics.NewOTelObserver(xmetrics.WithMeterProvider(mp))
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xserver",
//		Operation: "conn",
//		Kind:      xmetrics.KindServer,
//	})
//	defer func() { span.End(xmetrics.Result{Err: err}) }()
//
// 指标：
//   - xpoolsrv.operation.total（counter，属性 component/operation/status）
//   - xpoolsrv.operation.duration（histogram，单位秒）
//
// [RegisterInt64Gauges] 把任意读数函数注册为 observable gauge，
// xpool 用它导出队列长度、活跃 worker 等。
package xmetrics
