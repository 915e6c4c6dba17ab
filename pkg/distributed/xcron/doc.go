// Package xcron 基于 [robfig/cron/v3] 的定时任务调度。
//
// 在 cron 之上增加：
//   - 多副本互斥：命名任务执行前通过 Locker 抢锁，抢不到则跳过本次
//   - 超时控制与 panic 恢复
//   - 执行统计与 xmetrics 跨度
//
// xpoolsrv 用它周期性输出线程池与访问计数报表。单实例部署使用
// NoopLocker，多实例共享 Redis 时使用 NewRedisLocker（redsync）保证同一时刻只有一个实例上报。
//
// [robfig/cron/v3]: https://github.com/robfig/cron
package xcron
