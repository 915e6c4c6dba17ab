// Package distributed 提供多实例协调相关的子包。
//
// 子包列表：
//   - xcron: 定时任务，命名任务通过 Redis 锁（redsync）保证单实例执行
//
// 设计原则：
//   - 未配置 Redis 时退化为单实例行为，不影响主流程
//   - 锁只在本次执行期间持有，超时自动释放
package distributed
