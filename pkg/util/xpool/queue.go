package xpool

import "sync"

// compactThreshold 出队游标超过该值且已消费过半时整理底层切片。
const compactThreshold = 64

// jobQueue 是多生产者、多消费者共享出队点的 FIFO 队列。
//
// 入队端可被任意 goroutine 并发使用；出队端由所有 worker 共享，
// mu 只在取任务的瞬间持有。close 之后仍可取出已缓冲的任务，
// 排空后 pop 返回 false 而不是阻塞。
type jobQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []Job
	head     int
	capacity int // 0 表示无界
	closed   bool
}

func newJobQueue(capacity int) *jobQueue {
	q := &jobQueue{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// push 将任务追加到队尾，永不阻塞。
func (q *jobQueue) push(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrPoolStopped
	}
	if q.capacity > 0 && q.lenLocked() >= q.capacity {
		return ErrQueueFull
	}
	q.items = append(q.items, job)
	q.notEmpty.Signal()
	return nil
}

// pop 阻塞直到取到任务，或队列已关闭且为空（返回 false）。
func (q *jobQueue) pop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.lenLocked() == 0 {
		if q.closed {
			return nil, false
		}
		q.notEmpty.Wait()
	}

	job := q.items[q.head]
	q.items[q.head] = nil // 释放闭包引用
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= compactThreshold && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return job, true
}

// close 关闭入队端并唤醒所有等待的 worker。
// 只有第一次调用返回 true。
func (q *jobQueue) close() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.closed = true
	q.notEmpty.Broadcast()
	return true
}

// len 返回当前缓冲的任务数。
func (q *jobQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

func (q *jobQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *jobQueue) lenLocked() int {
	return len(q.items) - q.head
}
