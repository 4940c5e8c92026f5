package orchestration

import (
	"sync"
	"time"
)

// serialQueue runs queued functions one at a time, in order, on a single
// goroutine. Posting never blocks, so functions running on the queue may post
// more work to it.
type serialQueue struct {
	name string

	mu      sync.Mutex
	pending []queuedTask
	wake    chan struct{}

	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once
}

type queuedTask struct {
	run      func()
	queuedAt time.Time
}

func newSerialQueue(name string) *serialQueue {
	return &serialQueue{
		name:    name,
		wake:    make(chan struct{}, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (q *serialQueue) start() {
	q.startOnce.Do(func() {
		go func() {
			defer close(q.done)
			for {
				select {
				case <-q.closeCh:
					return
				case <-q.wake:
				}

				for {
					q.mu.Lock()
					if len(q.pending) == 0 {
						q.mu.Unlock()
						break
					}
					task := q.pending[0]
					q.pending[0] = queuedTask{}
					q.pending = q.pending[1:]
					q.mu.Unlock()

					if q.isClosed() {
						return
					}
					if waited := time.Since(task.queuedAt); waited > time.Second {
						logger.Debug("queued task waited long", "queue", q.name, "waited", waited)
					}
					task.run()
				}
			}
		}()
	})
}

// post queues fn. It reports false once the queue is closed.
func (q *serialQueue) post(fn func()) bool {
	if q.isClosed() {
		return false
	}

	q.start()
	q.mu.Lock()
	q.pending = append(q.pending, queuedTask{run: fn, queuedAt: time.Now()})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// call runs fn on the queue and waits for it. It must not be used from a
// function already running on the queue.
func (q *serialQueue) call(fn func() error) error {
	result := make(chan error, 1)
	if !q.post(func() { result <- fn() }) {
		return ErrClosed
	}

	select {
	case err := <-result:
		return err
	case <-q.done:
		select {
		case err := <-result:
			return err
		default:
			return ErrClosed
		}
	}
}

func (q *serialQueue) end() {
	q.endOnce.Do(func() { close(q.closeCh) })
}

func (q *serialQueue) waitUntilEnded() {
	q.start()
	<-q.done
}

func (q *serialQueue) isClosed() bool {
	select {
	case <-q.closeCh:
		return true
	default:
		return false
	}
}
