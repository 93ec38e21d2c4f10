package client

import (
	"sync"

	"github.com/modelctx/mcp-client-go/pkg/logging"
)

// workerQueueSize bounds how many tasks a worker may hold before the
// dispatcher starts dropping new ones instead of blocking.
const workerQueueSize = 64

// worker executes tasks one at a time on its own goroutine, preserving
// enqueue order. The dispatcher hands consumer fan-out and list refreshes to
// workers so a slow consumer cannot stall correlation.
type worker struct {
	name   string
	logger logging.Logger
	tasks  chan func()
	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func newWorker(name string, logger logging.Logger) *worker {
	w := &worker{
		name:   name,
		logger: logger,
		tasks:  make(chan func(), workerQueueSize),
		stopCh: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *worker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopCh:
			return
		case task := <-w.tasks:
			task()
		}
	}
}

// enqueue hands a task to the worker without blocking. When the queue is
// full the task is dropped and logged; correctness-critical events must not
// rely on unbounded buffering.
func (w *worker) enqueue(task func()) {
	select {
	case <-w.stopCh:
	case w.tasks <- task:
	default:
		w.logger.Warn("worker queue full, dropping task",
			logging.String("worker", w.name),
		)
	}
}

func (w *worker) stop() {
	w.once.Do(func() {
		close(w.stopCh)
	})
	w.wg.Wait()
}
