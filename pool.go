package vhttpd

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Pool is a fixed set of workers draining one FIFO job queue. A pool of one
// runs jobs strictly one after another.
type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup
	once sync.Once
	log  *zerolog.Logger
}

func NewPool(size int, l *zerolog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if l == nil {
		l = GetLogger()
	}

	p := &Pool{
		jobs: make(chan func(), size),
		log:  l,
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker(i)
	}
	return p
}

// Submit queues job, blocking while the queue is full. Submit after Close panics.
func (p *Pool) Submit(job func()) {
	p.jobs <- job
}

// Close stops intake and waits for queued and running jobs to finish.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(id, job)
	}
}

// run executes job, keeping the worker alive if it panics.
func (p *Pool) run(id int, job func()) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logPanic(p.log, id, recovered, debug.Stack())
		}
	}()
	job()
}

func logPanic(logger *zerolog.Logger, worker int, recovered interface{}, stack []byte) {
	var msg string
	switch v := recovered.(type) {
	case error:
		msg = v.Error()
	case string:
		msg = v
	default:
		msg = fmt.Sprintf("%v", recovered)
	}

	stackArr := zerolog.Arr()
	for _, line := range strings.Split(strings.TrimSpace(string(stack)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			stackArr = stackArr.Str(line)
		}
	}

	logger.Error().
		Int("worker", worker).
		Str("panic_summary", msg).
		Array("stack_array", stackArr).
		Msg("[vhttpd-panic] Panic recovered: " + msg)
}
