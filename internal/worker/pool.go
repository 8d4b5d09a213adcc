// Package worker runs long commands off the dispatch path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrPoolClosed is returned when a task is submitted after Close
	ErrPoolClosed = errors.New("worker pool: closed")
	// ErrQueueFull indicates the queue is saturated and the task was not accepted
	ErrQueueFull = errors.New("worker pool: queue full")
)

// Task is a unit of background work
type Task struct {
	Name string
	Run  func(ctx context.Context) error
	// OnError receives the failure of Run, a timeout or a recovered panic.
	// Its context is not bound to the task deadline.
	OnError func(ctx context.Context, err error)
}

// Options controls the pool size and per-task deadline
type Options struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

type job struct {
	id   string
	task Task
}

// Pool executes tasks on a fixed number of goroutines
type Pool struct {
	opts   Options
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan job

	once sync.Once
	wg   sync.WaitGroup
}

// NewPool starts a pool with defaults for zeroed options
func NewPool(opts Options, logger *zap.Logger) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize < 0 {
		opts.QueueSize = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}

	p := &Pool{
		opts:   opts,
		logger: logger,
		jobs:   make(chan job, opts.QueueSize),
	}

	p.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go p.worker()
	}
	return p
}

// Submit schedules a task and returns its id
func (p *Pool) Submit(task Task) (string, error) {
	if task.Run == nil {
		return "", errors.New("worker pool: nil run function")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return "", ErrPoolClosed
	}

	j := job{id: uuid.NewString(), task: task}
	select {
	case p.jobs <- j:
		p.logger.Debug("Task queued", zap.String("task_id", j.id), zap.String("task", task.Name))
		return j.id, nil
	default:
		return "", ErrQueueFull
	}
}

// Close stops accepting tasks, drains the queue and waits for workers
func (p *Pool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.handle(j)
	}
}

func (p *Pool) handle(j job) {
	log := p.logger.With(zap.String("task_id", j.id), zap.String("task", j.task.Name))
	start := time.Now()

	err := p.run(j.task)
	if err == nil {
		log.Info("Task completed", zap.Duration("elapsed", time.Since(start)))
		return
	}

	log.Error("Task failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
	if j.task.OnError == nil {
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Task error hook panicked", zap.Any("panic", r))
			}
		}()
		j.task.OnError(context.Background(), err)
	}()
}

func (p *Pool) run(task Task) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()

	if err := task.Run(ctx); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("timed out after %s: %w", p.opts.Timeout, err)
		}
		return err
	}
	return nil
}
