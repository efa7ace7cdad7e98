package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"bekal-bangsa/internal/core/ai/provider"
	"bekal-bangsa/internal/infrastructure/config"
	"bekal-bangsa/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("queue manager is closed")

// Request is a queued provider call.
type Request struct {
	Context context.Context
	Request *provider.Request
	Result  chan Result
}

// Result is the outcome of a provider call.
type Result struct {
	Response *provider.Response
	Error    error
}

// Status is a snapshot of the queue.
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager runs provider calls on a fixed pool of workers behind a bounded queue.
type Manager struct {
	config    config.QueueConfig
	provider  provider.Provider
	queue     chan *Request
	done      chan struct{}
	processed int64
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewManager creates the queue and starts its workers.
func NewManager(cfg config.QueueConfig, p provider.Provider) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = cfg.Workers
	}

	m := &Manager{
		config:   cfg,
		provider: p,
		queue:    make(chan *Request, cfg.MaxSize),
		done:     make(chan struct{}),
	}

	for i := 0; i < cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	common.LogInfo("AI request queue started",
		zap.Int("workers", cfg.Workers),
		zap.Int("max_queue_size", cfg.MaxSize),
	)
	return m
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()

	for {
		select {
		case req := <-m.queue:
			m.handle(id, req)
		case <-m.done:
			return
		}
	}
}

func (m *Manager) handle(id int, req *Request) {
	defer atomic.AddInt64(&m.processed, 1)

	if err := req.Context.Err(); err != nil {
		req.Result <- Result{Error: err}
		return
	}

	resp, err := m.provider.Generate(req.Context, req.Request)
	if err != nil {
		common.LogWarn("AI request failed", zap.Int("worker", id), zap.Error(err))
	}
	req.Result <- Result{Response: resp, Error: err}
}

// Enqueue adds a request. It fails fast with common.ErrQueueFull when the queue is at capacity.
func (m *Manager) Enqueue(ctx context.Context, req *provider.Request) (<-chan Result, error) {
	select {
	case <-m.done:
		return nil, ErrClosed
	default:
	}

	queueReq := &Request{
		Context: ctx,
		Request: req,
		Result:  make(chan Result, 1),
	}

	select {
	case m.queue <- queueReq:
		common.LogDebug("request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.config.MaxSize),
		)
		return queueReq.Result, nil
	default:
		return nil, common.ErrQueueFull
	}
}

// Do enqueues req and waits for its result.
func (m *Manager) Do(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	ch, err := m.Enqueue(ctx, req)
	if err != nil {
		return nil, err
	}
	select {
	case res := <-ch:
		return res.Response, res.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetQueueStatus returns a snapshot of the queue.
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		MaxQueueSize:   m.config.MaxSize,
		Workers:        m.config.Workers,
	}
}

// Close stops the workers. Requests still queued are abandoned.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}
