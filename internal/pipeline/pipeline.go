package pipeline

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/freshframe/freshframe/internal/bufpool"
	"github.com/freshframe/freshframe/internal/capture"
	"github.com/freshframe/freshframe/internal/handoff"
	"github.com/freshframe/freshframe/internal/metrics"
)

// Frame is the consumer's view of one captured frame: the filled bytes plus
// the shape they were captured under. It must be released exactly once.
type Frame struct {
	Shape capture.StreamShape

	buf *bufpool.Buffer
}

// Bytes returns the frame's pixel data. Valid until ReleaseFrame.
func (f *Frame) Bytes() []byte { return f.buf.Bytes() }

// Options configures a pipeline.
type Options struct {
	Shape    capture.StreamShape
	PoolSize int
}

// Pipeline owns one buffer pool, one hand-off slot, and one capture worker
// for a single negotiated stream. The pool and slot live exactly as long as
// the pipeline; nothing here is process-global.
type Pipeline struct {
	shape  capture.StreamShape
	pool   *bufpool.Pool
	slot   *handoff.Slot
	worker *capture.Worker
	logger *zap.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status is a point-in-time snapshot of the whole pipeline.
type Status struct {
	Worker   capture.WorkerStatus `json:"worker"`
	PoolIdle int                  `json:"poolIdle"`
	PoolSize int                  `json:"poolSize"`
}

// New assembles a pipeline around the given source. The pool is sized for
// exactly opts.PoolSize frames of opts.Shape; memory use is fixed from here on.
func New(src capture.Source, opts Options, logger *zap.Logger) (*Pipeline, error) {
	if err := opts.Shape.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline shape: %w", err)
	}
	if opts.PoolSize <= 0 {
		return nil, fmt.Errorf("pipeline pool size must be positive, got %d", opts.PoolSize)
	}

	pool := bufpool.New(opts.PoolSize, opts.Shape.FrameBytes())
	slot := handoff.New()
	metrics.PoolIdleBuffers.Set(float64(pool.Idle()))

	return &Pipeline{
		shape:  opts.Shape,
		pool:   pool,
		slot:   slot,
		worker: capture.NewWorker(src, pool, slot, opts.Shape, logger),
		logger: logger,
	}, nil
}

// Start spawns the capture worker goroutine. The worker runs until the source
// ends, a fatal error occurs, or Shutdown is called.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("pipeline already started")
	}
	p.started = true

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.worker.Run(runCtx); err != nil {
			p.logger.Error("capture worker exited", zap.Error(err))
		}
	}()
	return nil
}

// TryTakeLatestFrame returns the freshest captured frame, or false without
// blocking when none is pending. Each returned frame must be passed to
// ReleaseFrame exactly once.
func (p *Pipeline) TryTakeLatestFrame() (*Frame, bool) {
	buf, ok := p.slot.TryTake()
	if !ok {
		return nil, false
	}
	return &Frame{Shape: p.shape, buf: buf}, true
}

// ReleaseFrame returns a taken frame's buffer to the pool. Holding a frame
// past its use window starves the capture side of free buffers; releasing it
// twice is a programming error.
func (p *Pipeline) ReleaseFrame(f *Frame) {
	if f == nil || f.buf == nil {
		panic("pipeline: release of nil or already-released frame")
	}
	p.pool.Release(f.buf)
	f.buf = nil
	metrics.PoolIdleBuffers.Inc()
}

// Shutdown stops the worker, waits for it to exit, and drains any frame left
// in the hand-off slot so the pool ends with every buffer idle. Idempotent.
func (p *Pipeline) Shutdown() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	p.worker.Stop()
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	p.Drain()

	p.logger.Info("pipeline shutdown complete", zap.Int("poolIdle", p.pool.Idle()))
}

// Drain releases any frame still pending in the slot. Only meaningful once
// the worker has stopped offering.
func (p *Pipeline) Drain() {
	if f, ok := p.TryTakeLatestFrame(); ok {
		p.ReleaseFrame(f)
	}
}

// Done is closed once the capture worker has exited, whether from a fatal
// error, end of stream, or Shutdown.
func (p *Pipeline) Done() <-chan struct{} { return p.worker.Done() }

// Status returns a snapshot of the worker and pool.
func (p *Pipeline) Status() Status {
	return Status{
		Worker:   p.worker.Status(),
		PoolIdle: p.pool.Idle(),
		PoolSize: p.pool.Size(),
	}
}
