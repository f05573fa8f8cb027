package capture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/freshframe/freshframe/internal/bufpool"
	"github.com/freshframe/freshframe/internal/handoff"
	"github.com/freshframe/freshframe/internal/metrics"
)

// Worker lifecycle states.
const (
	StateStarting  = "starting"
	StateStreaming = "streaming"
	StateStopped   = "stopped"
)

// progressInterval paces the periodic counters log so per-frame drops do not
// flood the log at capture rate.
const progressInterval = 5 * time.Second

// Worker pulls raw frames from a Source, copies each into a pooled buffer,
// and offers it to the hand-off slot. It owns no buffer across iterations:
// every acquired buffer is either handed off or returned to the pool within
// the same iteration.
//
// Lifecycle: starting → streaming → stopped (terminal). There is no restart;
// a stopped worker requires a new Worker.
type Worker struct {
	src    Source
	pool   *bufpool.Pool
	slot   *handoff.Slot
	shape  StreamShape
	logger *zap.Logger

	mu        sync.Mutex
	state     string
	lastError string
	cancel    context.CancelFunc
	stopped   bool
	ran       bool

	captured    atomic.Uint64
	delivered   atomic.Uint64
	droppedPool atomic.Uint64
	droppedSlot atomic.Uint64
	readErrors  atomic.Uint64

	done chan struct{}
}

// WorkerStatus is a point-in-time snapshot of the worker's state and counters.
type WorkerStatus struct {
	State                string      `json:"state"`
	Shape                StreamShape `json:"shape"`
	FramesCaptured       uint64      `json:"framesCaptured"`
	FramesDelivered      uint64      `json:"framesDelivered"`
	DroppedPoolExhausted uint64      `json:"droppedPoolExhausted"`
	DroppedSlotOccupied  uint64      `json:"droppedSlotOccupied"`
	ReadErrors           uint64      `json:"readErrors"`
	LastError            string      `json:"lastError,omitempty"`
}

// NewWorker creates a worker bound to one source, pool, and slot. The shape
// is captured here and never changes (renegotiation means a new pipeline).
func NewWorker(src Source, pool *bufpool.Pool, slot *handoff.Slot,
	shape StreamShape, logger *zap.Logger) *Worker {

	return &Worker{
		src:    src,
		pool:   pool,
		slot:   slot,
		shape:  shape,
		logger: logger.With(zap.Int("width", shape.Width), zap.Int("height", shape.Height)),
		state:  StateStarting,
		done:   make(chan struct{}),
	}
}

// Run opens the source and captures frames until the source ends, a fatal
// error occurs, ctx is cancelled, or Stop is called. Blocks for the worker's
// whole life; callers typically run it in its own goroutine and use Done or
// a WaitGroup to join it.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.ran || w.state != StateStarting {
		state := w.state
		w.mu.Unlock()
		return fmt.Errorf("worker already ran (state %s)", state)
	}
	w.ran = true
	if w.stopped {
		w.state = StateStopped
		w.mu.Unlock()
		close(w.done)
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	// The ran flag guarantees this is the only invocation that owns done.
	defer close(w.done)
	defer cancel()
	defer w.src.Close()

	if err := w.src.Open(runCtx); err != nil {
		w.setStopped(fmt.Sprintf("open source: %v", err))
		w.logger.Error("capture source failed to open", zap.Error(err))
		return fmt.Errorf("open source: %w", err)
	}

	w.setState(StateStreaming)
	metrics.WorkerStreaming.Set(1)
	defer metrics.WorkerStreaming.Set(0)
	w.logger.Info("capture streaming", zap.Int("frameBytes", w.shape.FrameBytes()))

	err := w.captureLoop(runCtx)

	if err != nil {
		w.setStopped(err.Error())
		w.logger.Error("capture stopped on fatal error", zap.Error(err))
		return err
	}
	w.setStopped("")
	w.logger.Info("capture stopped",
		zap.Uint64("captured", w.captured.Load()),
		zap.Uint64("delivered", w.delivered.Load()))
	return nil
}

func (w *Worker) captureLoop(ctx context.Context) error {
	lastLog := time.Now()

	for {
		if ctx.Err() != nil {
			return nil
		}

		raw, err := w.src.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if IsTerminal(err) {
				w.logger.Info("capture source ended", zap.Error(err))
				return nil
			}
			w.readErrors.Add(1)
			metrics.ReadErrorsTotal.Inc()
			metrics.FramesDroppedTotal.WithLabelValues(metrics.ReasonReadError).Inc()
			w.logger.Warn("transient read error, frame skipped", zap.Error(err))
			continue
		}

		w.captured.Add(1)
		metrics.FramesCapturedTotal.Inc()

		if len(raw) != w.shape.FrameBytes() {
			return &ShapeError{Got: len(raw), Want: w.shape.FrameBytes()}
		}

		buf, ok := w.pool.Acquire()
		if !ok {
			w.droppedPool.Add(1)
			metrics.FramesDroppedTotal.WithLabelValues(metrics.ReasonPoolExhausted).Inc()
			w.logger.Debug("pool exhausted, frame dropped")
			continue
		}
		// Delta updates keep the gauge consistent: the consumer goroutine
		// moves it too, and re-sampling Idle here could publish stale counts.
		metrics.PoolIdleBuffers.Dec()

		copy(buf.Data(), raw)
		buf.SetLen(len(raw))

		if !w.slot.Offer(buf) {
			// Consumer is behind: discard this frame but recover the buffer,
			// otherwise the pool drains one buffer per rejected offer.
			w.pool.Release(buf)
			metrics.PoolIdleBuffers.Inc()
			w.droppedSlot.Add(1)
			metrics.FramesDroppedTotal.WithLabelValues(metrics.ReasonSlotOccupied).Inc()
			w.logger.Debug("hand-off slot occupied, frame dropped")
			continue
		}
		w.delivered.Add(1)
		metrics.FramesDeliveredTotal.Inc()

		if time.Since(lastLog) >= progressInterval {
			w.logger.Info("capture progress",
				zap.Uint64("captured", w.captured.Load()),
				zap.Uint64("delivered", w.delivered.Load()),
				zap.Uint64("droppedPoolExhausted", w.droppedPool.Load()),
				zap.Uint64("droppedSlotOccupied", w.droppedSlot.Load()),
				zap.Int("poolIdle", w.pool.Idle()))
			lastLog = time.Now()
		}
	}
}

// Stop requests termination and returns immediately. Idempotent; safe to call
// before or during Run. Use Done to wait for the loop to exit.
func (w *Worker) Stop() {
	w.mu.Lock()
	w.stopped = true
	cancel := w.cancel
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Done is closed once Run has returned.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Status returns a snapshot of the worker's state and counters.
func (w *Worker) Status() WorkerStatus {
	w.mu.Lock()
	state := w.state
	lastErr := w.lastError
	w.mu.Unlock()

	return WorkerStatus{
		State:                state,
		Shape:                w.shape,
		FramesCaptured:       w.captured.Load(),
		FramesDelivered:      w.delivered.Load(),
		DroppedPoolExhausted: w.droppedPool.Load(),
		DroppedSlotOccupied:  w.droppedSlot.Load(),
		ReadErrors:           w.readErrors.Load(),
		LastError:            lastErr,
	}
}

func (w *Worker) setState(state string) {
	w.mu.Lock()
	w.state = state
	w.mu.Unlock()
}

func (w *Worker) setStopped(errMsg string) {
	w.mu.Lock()
	w.state = StateStopped
	w.lastError = errMsg
	w.mu.Unlock()
}
