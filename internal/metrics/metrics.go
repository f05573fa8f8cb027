package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reason labels for FramesDroppedTotal.
const (
	ReasonPoolExhausted = "pool_exhausted"
	ReasonSlotOccupied  = "slot_occupied"
	ReasonReadError     = "read_error"
)

// Gauges
var (
	PoolIdleBuffers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "freshframe_pool_idle_buffers",
		Help: "Number of idle buffers currently in the pool",
	})
	WorkerStreaming = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "freshframe_worker_streaming",
		Help: "1 while the capture worker is streaming, 0 otherwise",
	})
)

// Counters
var (
	FramesCapturedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freshframe_frames_captured_total",
		Help: "Total raw frames read from the capture source",
	})
	FramesDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freshframe_frames_delivered_total",
		Help: "Total frames successfully offered to the hand-off slot",
	})
	FramesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freshframe_frames_dropped_total",
		Help: "Total frames dropped by reason",
	}, []string{"reason"})
	ReadErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freshframe_read_errors_total",
		Help: "Total transient read errors from the capture source",
	})
)
