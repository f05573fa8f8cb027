package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// SyntheticSource generates fixed-shape frames at a configured rate without
// any hardware. It stands in for a real device in development and tests, the
// same way the daemon can be pointed at it with SOURCE=synthetic.
//
// Each frame is filled with a single byte equal to the low 8 bits of its
// sequence number, which lets tests assert freshness by inspection.
type SyntheticSource struct {
	shape StreamShape
	fps   int
	clk   clock.Clock

	frame  []byte
	seq    uint64
	ticker *clock.Ticker
}

// NewSyntheticSource creates a generator producing fps frames per second.
func NewSyntheticSource(shape StreamShape, fps int) *SyntheticSource {
	return &SyntheticSource{
		shape: shape,
		fps:   fps,
		clk:   clock.New(),
	}
}

// Open validates the configuration and starts the frame pacer.
func (s *SyntheticSource) Open(ctx context.Context) error {
	if err := s.shape.Validate(); err != nil {
		return fmt.Errorf("synthetic source: %w", err)
	}
	if s.fps <= 0 {
		return fmt.Errorf("synthetic source: fps must be positive, got %d", s.fps)
	}
	s.frame = make([]byte, s.shape.FrameBytes())
	s.ticker = s.clk.Ticker(time.Second / time.Duration(s.fps))
	return nil
}

// ReadFrame blocks until the next tick and returns the generated frame.
// The returned slice is reused on the next call.
func (s *SyntheticSource) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ticker.C:
	}
	fill := byte(s.seq)
	for i := range s.frame {
		s.frame[i] = fill
	}
	s.seq++
	return s.frame, nil
}

// Close stops the pacer. Idempotent.
func (s *SyntheticSource) Close() error {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	return nil
}
