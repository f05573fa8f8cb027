package capture

import (
	"errors"
	"fmt"
	"io"
)

// Sentinel errors for the per-frame drop paths. These never abort the worker;
// they name the reason a single frame was discarded.
var (
	ErrPoolExhausted = errors.New("capture: pool exhausted")
	ErrSlotOccupied  = errors.New("capture: hand-off slot occupied")
)

// ShapeError reports a raw frame whose byte length disagrees with the
// negotiated shape. The disagreement is systemic, not transient, so it is
// fatal to the worker.
type ShapeError struct {
	Got  int
	Want int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("capture: raw frame is %d bytes, negotiated shape requires %d", e.Got, e.Want)
}

// TerminalError wraps a source failure that cannot be retried, such as a
// device disappearing mid-stream.
type TerminalError struct {
	Err error
}

func (e *TerminalError) Error() string { return "capture: source gone: " + e.Err.Error() }

func (e *TerminalError) Unwrap() error { return e.Err }

// IsTerminal reports whether a ReadFrame error permanently ends the stream.
func IsTerminal(err error) bool {
	var te *TerminalError
	return errors.Is(err, io.EOF) || errors.As(err, &te)
}
