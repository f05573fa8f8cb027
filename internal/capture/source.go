package capture

import (
	"context"
	"fmt"
)

// PixelFormat identifies the byte layout of a raw frame.
type PixelFormat string

const (
	FormatRGB24  PixelFormat = "rgb24"
	FormatRGBA32 PixelFormat = "rgba32"
	FormatYUYV   PixelFormat = "yuyv"
)

// BytesPerPixel returns the storage cost of one pixel, or 0 for an unknown format.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGB24:
		return 3
	case FormatRGBA32:
		return 4
	case FormatYUYV:
		return 2
	}
	return 0
}

// ParsePixelFormat maps a config string to a PixelFormat.
func ParsePixelFormat(s string) (PixelFormat, error) {
	f := PixelFormat(s)
	if f.BytesPerPixel() == 0 {
		return "", fmt.Errorf("unknown pixel format %q", s)
	}
	return f, nil
}

// StreamShape is the negotiated stream geometry. It is fixed for the lifetime
// of a pipeline; changing it requires tearing the pipeline down and building a
// new one.
type StreamShape struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Format PixelFormat `json:"format"`
}

// FrameBytes returns the exact byte length of one raw frame.
func (s StreamShape) FrameBytes() int {
	return s.Width * s.Height * s.Format.BytesPerPixel()
}

// Validate checks the shape describes a non-empty frame.
func (s StreamShape) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", s.Width, s.Height)
	}
	if s.Format.BytesPerPixel() == 0 {
		return fmt.Errorf("unknown pixel format %q", s.Format)
	}
	return nil
}

// Source is a negotiated stream of raw frames. Device discovery and format
// negotiation happen before a Source is constructed; the Source only starts
// the stream and yields frames matching the agreed shape.
type Source interface {
	// Open starts streaming. An error here is fatal to the worker.
	Open(ctx context.Context) error

	// ReadFrame blocks until the next raw frame is available. The returned
	// slice is only valid until the next ReadFrame call; callers must copy.
	// io.EOF or a TerminalError means the source is permanently gone; any
	// other error is transient and the caller may keep reading.
	ReadFrame(ctx context.Context) ([]byte, error)

	// Close releases the underlying device. Idempotent.
	Close() error
}
