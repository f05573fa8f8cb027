//go:build linux

package capture

import (
	"context"

	"github.com/blackjack/webcam"
	"github.com/pkg/errors"
)

// V4L2 fourcc codes for the formats this adapter can stream.
var v4l2Fourcc = map[PixelFormat]webcam.PixelFormat{
	FormatRGB24: webcam.PixelFormat(fourcc('R', 'G', 'B', '3')),
	FormatYUYV:  webcam.PixelFormat(fourcc('Y', 'U', 'Y', 'V')),
}

func fourcc(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// v4l2Source reads frames from a Video4Linux device. Format and resolution
// were negotiated before the pipeline was built; Open only applies them and
// fails if the device disagrees.
type v4l2Source struct {
	device string
	shape  StreamShape
	cam    *webcam.Webcam
}

// NewV4L2Source creates a source for a /dev/videoN device.
func NewV4L2Source(device string, shape StreamShape) (Source, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "v4l2 source")
	}
	if _, ok := v4l2Fourcc[shape.Format]; !ok {
		return nil, errors.Errorf("v4l2 source: unsupported pixel format %q", shape.Format)
	}
	return &v4l2Source{device: device, shape: shape}, nil
}

func (s *v4l2Source) Open(ctx context.Context) error {
	cam, err := webcam.Open(s.device)
	if err != nil {
		return errors.Wrap(err, "open device")
	}

	code := v4l2Fourcc[s.shape.Format]
	f, w, h, err := cam.SetImageFormat(code, uint32(s.shape.Width), uint32(s.shape.Height))
	if err != nil {
		cam.Close()
		return errors.Wrap(err, "set image format")
	}
	if f != code || int(w) != s.shape.Width || int(h) != s.shape.Height {
		cam.Close()
		return errors.Errorf("device negotiated %dx%d fourcc %#x, pipeline requires %dx%d fourcc %#x",
			w, h, uint32(f), s.shape.Width, s.shape.Height, uint32(code))
	}

	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return errors.Wrap(err, "start streaming")
	}

	s.cam = cam
	return nil
}

// ReadFrame blocks for the next frame. The wait is polled on a one-second
// timeout so a cancelled ctx is observed without a frame arriving.
func (s *v4l2Source) ReadFrame(ctx context.Context) ([]byte, error) {
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		err := s.cam.WaitForFrame(1)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			continue
		default:
			// The device stopped answering; retrying cannot help.
			return nil, &TerminalError{Err: errors.Wrap(err, "frame wait failed")}
		}

		frame, err := s.cam.ReadFrame()
		if err != nil {
			return nil, errors.Wrap(err, "read frame failed")
		}
		if len(frame) == 0 {
			continue
		}
		return frame, nil
	}
}

func (s *v4l2Source) Close() error {
	if s.cam == nil {
		return nil
	}
	cam := s.cam
	s.cam = nil
	cam.StopStreaming()
	return cam.Close()
}
