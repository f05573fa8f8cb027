//go:build !linux

package capture

import "errors"

// NewV4L2Source is only available on linux.
func NewV4L2Source(device string, shape StreamShape) (Source, error) {
	return nil, errors.New("v4l2 capture is only supported on linux")
}
