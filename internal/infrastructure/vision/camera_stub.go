//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

type GoCVCamera struct {
	DeviceID              int
	MinImageSide          int
	MinSharpnessEdgeRatio float64
}

// NewGoCVCamera создаёт камеру-заглушку (без OpenCV).
func NewGoCVCamera(deviceID int) *GoCVCamera {
	return &GoCVCamera{
		DeviceID:              deviceID,
		MinImageSide:          224,
		MinSharpnessEdgeRatio: 0.008,
	}
}

// Start возвращает ошибку, если сборка без тега gocv.
func (c *GoCVCamera) Start(_ context.Context) error {
	return errNoGoCV
}

func (c *GoCVCamera) Stop() error {
	return nil
}

func (c *GoCVCamera) Active() bool {
	return false
}

// Capture возвращает ошибку, если сборка без тега gocv.
func (c *GoCVCamera) Capture(_ context.Context) ([]byte, error) {
	return nil, errNoGoCV
}
