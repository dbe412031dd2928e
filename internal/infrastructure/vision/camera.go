//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// GoCVCamera камера пробы на OpenCV VideoCapture.
type GoCVCamera struct {
	DeviceID              int
	MinImageSide          int
	MinSharpnessEdgeRatio float64

	mu      sync.Mutex
	capture *gocv.VideoCapture
}

// NewGoCVCamera создаёт камеру для устройства deviceID.
func NewGoCVCamera(deviceID int) *GoCVCamera {
	return &GoCVCamera{
		DeviceID:              deviceID,
		MinImageSide:          224,
		MinSharpnessEdgeRatio: 0.008,
	}
}

// Start открывает устройство. Повторный вызов ничего не делает.
func (c *GoCVCamera) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}
	vc, err := gocv.OpenVideoCapture(c.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.DeviceID, err)
	}
	c.capture = vc
	return nil
}

// Stop освобождает устройство
func (c *GoCVCamera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

func (c *GoCVCamera) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}

// Capture снимает кадр, проверяет качество и кодирует его в JPEG.
func (c *GoCVCamera) Capture(_ context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraInactive
	}

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := c.capture.Read(&frame); !ok || frame.Empty() {
		return nil, errors.New("camera returned an empty frame")
	}
	if err := c.checkFrame(frame); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return bytes.Clone(buf.GetBytes()), nil
}

// checkFrame отсекает слишком маленькие и смазанные кадры.
func (c *GoCVCamera) checkFrame(frame gocv.Mat) error {
	if frame.Cols() < c.MinImageSide || frame.Rows() < c.MinImageSide {
		return fmt.Errorf("frame is too small (%dx%d)", frame.Cols(), frame.Rows())
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 80, 160)

	total := edges.Cols() * edges.Rows()
	if total == 0 {
		return errors.New("frame is empty")
	}
	ratio := float64(gocv.CountNonZero(edges)) / float64(total)
	if ratio < c.MinSharpnessEdgeRatio {
		return fmt.Errorf("frame is blurry (edge_ratio=%.4f)", ratio)
	}
	return nil
}
