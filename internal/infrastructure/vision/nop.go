package vision

import (
	"context"
	"errors"

	"soil-bot/internal/domain/port"
)

// ErrCameraInactive кадр запрошен до запуска камеры
var ErrCameraInactive = errors.New("camera is not started")

// ErrNoCamera камера не настроена
var ErrNoCamera = errors.New("no camera configured, send a photo instead")

// NopCamera камера для установок без устройства: снимки приходят фотографией.
type NopCamera struct{}

func (NopCamera) Start(ctx context.Context) error { return ErrNoCamera }

func (NopCamera) Stop() error { return nil }

func (NopCamera) Active() bool { return false }

func (NopCamera) Capture(ctx context.Context) ([]byte, error) { return nil, ErrNoCamera }

var (
	_ port.Camera = NopCamera{}
	_ port.Camera = (*GoCVCamera)(nil)
)
