package port

import "context"

// Camera интерфейс камеры для съёмки пробы
type Camera interface {
	Start(ctx context.Context) error
	Stop() error
	Active() bool
	// Capture возвращает текущий кадр в JPEG
	Capture(ctx context.Context) ([]byte, error)
}
