package port

import (
	"context"

	"soil-bot/internal/domain/entity"
)

// Predictor интерфейс модели, классифицирующей снимок пробы
type Predictor interface {
	// Predict отправляет снимок и возвращает предсказанный тип грунта
	Predict(ctx context.Context, image []byte) (*entity.Prediction, error)
}
