package port

import (
	"context"

	"soil-bot/internal/domain/entity"
)

// Scale интерфейс контроллера весов
type Scale interface {
	// Send отправляет команду (1, 2, W, R) и возвращает разобранный ответ
	Send(ctx context.Context, cmd entity.Command) (*entity.ScaleResponse, error)
}

// Classifier интерфейс внешнего классификатора USCS, который также сохраняет результат
type Classifier interface {
	// Classify выполняет финальное взвешивание и классификацию пробы
	Classify(ctx context.Context, auth entity.Auth, req entity.ClassificationRequest) (*entity.ScaleResponse, error)
}
