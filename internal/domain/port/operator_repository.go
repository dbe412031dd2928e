package port

import (
	"context"

	"soil-bot/internal/domain/entity"
)

// OperatorRepository интерфейс хранилища операторов и их сессий
type OperatorRepository interface {
	// Get возвращает оператора по ID, создаёт нового если не найден
	Get(ctx context.Context, operatorID, chatID int64) (*entity.Operator, error)

	// Save сохраняет оператора вместе с сессией
	Save(ctx context.Context, operator *entity.Operator) error
}
