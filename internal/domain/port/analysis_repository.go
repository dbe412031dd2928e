package port

import (
	"context"

	"soil-bot/internal/domain/entity"
)

// AnalysisRepository история завершённых анализов
type AnalysisRepository interface {
	Save(ctx context.Context, record *entity.AnalysisRecord) error
	// ListByOperator возвращает последние анализы оператора, новые первыми
	ListByOperator(ctx context.Context, operatorID int64, limit int) ([]*entity.AnalysisRecord, error)
}
