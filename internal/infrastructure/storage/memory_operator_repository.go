package storage

import (
	"context"
	"sync"

	"soil-bot/internal/domain/entity"
	"soil-bot/internal/domain/port"
)

// MemoryOperatorRepository in-memory хранилище операторов и их сессий
type MemoryOperatorRepository struct {
	mu        sync.RWMutex
	operators map[int64]*entity.Operator
}

// NewMemoryOperatorRepository создаёт новое in-memory хранилище
func NewMemoryOperatorRepository() *MemoryOperatorRepository {
	return &MemoryOperatorRepository{
		operators: make(map[int64]*entity.Operator),
	}
}

// Get возвращает оператора по ID, создаёт нового если не найден
func (r *MemoryOperatorRepository) Get(ctx context.Context, operatorID, chatID int64) (*entity.Operator, error) {
	r.mu.RLock()
	op, exists := r.operators[operatorID]
	r.mu.RUnlock()

	if exists {
		return op, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Мог создать параллельный вызов
	if op, exists := r.operators[operatorID]; exists {
		return op, nil
	}

	op = entity.NewOperator(operatorID, chatID)
	r.operators[operatorID] = op
	return op, nil
}

// Save сохраняет оператора
func (r *MemoryOperatorRepository) Save(ctx context.Context, op *entity.Operator) error {
	r.mu.Lock()
	r.operators[op.ID] = op
	r.mu.Unlock()

	return nil
}

// Проверка реализации интерфейса
var _ port.OperatorRepository = (*MemoryOperatorRepository)(nil)
