package storage

import (
	"context"
	"sort"
	"sync"

	"soil-bot/internal/domain/entity"
	"soil-bot/internal/domain/port"
)

// MemoryAnalysisRepository история анализов в памяти, когда база не настроена
type MemoryAnalysisRepository struct {
	mu      sync.RWMutex
	records []*entity.AnalysisRecord
}

func NewMemoryAnalysisRepository() *MemoryAnalysisRepository {
	return &MemoryAnalysisRepository{}
}

func (r *MemoryAnalysisRepository) Save(ctx context.Context, record *entity.AnalysisRecord) error {
	cp := *record
	r.mu.Lock()
	r.records = append(r.records, &cp)
	r.mu.Unlock()
	return nil
}

func (r *MemoryAnalysisRepository) ListByOperator(ctx context.Context, operatorID int64, limit int) ([]*entity.AnalysisRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.AnalysisRecord, 0)
	for _, rec := range r.records {
		if rec.OperatorID == operatorID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ port.AnalysisRepository = (*MemoryAnalysisRepository)(nil)
