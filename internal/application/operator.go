package app

import (
	"context"
	"strings"
	"sync"

	"soil-bot/internal/domain/entity"
	"soil-bot/internal/domain/port"
)

type OperatorService struct {
	repo port.OperatorRepository
	mu   sync.Mutex // токены операторов
}

func NewOperatorService(repo port.OperatorRepository) *OperatorService {
	return &OperatorService{repo: repo}
}

// Authorize сохраняет bearer-токен оператора для шага песка.
func (s *OperatorService) Authorize(ctx context.Context, operatorID, chatID int64, token string) (*entity.Operator, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, &entity.ValidationError{Field: "token", Reason: "must not be empty"}
	}

	op, err := s.repo.Get(ctx, operatorID, chatID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	op.Token = token
	s.mu.Unlock()
	if err := s.repo.Save(ctx, op); err != nil {
		return nil, err
	}

	return op, nil
}

// Logout забывает токен
func (s *OperatorService) Logout(ctx context.Context, operatorID, chatID int64) error {
	op, err := s.repo.Get(ctx, operatorID, chatID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	op.Token = ""
	s.mu.Unlock()
	return s.repo.Save(ctx, op)
}

// Auth возвращает capability для финального взвешивания
func (s *OperatorService) Auth(ctx context.Context, operatorID, chatID int64) (entity.Auth, error) {
	op, err := s.repo.Get(ctx, operatorID, chatID)
	if err != nil {
		return entity.Auth{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return op.Auth(), nil
}
