package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"soil-bot/internal/domain/entity"
	"soil-bot/internal/domain/port"
)

// Collaborators внешние сервисы, с которыми работает анализ.
type Collaborators struct {
	Predictor  port.Predictor
	Scale      port.Scale
	Classifier port.Classifier
	Camera     port.Camera
	History    port.AnalysisRepository
}

// AnalysisService ведёт сессии анализа проб, по одной на оператора.
//
// Внешние вызовы выполняются без блокировки. Пока вызов не завершён,
// повторные операции по той же сессии отклоняются с ErrBusy. Reset
// увеличивает поколение сессии, и результаты вызовов старого поколения
// отбрасываются.
type AnalysisService struct {
	operators port.OperatorRepository
	ext       Collaborators
	log       *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	gens     map[int64]uint64 // поколение сессии оператора
	inflight map[int64]uint64 // поколение, в котором идёт внешний вызов
}

// NewAnalysisService создаёт сервис анализа.
func NewAnalysisService(operators port.OperatorRepository, ext Collaborators, log *zap.Logger) *AnalysisService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalysisService{
		operators: operators,
		ext:       ext,
		log:       log,
		now:       time.Now,
		gens:      make(map[int64]uint64),
		inflight:  make(map[int64]uint64),
	}
}

// ticket захваченная на время внешнего вызова сессия
type ticket struct {
	op    *entity.Operator
	gen   uint64
	snap  entity.SessionSnapshot
	image []byte
}

// acquire проверяет шаг и помечает сессию занятой.
func (s *AnalysisService) acquire(ctx context.Context, operatorID, chatID int64, guard func(*entity.Session) error) (*ticket, error) {
	op, err := s.operators.Get(ctx, operatorID, chatID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	gen := s.gens[operatorID]
	if held, ok := s.inflight[operatorID]; ok && held == gen {
		return nil, entity.ErrBusy
	}
	if guard != nil {
		if err := guard(op.Session); err != nil {
			return nil, err
		}
	}

	s.inflight[operatorID] = gen
	return &ticket{op: op, gen: gen, snap: op.Session.Snapshot(), image: op.Image}, nil
}

func (s *AnalysisService) release(t *ticket) {
	s.mu.Lock()
	if held, ok := s.inflight[t.op.ID]; ok && held == t.gen {
		delete(s.inflight, t.op.ID)
	}
	s.mu.Unlock()
}

// commit применяет результат вызова. Если apply вернул ошибку, сессия
// откатывается к состоянию до вызова.
func (s *AnalysisService) commit(ctx context.Context, t *ticket, apply func(op *entity.Operator) error) (entity.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gens[t.op.ID] != t.gen {
		return entity.SessionSnapshot{}, entity.ErrSuperseded
	}

	before := t.op.Session.Snapshot()
	image := t.op.Image
	if err := apply(t.op); err != nil {
		t.op.Session.Restore(before)
		t.op.Image = image
		return entity.SessionSnapshot{}, err
	}
	if err := s.operators.Save(ctx, t.op); err != nil {
		t.op.Session.Restore(before)
		t.op.Image = image
		return entity.SessionSnapshot{}, err
	}
	return t.op.Session.Snapshot(), nil
}

// local выполняет операцию без внешних вызовов.
func (s *AnalysisService) local(ctx context.Context, operatorID, chatID int64, apply func(op *entity.Operator) error) (entity.SessionSnapshot, error) {
	t, err := s.acquire(ctx, operatorID, chatID, nil)
	if err != nil {
		return entity.SessionSnapshot{}, err
	}
	defer s.release(t)
	return s.commit(ctx, t, apply)
}

// Status возвращает текущее состояние сессии оператора.
func (s *AnalysisService) Status(ctx context.Context, operatorID, chatID int64) (entity.SessionSnapshot, error) {
	op, err := s.operators.Get(ctx, operatorID, chatID)
	if err != nil {
		return entity.SessionSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return op.Session.Snapshot(), nil
}

// SubmitLocation сохраняет место отбора пробы.
func (s *AnalysisService) SubmitLocation(ctx context.Context, operatorID, chatID int64, text string) (entity.SessionSnapshot, error) {
	snap, err := s.local(ctx, operatorID, chatID, func(op *entity.Operator) error {
		return op.Session.SubmitLocation(text)
	})
	if err == nil {
		s.log.Info("location submitted", zap.Int64("operator_id", operatorID), zap.String("location", snap.Location))
	}
	return snap, err
}

// StartCamera включает камеру для съёмки пробы.
func (s *AnalysisService) StartCamera(ctx context.Context, operatorID, chatID int64) error {
	t, err := s.acquire(ctx, operatorID, chatID, func(sess *entity.Session) error {
		if sess.Step() != entity.StepAwaitingImage {
			return &entity.StateError{Op: "start camera", Step: sess.Step()}
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer s.release(t)

	if err := s.ext.Camera.Start(ctx); err != nil {
		return &entity.CollaboratorError{Collaborator: "camera", Err: err}
	}
	return nil
}

// SubmitImage отправляет снимок модели и сохраняет предсказание.
func (s *AnalysisService) SubmitImage(ctx context.Context, operatorID, chatID int64, image []byte) (entity.SessionSnapshot, error) {
	if len(image) == 0 {
		return entity.SessionSnapshot{}, &entity.ValidationError{Field: "image", Reason: "is empty"}
	}

	t, err := s.acquire(ctx, operatorID, chatID, (*entity.Session).CanSubmitPrediction)
	if err != nil {
		return entity.SessionSnapshot{}, err
	}
	defer s.release(t)

	return s.predict(ctx, t, image)
}

// CaptureImage снимает кадр с камеры и отправляет его модели.
func (s *AnalysisService) CaptureImage(ctx context.Context, operatorID, chatID int64) (entity.SessionSnapshot, error) {
	t, err := s.acquire(ctx, operatorID, chatID, (*entity.Session).CanSubmitPrediction)
	if err != nil {
		return entity.SessionSnapshot{}, err
	}
	defer s.release(t)

	image, err := s.ext.Camera.Capture(ctx)
	if err != nil {
		return entity.SessionSnapshot{}, &entity.CollaboratorError{Collaborator: "camera", Err: err}
	}
	return s.predict(ctx, t, image)
}

func (s *AnalysisService) predict(ctx context.Context, t *ticket, image []byte) (entity.SessionSnapshot, error) {
	// Камера должна быть выключена до отправки снимка
	s.stopCamera(t.op.ID)

	prediction, err := s.ext.Predictor.Predict(ctx, image)
	if err != nil {
		s.log.Warn("prediction failed", zap.Int64("operator_id", t.op.ID), zap.Error(err))
		return entity.SessionSnapshot{}, &entity.CollaboratorError{Collaborator: "image predictor", Err: err}
	}

	snap, err := s.commit(ctx, t, func(op *entity.Operator) error {
		if err := op.Session.SubmitPrediction(prediction); err != nil {
			return err
		}
		op.Image = image
		return nil
	})
	if err != nil {
		return snap, err
	}

	s.log.Info("image prediction accepted",
		zap.Int64("operator_id", t.op.ID),
		zap.String("label", prediction.Label),
		zap.Float64("confidence", prediction.Confidence),
		zap.String("status", string(prediction.Status)),
	)
	return snap, nil
}

// RecordWeight запрашивает вес у контроллера и фиксирует его в сессии.
// Для песка нужен auth: вес снимается классификатором, который заодно
// определяет тип грунта и сохраняет результат.
func (s *AnalysisService) RecordWeight(ctx context.Context, operatorID, chatID int64, kind entity.WeightKind, auth entity.Auth) (entity.SessionSnapshot, error) {
	t, err := s.acquire(ctx, operatorID, chatID, func(sess *entity.Session) error {
		if err := sess.ExpectWeight(kind); err != nil {
			return err
		}
		if kind == entity.WeightSand && !auth.Valid() {
			return &entity.ValidationError{Field: "token", Reason: "user not authenticated, send /token first"}
		}
		return nil
	})
	if err != nil {
		return entity.SessionSnapshot{}, err
	}
	defer s.release(t)

	if kind == entity.WeightSand {
		return s.recordSand(ctx, t, auth)
	}

	cmd := kind.Command()
	resp, err := s.ext.Scale.Send(ctx, cmd)
	if err != nil {
		return entity.SessionSnapshot{}, &entity.CollaboratorError{Collaborator: "scale", Err: err}
	}
	if err := expectKind(cmd, resp); err != nil {
		return entity.SessionSnapshot{}, &entity.CollaboratorError{Collaborator: "scale", Err: err}
	}

	snap, err := s.commit(ctx, t, func(op *entity.Operator) error {
		return op.Session.RecordWeight(kind, *resp.Weight)
	})
	if err != nil {
		return snap, err
	}

	s.log.Info("weight recorded",
		zap.Int64("operator_id", t.op.ID),
		zap.String("kind", string(kind)),
		zap.Float64("grams", *resp.Weight),
		zap.String("step", string(snap.Step)),
	)
	return snap, nil
}

func (s *AnalysisService) recordSand(ctx context.Context, t *ticket, auth entity.Auth) (entity.SessionSnapshot, error) {
	req := entity.ClassificationRequest{
		Location: t.snap.Location,
		Image:    t.image,
	}
	if t.snap.Prediction != nil {
		req.ImageSoilType = t.snap.Prediction.Label
	}

	resp, err := s.ext.Classifier.Classify(ctx, auth, req)
	if err != nil {
		return entity.SessionSnapshot{}, &entity.CollaboratorError{Collaborator: "classifier", Err: err}
	}
	if err := expectKind(entity.CommandSand, resp); err != nil {
		return entity.SessionSnapshot{}, &entity.CollaboratorError{Collaborator: "classifier", Err: err}
	}
	if resp.SoilType == "" {
		return entity.SessionSnapshot{}, &entity.CollaboratorError{Collaborator: "classifier", Err: errors.New("soil type is missing")}
	}
	// Итог должен описывать ту же пробу, что взвешена в сессии
	if err := resp.CheckResults(*t.snap.TotalWeight, *t.snap.GravelWeight); err != nil {
		s.log.Warn("classifier results rejected", zap.Int64("operator_id", t.op.ID), zap.Error(err))
		return entity.SessionSnapshot{}, err
	}

	snap, err := s.commit(ctx, t, func(op *entity.Operator) error {
		if err := op.Session.RecordWeight(entity.WeightSand, *resp.SandWeight); err != nil {
			return err
		}
		return op.Session.AssignSoilType(resp.SoilType, resp.SaveStatus)
	})
	if err != nil {
		var cerr *entity.SensorConsistencyError
		if errors.As(err, &cerr) {
			s.log.Warn("sensor data rejected", zap.Int64("operator_id", t.op.ID), zap.Error(err))
		}
		return snap, err
	}

	s.log.Info("analysis complete",
		zap.Int64("operator_id", t.op.ID),
		zap.String("soil_type", snap.SoilType),
		zap.String("save_status", snap.SaveStatus),
	)
	s.saveHistory(ctx, t.op.ID, snap)
	return snap, nil
}

func (s *AnalysisService) saveHistory(ctx context.Context, operatorID int64, snap entity.SessionSnapshot) {
	if s.ext.History == nil {
		return
	}
	rec, err := entity.NewAnalysisRecord(operatorID, snap, s.now())
	if err == nil {
		err = s.ext.History.Save(ctx, rec)
	}
	if err != nil {
		s.log.Error("save analysis history", zap.Int64("operator_id", operatorID), zap.Error(err))
	}
}

// CheckWeight возвращает текущее показание весов, ничего не сохраняя.
func (s *AnalysisService) CheckWeight(ctx context.Context, operatorID, chatID int64) (float64, error) {
	t, err := s.acquire(ctx, operatorID, chatID, func(sess *entity.Session) error {
		if !sess.Step().Weighing() {
			return &entity.StateError{Op: "check weight", Step: sess.Step()}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	defer s.release(t)

	resp, err := s.ext.Scale.Send(ctx, entity.CommandCheck)
	if err != nil {
		return 0, &entity.CollaboratorError{Collaborator: "scale", Err: err}
	}
	if err := expectKind(entity.CommandCheck, resp); err != nil {
		return 0, &entity.CollaboratorError{Collaborator: "scale", Err: err}
	}
	return *resp.Weight, nil
}

// Reset сбрасывает сессию из любого шага. Результаты незавершённых
// вызовов будут отброшены.
func (s *AnalysisService) Reset(ctx context.Context, operatorID, chatID int64) (entity.SessionSnapshot, error) {
	op, err := s.operators.Get(ctx, operatorID, chatID)
	if err != nil {
		return entity.SessionSnapshot{}, err
	}

	s.mu.Lock()
	s.gens[operatorID]++
	delete(s.inflight, operatorID)
	op.Session.Reset()
	op.Image = nil
	snap := op.Session.Snapshot()
	saveErr := s.operators.Save(ctx, op)
	s.mu.Unlock()

	if saveErr != nil {
		s.log.Error("save reset session", zap.Int64("operator_id", operatorID), zap.Error(saveErr))
	}

	s.stopCamera(operatorID)
	if _, err := s.ext.Scale.Send(ctx, entity.CommandReset); err != nil {
		s.log.Warn("scale reset failed", zap.Int64("operator_id", operatorID), zap.Error(err))
	}

	s.log.Info("session reset", zap.Int64("operator_id", operatorID))
	return snap, nil
}

// History последние завершённые анализы оператора.
func (s *AnalysisService) History(ctx context.Context, operatorID int64, limit int) ([]*entity.AnalysisRecord, error) {
	if s.ext.History == nil {
		return nil, nil
	}
	return s.ext.History.ListByOperator(ctx, operatorID, limit)
}

func (s *AnalysisService) stopCamera(operatorID int64) {
	if s.ext.Camera == nil || !s.ext.Camera.Active() {
		return
	}
	if err := s.ext.Camera.Stop(); err != nil {
		s.log.Warn("stop camera", zap.Int64("operator_id", operatorID), zap.Error(err))
	}
}

func expectKind(cmd entity.Command, resp *entity.ScaleResponse) error {
	if resp == nil {
		return errors.New("empty response")
	}
	if want := cmd.ExpectedKind(); resp.Kind != want {
		return fmt.Errorf("unexpected %s response to command %s, want %s", resp.Kind, cmd, want)
	}
	return resp.Validate()
}
