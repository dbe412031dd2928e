package entity

import "strings"

// Session конечный автомат анализа одной пробы грунта.
//
// Шаги идут строго вперёд: location → image → total → gravel → sand → complete.
// Вернуться назад можно только через Reset. Любая отклонённая операция
// оставляет сессию без изменений.
type Session struct {
	step       Step
	location   string
	prediction *Prediction
	total      *float64
	gravel     *float64
	sand       *float64
	soilType   string
	saveStatus string
}

// SessionSnapshot неизменяемая копия состояния сессии для отображения и отката.
type SessionSnapshot struct {
	Step         Step
	Location     string
	Prediction   *Prediction
	TotalWeight  *float64
	GravelWeight *float64
	SandWeight   *float64
	SoilType     string
	SaveStatus   string
}

// NewSession создаёт сессию в начальном шаге
func NewSession() *Session {
	return &Session{step: StepAwaitingLocation}
}

// Step текущий шаг
func (s *Session) Step() Step {
	return s.step
}

// SubmitLocation сохраняет место отбора пробы.
func (s *Session) SubmitLocation(text string) error {
	if s.step != StepAwaitingLocation {
		return &StateError{Op: "submit location", Step: s.step}
	}
	location := strings.TrimSpace(text)
	if location == "" {
		return &ValidationError{Field: "location", Reason: "must not be empty"}
	}

	s.location = location
	s.step = StepAwaitingImage
	return nil
}

// CanSubmitPrediction проверяет, можно ли сейчас принять снимок.
// Повторная отправка до первого взвешивания перезаписывает предсказание.
func (s *Session) CanSubmitPrediction() error {
	if s.step != StepAwaitingImage && s.step != StepAwaitingTotalWeight {
		return &StateError{Op: "submit image prediction", Step: s.step}
	}
	return nil
}

// SubmitPrediction сохраняет результат классификации снимка.
func (s *Session) SubmitPrediction(p *Prediction) error {
	if err := s.CanSubmitPrediction(); err != nil {
		return err
	}
	if p == nil {
		return &ValidationError{Field: "prediction", Reason: "is missing"}
	}
	if err := p.Validate(); err != nil {
		return err
	}

	s.prediction = p.Clone()
	s.step = StepAwaitingTotalWeight
	return nil
}

// ExpectWeight проверяет, что взвешивание kind ожидается текущим шагом.
func (s *Session) ExpectWeight(kind WeightKind) error {
	if kind.expectedStep() == "" {
		return &ValidationError{Field: "kind", Reason: "unknown weight kind " + string(kind)}
	}
	if s.step != kind.expectedStep() {
		return &StateError{Op: "record " + string(kind) + " weight", Step: s.step}
	}
	return nil
}

// RecordWeight фиксирует очередной вес. На весе песка проверяется
// согласованность всех трёх весов; при ошибке ничего не сохраняется.
func (s *Session) RecordWeight(kind WeightKind, value float64) error {
	if err := s.ExpectWeight(kind); err != nil {
		return err
	}
	if !finite(value) || value < 0 {
		return &ValidationError{Field: string(kind) + " weight", Reason: "must be a non-negative number"}
	}

	switch kind {
	case WeightTotal:
		s.total = floatPtr(value)
		s.step = StepAwaitingGravelWeight
	case WeightGravel:
		s.gravel = floatPtr(value)
		s.step = StepAwaitingSandWeight
	case WeightSand:
		if _, err := CheckConsistency(*s.total, *s.gravel, value); err != nil {
			return err
		}
		s.sand = floatPtr(value)
		s.step = StepComplete
	}
	return nil
}

// AssignSoilType сохраняет тип грунта по USCS, полученный от внешнего классификатора.
func (s *Session) AssignSoilType(soilType, saveStatus string) error {
	if s.step != StepComplete {
		return &StateError{Op: "assign soil type", Step: s.step}
	}
	soilType = strings.TrimSpace(soilType)
	if soilType == "" {
		return &ValidationError{Field: "soil type", Reason: "must not be empty"}
	}

	s.soilType = soilType
	s.saveStatus = saveStatus
	return nil
}

// Fractions возвращает фракции, когда известны все три веса.
func (s *Session) Fractions() (Fractions, bool) {
	return s.Snapshot().Fractions()
}

// Reset возвращает сессию в начальное состояние.
func (s *Session) Reset() {
	*s = Session{step: StepAwaitingLocation}
}

// Snapshot возвращает копию состояния.
func (s *Session) Snapshot() SessionSnapshot {
	return SessionSnapshot{
		Step:         s.step,
		Location:     s.location,
		Prediction:   s.prediction.Clone(),
		TotalWeight:  copyFloat(s.total),
		GravelWeight: copyFloat(s.gravel),
		SandWeight:   copyFloat(s.sand),
		SoilType:     s.soilType,
		SaveStatus:   s.saveStatus,
	}
}

// Restore откатывает сессию к ранее снятой копии.
func (s *Session) Restore(snap SessionSnapshot) {
	*s = Session{
		step:       snap.Step,
		location:   snap.Location,
		prediction: snap.Prediction.Clone(),
		total:      copyFloat(snap.TotalWeight),
		gravel:     copyFloat(snap.GravelWeight),
		sand:       copyFloat(snap.SandWeight),
		soilType:   snap.SoilType,
		saveStatus: snap.SaveStatus,
	}
}

// Fractions считает фракции по весам снимка (без округления).
func (snap SessionSnapshot) Fractions() (Fractions, bool) {
	if snap.TotalWeight == nil || snap.GravelWeight == nil || snap.SandWeight == nil || *snap.TotalWeight <= 0 {
		return Fractions{}, false
	}
	return ComputeFractions(*snap.TotalWeight, *snap.GravelWeight, *snap.SandWeight), true
}

func floatPtr(v float64) *float64 {
	return &v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return floatPtr(*v)
}
