package entity

import (
	"math"
	"sort"
	"strings"
)

// UnclassifiedLabel метка модели для снимков, которые не удалось классифицировать
const UnclassifiedLabel = "Unclassified"

// probabilitySumTolerance допустимое отклонение суммы вероятностей от 1
const probabilitySumTolerance = 0.05

// PredictionStatus статус предсказания по снимку
type PredictionStatus string

const (
	PredictionPending  PredictionStatus = "PENDING"
	PredictionRejected PredictionStatus = "REJECTED"
)

// ConfidenceLevel уровень уверенности модели
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Prediction результат классификации снимка внешней моделью.
type Prediction struct {
	Label         string             // предсказанный тип грунта
	Confidence    float64            // уверенность в [0,1]
	Probabilities map[string]float64 // вероятности по классам
	Status        PredictionStatus
}

// LabelProbability пара класс/вероятность
type LabelProbability struct {
	Label       string
	Probability float64
}

// NewPrediction собирает предсказание и проставляет статус.
func NewPrediction(label string, confidence float64, probabilities map[string]float64) (*Prediction, error) {
	p := &Prediction{
		Label:         strings.TrimSpace(label),
		Confidence:    confidence,
		Probabilities: probabilities,
		Status:        PredictionPending,
	}
	if p.Label == UnclassifiedLabel {
		p.Status = PredictionRejected
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate проверяет диапазоны уверенности и вероятностей.
func (p *Prediction) Validate() error {
	if p.Label == "" {
		return &ValidationError{Field: "label", Reason: "must not be empty"}
	}
	if !inUnitRange(p.Confidence) {
		return &ValidationError{Field: "confidence", Reason: "must be within [0,1]"}
	}
	if len(p.Probabilities) == 0 {
		return nil
	}

	var sum float64
	for label, prob := range p.Probabilities {
		if !inUnitRange(prob) {
			return &ValidationError{Field: "probabilities", Reason: "probability of " + label + " must be within [0,1]"}
		}
		sum += prob
	}
	if math.Abs(sum-1) > probabilitySumTolerance {
		return &ValidationError{Field: "probabilities", Reason: "must sum to 1"}
	}
	return nil
}

// ConfidenceLevel возвращает уровень уверенности (пороги 0.8 и 0.7).
func (p *Prediction) ConfidenceLevel() ConfidenceLevel {
	switch {
	case p.Confidence >= 0.8:
		return ConfidenceHigh
	case p.Confidence >= 0.7:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// Ranked возвращает вероятности по убыванию.
func (p *Prediction) Ranked() []LabelProbability {
	out := make([]LabelProbability, 0, len(p.Probabilities))
	for label, prob := range p.Probabilities {
		out = append(out, LabelProbability{Label: label, Probability: prob})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Probability == out[j].Probability {
			return out[i].Label < out[j].Label
		}
		return out[i].Probability > out[j].Probability
	})
	return out
}

// Clone глубокая копия
func (p *Prediction) Clone() *Prediction {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Probabilities != nil {
		cp.Probabilities = make(map[string]float64, len(p.Probabilities))
		for k, v := range p.Probabilities {
			cp.Probabilities[k] = v
		}
	}
	return &cp
}

func inUnitRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
