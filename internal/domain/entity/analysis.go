package entity

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus статус проверки анализа экспертом
type ReviewStatus string

// ReviewPending новый анализ ждёт проверки эксперта
const ReviewPending ReviewStatus = "PENDING"

// AnalysisRecord завершённый анализ для истории инженера.
type AnalysisRecord struct {
	ID            string
	OperatorID    int64
	Location      string
	TotalWeight   float64
	GravelWeight  float64
	SandWeight    float64
	Fractions     Fractions
	SoilType      string // тип по USCS от классификатора
	ImageSoilType string // тип по снимку
	Confidence    float64
	Status        ReviewStatus
	SaveStatus    string
	CreatedAt     time.Time
}

// NewAnalysisRecord собирает запись из завершённой сессии.
func NewAnalysisRecord(operatorID int64, snap SessionSnapshot, now time.Time) (*AnalysisRecord, error) {
	if snap.Step != StepComplete {
		return nil, &StateError{Op: "build analysis record", Step: snap.Step}
	}
	fractions, ok := snap.Fractions()
	if !ok {
		return nil, &SensorConsistencyError{Reason: "weights are incomplete"}
	}

	rec := &AnalysisRecord{
		ID:           uuid.New().String(),
		OperatorID:   operatorID,
		Location:     snap.Location,
		TotalWeight:  *snap.TotalWeight,
		GravelWeight: *snap.GravelWeight,
		SandWeight:   *snap.SandWeight,
		Fractions:    fractions.Rounded(),
		SoilType:     snap.SoilType,
		Status:       ReviewPending,
		SaveStatus:   snap.SaveStatus,
		CreatedAt:    now.UTC(),
	}
	if snap.Prediction != nil {
		rec.ImageSoilType = snap.Prediction.Label
		rec.Confidence = snap.Prediction.Confidence
	}
	return rec, nil
}
