package entity

import (
	"fmt"
	"math"
)

const (
	// WeightTolerance допуск на шум весов: gravel+sand может превышать total на 1 г
	WeightTolerance = 1.0
	// PercentTolerance допуск суммы процентов относительно 100
	PercentTolerance = 1.0
)

// Fractions гранулометрический состав пробы в процентах.
type Fractions struct {
	GravelPercent float64
	SandPercent   float64
	FinesPercent  float64
}

// Sum сумма всех фракций
func (f Fractions) Sum() float64 {
	return f.GravelPercent + f.SandPercent + f.FinesPercent
}

// Rounded округляет до 2 знаков и зажимает в [0,100] для отображения.
func (f Fractions) Rounded() Fractions {
	return Fractions{
		GravelPercent: displayPercent(f.GravelPercent),
		SandPercent:   displayPercent(f.SandPercent),
		FinesPercent:  displayPercent(f.FinesPercent),
	}
}

// ComputeFractions считает проценты без округления. total должен быть > 0.
func ComputeFractions(total, gravel, sand float64) Fractions {
	gravelPercent := 100 * gravel / total
	sandPercent := 100 * sand / total
	return Fractions{
		GravelPercent: gravelPercent,
		SandPercent:   sandPercent,
		FinesPercent:  100 - gravelPercent - sandPercent,
	}
}

// CheckConsistency проверяет согласованность трёх весов и возвращает фракции.
func CheckConsistency(total, gravel, sand float64) (Fractions, error) {
	switch {
	case !finite(total) || total <= 0:
		return Fractions{}, &SensorConsistencyError{Reason: fmt.Sprintf("total weight %.2f g must be positive", total)}
	case !finite(gravel) || gravel < 0:
		return Fractions{}, &SensorConsistencyError{Reason: fmt.Sprintf("gravel weight %.2f g is negative", gravel)}
	case !finite(sand) || sand < 0:
		return Fractions{}, &SensorConsistencyError{Reason: fmt.Sprintf("sand weight %.2f g is negative", sand)}
	case gravel+sand > total+WeightTolerance:
		return Fractions{}, &SensorConsistencyError{
			Reason: fmt.Sprintf("gravel %.2f g + sand %.2f g exceeds total %.2f g", gravel, sand, total),
		}
	}

	f := ComputeFractions(total, gravel, sand)
	if err := CheckPercentages(f); err != nil {
		return Fractions{}, err
	}
	return f, nil
}

// CheckPercentages проверяет, что сумма фракций близка к 100.
func CheckPercentages(f Fractions) error {
	if !finite(f.Sum()) || math.Abs(f.Sum()-100) > PercentTolerance {
		return &SensorConsistencyError{Reason: fmt.Sprintf("fractions sum to %.2f%%", f.Sum())}
	}
	return nil
}

func displayPercent(v float64) float64 {
	v = math.Round(v*100) / 100
	return math.Min(100, math.Max(0, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
