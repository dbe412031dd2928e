package entity

import (
	"errors"
	"fmt"
	"math"
)

// Command токен команды весового контроллера
type Command string

const (
	CommandTotal  Command = "1"
	CommandGravel Command = "2"
	CommandSand   Command = "3"
	CommandCheck  Command = "W"
	CommandReset  Command = "R"
)

// ResponseKind тип ответа контроллера
type ResponseKind string

const (
	KindTotalWeight  ResponseKind = "total_weight"
	KindGravelWeight ResponseKind = "gravel_weight"
	KindSandWeight   ResponseKind = "sand_weight"
	KindWeightCheck  ResponseKind = "weight_check"
	KindResults      ResponseKind = "results"
	KindReset        ResponseKind = "reset"
)

// ExpectedKind тип ответа, который должен прийти на команду.
func (c Command) ExpectedKind() ResponseKind {
	switch c {
	case CommandTotal:
		return KindTotalWeight
	case CommandGravel:
		return KindGravelWeight
	case CommandSand:
		return KindResults
	case CommandCheck:
		return KindWeightCheck
	case CommandReset:
		return KindReset
	}
	return ""
}

// ScaleResponse разобранный ответ контроллера весов или классификатора.
// Набор заполненных полей зависит от Kind.
type ScaleResponse struct {
	Kind          ResponseKind
	Weight        *float64
	TotalWeight   *float64
	GravelWeight  *float64
	SandWeight    *float64
	GravelPercent *float64
	SandPercent   *float64
	FinesPercent  *float64
	SoilType      string
	SaveStatus    string
	Message       string
}

// Validate проверяет обязательные поля для своего типа ответа.
func (r *ScaleResponse) Validate() error {
	switch r.Kind {
	case KindTotalWeight, KindGravelWeight, KindSandWeight, KindWeightCheck:
		return requireWeight("weight", r.Weight)
	case KindResults:
		for _, f := range []struct {
			name  string
			value *float64
		}{
			{"total_weight", r.TotalWeight},
			{"gravel_weight", r.GravelWeight},
			{"sand_weight", r.SandWeight},
		} {
			if err := requireWeight(f.name, f.value); err != nil {
				return err
			}
		}
		return nil
	case KindReset:
		return nil
	case "":
		return errors.New("response kind is missing")
	}
	return fmt.Errorf("unknown response kind %q", r.Kind)
}

// ReportedFractions проценты, посчитанные контроллером, если он их прислал.
func (r *ScaleResponse) ReportedFractions() (Fractions, bool) {
	if r.GravelPercent == nil || r.SandPercent == nil || r.FinesPercent == nil {
		return Fractions{}, false
	}
	return Fractions{
		GravelPercent: *r.GravelPercent,
		SandPercent:   *r.SandPercent,
		FinesPercent:  *r.FinesPercent,
	}, true
}

// CheckResults сверяет итог классификатора с весами, измеренными в сессии.
// Вызывается после Validate для ответа results.
func (r *ScaleResponse) CheckResults(total, gravel float64) error {
	if math.Abs(*r.TotalWeight-total) > WeightTolerance {
		return &SensorConsistencyError{
			Reason: fmt.Sprintf("reported total %.2f g differs from measured %.2f g", *r.TotalWeight, total),
		}
	}
	if math.Abs(*r.GravelWeight-gravel) > WeightTolerance {
		return &SensorConsistencyError{
			Reason: fmt.Sprintf("reported gravel %.2f g differs from measured %.2f g", *r.GravelWeight, gravel),
		}
	}

	reported, ok := r.ReportedFractions()
	if !ok {
		return nil
	}
	if err := CheckPercentages(reported); err != nil {
		return err
	}
	computed := ComputeFractions(total, gravel, *r.SandWeight)
	for _, f := range []struct {
		name          string
		got, expected float64
	}{
		{"gravel", reported.GravelPercent, computed.GravelPercent},
		{"sand", reported.SandPercent, computed.SandPercent},
		{"fines", reported.FinesPercent, computed.FinesPercent},
	} {
		if math.Abs(f.got-f.expected) > PercentTolerance {
			return &SensorConsistencyError{
				Reason: fmt.Sprintf("reported %s %.2f%% differs from computed %.2f%%", f.name, f.got, f.expected),
			}
		}
	}
	return nil
}

func requireWeight(name string, v *float64) error {
	if v == nil {
		return fmt.Errorf("%s is missing", name)
	}
	if !finite(*v) || *v < 0 {
		return fmt.Errorf("%s %v is invalid", name, *v)
	}
	return nil
}

// Auth bearer-токен, нужный только для финального взвешивания.
type Auth struct {
	Token string
}

// Valid сообщает, задан ли токен
func (a Auth) Valid() bool {
	return a.Token != ""
}

// ClassificationRequest контекст сессии, передаваемый классификатору на шаге песка.
type ClassificationRequest struct {
	Location      string
	ImageSoilType string
	Image         []byte
}
