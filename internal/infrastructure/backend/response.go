package backend

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"soil-bot/internal/domain/entity"
)

// commandResponse ответ /api/command как он приходит по сети.
// Бэкенд кладёт тип ответа в поле status, kind принимается как синоним.
type commandResponse struct {
	Status        string   `json:"status"`
	Kind          string   `json:"kind"`
	Weight        *float64 `json:"weight"`
	TotalWeight   *float64 `json:"total_weight"`
	GravelWeight  *float64 `json:"gravel_weight"`
	SandWeight    *float64 `json:"sand_weight"`
	GravelPercent *float64 `json:"gravel_percent"`
	SandPercent   *float64 `json:"sand_percent"`
	FinesPercent  *float64 `json:"fines_percent"`
	SoilType      string   `json:"soil_type"`
	SaveStatus    string   `json:"save_status"`
	Message       string   `json:"message"`
}

// ParseCommandResponse разбирает и проверяет ответ контроллера.
func ParseCommandResponse(raw []byte) (*entity.ScaleResponse, error) {
	var wire commandResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, eris.Wrap(err, "backend: decode command response")
	}

	kind := wire.Status
	if kind == "" {
		kind = wire.Kind
	}

	resp := &entity.ScaleResponse{
		Kind:          entity.ResponseKind(kind),
		Weight:        wire.Weight,
		TotalWeight:   wire.TotalWeight,
		GravelWeight:  wire.GravelWeight,
		SandWeight:    wire.SandWeight,
		GravelPercent: wire.GravelPercent,
		SandPercent:   wire.SandPercent,
		FinesPercent:  wire.FinesPercent,
		SoilType:      wire.SoilType,
		SaveStatus:    wire.SaveStatus,
		Message:       wire.Message,
	}
	if err := resp.Validate(); err != nil {
		return nil, eris.Wrap(err, "backend: invalid command response")
	}
	return resp, nil
}
