package telegram

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"soil-bot/internal/domain/entity"
)

func TestRenderSession_Complete(t *testing.T) {
	total, gravel, sand := 100.0, 30.0, 50.0
	prediction, err := entity.NewPrediction("Silty Sand", 0.9, map[string]float64{"Silty Sand": 0.9, "Clayey Sand": 0.1})
	require.NoError(t, err)

	out := renderSession(entity.SessionSnapshot{
		Step:         entity.StepComplete,
		Location:     "Borehole 7",
		Prediction:   prediction,
		TotalWeight:  &total,
		GravelWeight: &gravel,
		SandWeight:   &sand,
		SoilType:     "SM",
		SaveStatus:   "Saved",
	})

	require.Contains(t, out, entity.StepComplete.Prompt())
	require.Contains(t, out, "Silty Sand (90.00%, high confidence)")
	require.Contains(t, out, "• Gravel: 30.00%")
	require.Contains(t, out, "• Sand: 50.00%")
	require.Contains(t, out, "• Fines: 20.00%")
	require.Contains(t, out, "USCS soil type: SM")
	require.NotContains(t, out, msgLowConfidence)
}

func TestRenderSession_Initial(t *testing.T) {
	out := renderSession(entity.SessionSnapshot{Step: entity.StepAwaitingLocation})
	require.Equal(t, "📋 "+entity.StepAwaitingLocation.Prompt(), out)
}

func TestRenderPrediction_Rejected(t *testing.T) {
	p, err := entity.NewPrediction(entity.UnclassifiedLabel, 0.5, map[string]float64{entity.UnclassifiedLabel: 0.5, "Silty Sand": 0.5})
	require.NoError(t, err)

	out := renderPrediction(p)
	require.Contains(t, out, "rejected as unclassified")
	require.Contains(t, out, msgLowConfidence)
}

func TestRenderHistory(t *testing.T) {
	require.Equal(t, "🗂 No completed analyses yet.", renderHistory(nil))

	out := renderHistory([]*entity.AnalysisRecord{{
		Location:  "Pit 3",
		SoilType:  "GW",
		Status:    entity.ReviewPending,
		Fractions: entity.Fractions{GravelPercent: 60, SandPercent: 30, FinesPercent: 10},
		CreatedAt: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
	}})
	require.Contains(t, out, "2024-05-01 12:30 · Pit 3")
	require.Contains(t, out, "USCS: GW · image: — · PENDING")
	require.Contains(t, out, "Gravel 60.00% · Sand 30.00% · Fines 10.00%")
}

func TestRenderError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"busy", entity.ErrBusy, "still running"},
		{"superseded", fmt.Errorf("predict: %w", entity.ErrSuperseded), "discarded"},
		{"validation", &entity.ValidationError{Field: "location", Reason: "must not be empty"}, "⚠️ Invalid location: must not be empty."},
		{"state", &entity.StateError{Op: "submit location", Step: entity.StepComplete}, "🚫 Submit location is not allowed"},
		{"consistency", &entity.SensorConsistencyError{Reason: "sand exceeds total"}, "Re-measure"},
		{"collaborator", &entity.CollaboratorError{Collaborator: "scale", Err: errors.New("HTTP error: 500")}, "⚠️ Error: scale failed: HTTP error: 500"},
		{"unknown", errors.New("boom"), msgProcessingError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Contains(t, renderError(tt.err), tt.want)
		})
	}
}
