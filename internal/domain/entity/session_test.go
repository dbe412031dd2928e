package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func testPrediction(t *testing.T) *Prediction {
	t.Helper()
	p, err := NewPrediction("Silty Sand", 0.86, map[string]float64{
		"Silty Sand":   0.86,
		"Clayey Sand":  0.10,
		"Unclassified": 0.04,
	})
	require.NoError(t, err)
	return p
}

// sessionAtSand доводит сессию до шага взвешивания песка.
func sessionAtSand(t *testing.T, total, gravel float64) *Session {
	t.Helper()
	s := NewSession()
	require.NoError(t, s.SubmitLocation("Borehole 7"))
	require.NoError(t, s.SubmitPrediction(testPrediction(t)))
	require.NoError(t, s.RecordWeight(WeightTotal, total))
	require.NoError(t, s.RecordWeight(WeightGravel, gravel))
	require.Equal(t, StepAwaitingSandWeight, s.Step())
	return s
}

func TestNewSession_InitialState(t *testing.T) {
	s := NewSession()
	snap := s.Snapshot()
	require.Equal(t, StepAwaitingLocation, snap.Step)
	require.Empty(t, snap.Location)
	require.Nil(t, snap.Prediction)
	require.Nil(t, snap.TotalWeight)
	_, ok := snap.Fractions()
	require.False(t, ok)
}

func TestSession_FullProtocol(t *testing.T) {
	s := sessionAtSand(t, 100, 30)
	require.NoError(t, s.RecordWeight(WeightSand, 50))
	require.Equal(t, StepComplete, s.Step())

	f, ok := s.Fractions()
	require.True(t, ok)
	r := f.Rounded()
	require.Equal(t, 30.00, r.GravelPercent)
	require.Equal(t, 50.00, r.SandPercent)
	require.Equal(t, 20.00, r.FinesPercent)
	require.InDelta(t, 100, f.Sum(), PercentTolerance)

	require.NoError(t, s.AssignSoilType("SM", "saved"))
	snap := s.Snapshot()
	require.Equal(t, "SM", snap.SoilType)
	require.Equal(t, "saved", snap.SaveStatus)
}

func TestSession_SubmitLocation_Whitespace(t *testing.T) {
	s := NewSession()
	err := s.SubmitLocation("   ")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, StepAwaitingLocation, s.Step())
	require.Empty(t, s.Snapshot().Location)
}

func TestSession_SubmitLocation_Trims(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.SubmitLocation("  Site A  "))
	require.Equal(t, "Site A", s.Snapshot().Location)
	require.Equal(t, StepAwaitingImage, s.Step())

	var serr *StateError
	require.ErrorAs(t, s.SubmitLocation("Site B"), &serr)
	require.Equal(t, "Site A", s.Snapshot().Location)
}

func TestSession_SubmitPrediction_Overwrite(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.SubmitLocation("Site"))
	require.NoError(t, s.SubmitPrediction(testPrediction(t)))

	second, err := NewPrediction("Clayey Sand", 0.75, nil)
	require.NoError(t, err)
	require.NoError(t, s.SubmitPrediction(second))
	require.Equal(t, "Clayey Sand", s.Snapshot().Prediction.Label)
	require.Equal(t, StepAwaitingTotalWeight, s.Step())

	require.NoError(t, s.RecordWeight(WeightTotal, 100))
	var serr *StateError
	require.ErrorAs(t, s.SubmitPrediction(testPrediction(t)), &serr)
	require.Equal(t, "Clayey Sand", s.Snapshot().Prediction.Label)
}

func TestSession_SubmitPrediction_BeforeLocation(t *testing.T) {
	s := NewSession()
	var serr *StateError
	require.ErrorAs(t, s.SubmitPrediction(testPrediction(t)), &serr)
	require.Equal(t, StepAwaitingLocation, s.Step())
}

func TestSession_RecordWeight_WrongKind(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.SubmitLocation("Site"))
	require.NoError(t, s.SubmitPrediction(testPrediction(t)))
	before := s.Snapshot()

	for _, kind := range []WeightKind{WeightGravel, WeightSand} {
		var serr *StateError
		require.ErrorAs(t, s.RecordWeight(kind, 10), &serr)
		require.Equal(t, before, s.Snapshot())
	}
}

func TestSession_RecordWeight_Negative(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.SubmitLocation("Site"))
	require.NoError(t, s.SubmitPrediction(testPrediction(t)))

	var verr *ValidationError
	require.ErrorAs(t, s.RecordWeight(WeightTotal, -5), &verr)
	require.Equal(t, StepAwaitingTotalWeight, s.Step())
	require.Nil(t, s.Snapshot().TotalWeight)
}

func TestSession_RecordSand_ExceedsTotal(t *testing.T) {
	s := sessionAtSand(t, 100, 60)
	err := s.RecordWeight(WeightSand, 50)

	var cerr *SensorConsistencyError
	require.ErrorAs(t, err, &cerr)
	snap := s.Snapshot()
	require.Equal(t, StepAwaitingSandWeight, snap.Step)
	require.Equal(t, 100.0, *snap.TotalWeight)
	require.Equal(t, 60.0, *snap.GravelWeight)
	require.Nil(t, snap.SandWeight)

	// оператор перевешивает песок
	require.NoError(t, s.RecordWeight(WeightSand, 40))
	require.Equal(t, StepComplete, s.Step())
}

func TestSession_RecordSand_WithinTolerance(t *testing.T) {
	s := sessionAtSand(t, 100, 60)
	require.NoError(t, s.RecordWeight(WeightSand, 40.8))

	f, ok := s.Fractions()
	require.True(t, ok)
	require.Equal(t, 0.0, f.Rounded().FinesPercent)
}

func TestSession_RecordSand_ZeroTotal(t *testing.T) {
	s := sessionAtSand(t, 0, 0)
	var cerr *SensorConsistencyError
	require.ErrorAs(t, s.RecordWeight(WeightSand, 0), &cerr)
	require.Equal(t, StepAwaitingSandWeight, s.Step())
}

func TestSession_AssignSoilType_BeforeComplete(t *testing.T) {
	s := sessionAtSand(t, 100, 30)
	var serr *StateError
	require.ErrorAs(t, s.AssignSoilType("SM", ""), &serr)
}

func TestSession_ResetFromEveryStep(t *testing.T) {
	fresh := NewSession().Snapshot()

	steps := []func(s *Session){
		func(s *Session) {},
		func(s *Session) { _ = s.SubmitLocation("Site") },
		func(s *Session) { _ = s.SubmitPrediction(testPrediction(t)) },
		func(s *Session) { _ = s.RecordWeight(WeightTotal, 100) },
		func(s *Session) { _ = s.RecordWeight(WeightGravel, 30) },
		func(s *Session) {
			_ = s.RecordWeight(WeightSand, 50)
			_ = s.AssignSoilType("SM", "saved")
		},
	}

	s := NewSession()
	for i, advance := range steps {
		advance(s)
		probe := NewSession()
		probe.Restore(s.Snapshot())
		probe.Reset()
		require.Equal(t, fresh, probe.Snapshot(), "reset after step %d", i)
	}
	require.Equal(t, StepComplete, s.Step())
	s.Reset()
	require.Equal(t, fresh, s.Snapshot())
}

func TestSession_SnapshotIsolation(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.SubmitLocation("Site"))
	require.NoError(t, s.SubmitPrediction(testPrediction(t)))

	snap := s.Snapshot()
	snap.Prediction.Probabilities["Silty Sand"] = 0
	require.Equal(t, 0.86, s.Snapshot().Prediction.Probabilities["Silty Sand"])
}

func TestSession_Restore(t *testing.T) {
	s := sessionAtSand(t, 100, 30)
	snap := s.Snapshot()

	require.NoError(t, s.RecordWeight(WeightSand, 50))
	s.Restore(snap)
	require.Equal(t, snap, s.Snapshot())
	require.Equal(t, StepAwaitingSandWeight, s.Step())
}
