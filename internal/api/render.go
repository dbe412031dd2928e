package telegram

import (
	"errors"
	"fmt"
	"strings"

	"soil-bot/internal/domain/entity"
)

const msgLowConfidence = "⚠️ Low confidence detected. Consider recapturing the image or manual verification."

// renderSession превращает состояние сессии в сообщение для оператора.
func renderSession(snap entity.SessionSnapshot) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "📋 %s\n", snap.Step.Prompt())
	if snap.Location != "" {
		fmt.Fprintf(&sb, "\n📍 Location: %s\n", snap.Location)
	}
	if snap.Prediction != nil {
		sb.WriteString("\n")
		sb.WriteString(renderPrediction(snap.Prediction))
	}

	if snap.TotalWeight != nil || snap.GravelWeight != nil || snap.SandWeight != nil {
		sb.WriteString("\n⚖️ Weights:\n")
		writeWeight(&sb, "Total", snap.TotalWeight)
		writeWeight(&sb, "Gravel", snap.GravelWeight)
		writeWeight(&sb, "Sand", snap.SandWeight)
	}

	if f, ok := snap.Fractions(); ok {
		r := f.Rounded()
		sb.WriteString("\n📊 Composition:\n")
		fmt.Fprintf(&sb, "• Gravel: %.2f%%\n", r.GravelPercent)
		fmt.Fprintf(&sb, "• Sand: %.2f%%\n", r.SandPercent)
		fmt.Fprintf(&sb, "• Fines: %.2f%%\n", r.FinesPercent)
	}

	if snap.SoilType != "" {
		fmt.Fprintf(&sb, "\n🧪 USCS soil type: %s\n", snap.SoilType)
	}
	if snap.SaveStatus != "" {
		fmt.Fprintf(&sb, "💾 %s\n", snap.SaveStatus)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func renderPrediction(p *entity.Prediction) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🔍 Image prediction: %s (%.2f%%, %s confidence)\n", p.Label, p.Confidence*100, p.ConfidenceLevel())
	for _, lp := range p.Ranked() {
		fmt.Fprintf(&sb, "  • %s: %.1f%%\n", lp.Label, lp.Probability*100)
	}
	if p.Status == entity.PredictionRejected {
		sb.WriteString("❌ Image rejected as unclassified.\n")
	}
	if p.ConfidenceLevel() == entity.ConfidenceLow {
		sb.WriteString(msgLowConfidence + "\n")
	}
	return sb.String()
}

func writeWeight(sb *strings.Builder, name string, grams *float64) {
	if grams == nil {
		return
	}
	fmt.Fprintf(sb, "• %s: %.2f g\n", name, *grams)
}

// renderHistory список завершённых анализов
func renderHistory(records []*entity.AnalysisRecord) string {
	if len(records) == 0 {
		return "🗂 No completed analyses yet."
	}

	var sb strings.Builder
	sb.WriteString("🗂 Recent analyses:\n")
	for _, rec := range records {
		fmt.Fprintf(&sb, "\n%s · %s\n", rec.CreatedAt.Format("2006-01-02 15:04"), rec.Location)
		fmt.Fprintf(&sb, "USCS: %s · image: %s · %s\n", rec.SoilType, valueOr(rec.ImageSoilType, "—"), rec.Status)
		fmt.Fprintf(&sb, "Gravel %.2f%% · Sand %.2f%% · Fines %.2f%%\n",
			rec.Fractions.GravelPercent, rec.Fractions.SandPercent, rec.Fractions.FinesPercent)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderError сообщение об ошибке по её виду.
func renderError(err error) string {
	var (
		validationErr   *entity.ValidationError
		stateErr        *entity.StateError
		consistencyErr  *entity.SensorConsistencyError
		collaboratorErr *entity.CollaboratorError
	)

	switch {
	case errors.Is(err, entity.ErrBusy):
		return "⏳ The previous operation is still running, please wait."
	case errors.Is(err, entity.ErrSuperseded):
		return "↩️ The session was reset, the late result was discarded."
	case errors.As(err, &validationErr):
		return "⚠️ " + capitalize(validationErr.Error()) + "."
	case errors.As(err, &stateErr):
		return "🚫 " + capitalize(stateErr.Error()) + ". Use /status to see the current step."
	case errors.As(err, &consistencyErr):
		return "⚖️ " + capitalize(consistencyErr.Error()) + ". Re-measure the fraction and try again."
	case errors.As(err, &collaboratorErr):
		return "⚠️ Error: " + collaboratorErr.Error()
	}
	return msgProcessingError
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
