package entity

// Step шаг протокола анализа пробы грунта
type Step string

const (
	StepAwaitingLocation     Step = "awaiting_location"      // Ожидание места отбора пробы
	StepAwaitingImage        Step = "awaiting_image"         // Ожидание снимка пробы
	StepAwaitingTotalWeight  Step = "awaiting_total_weight"  // Ожидание общего веса
	StepAwaitingGravelWeight Step = "awaiting_gravel_weight" // Ожидание веса гравийной фракции
	StepAwaitingSandWeight   Step = "awaiting_sand_weight"   // Ожидание веса песчаной фракции
	StepComplete             Step = "complete"               // Анализ завершён
)

var stepPrompts = map[Step]string{
	StepAwaitingLocation:     "Enter location for soil sample...",
	StepAwaitingImage:        "Capture soil image for prediction...",
	StepAwaitingTotalWeight:  "Place unwashed soil sample, press 1...",
	StepAwaitingGravelWeight: "Place gravel fraction, press 2...",
	StepAwaitingSandWeight:   "Place sand fraction, press 3...",
	StepComplete:             "Done. Press R to reset",
}

// Prompt возвращает подсказку оператору для текущего шага
func (s Step) Prompt() string {
	if p, ok := stepPrompts[s]; ok {
		return p
	}
	return "Unknown status"
}

// Weighing сообщает, идёт ли сейчас взвешивание (шаги total..sand).
func (s Step) Weighing() bool {
	switch s {
	case StepAwaitingTotalWeight, StepAwaitingGravelWeight, StepAwaitingSandWeight:
		return true
	}
	return false
}

// WeightKind вид взвешивания
type WeightKind string

const (
	WeightTotal  WeightKind = "total"
	WeightGravel WeightKind = "gravel"
	WeightSand   WeightKind = "sand"
)

// expectedStep шаг, в котором допустимо взвешивание данного вида
func (k WeightKind) expectedStep() Step {
	switch k {
	case WeightTotal:
		return StepAwaitingTotalWeight
	case WeightGravel:
		return StepAwaitingGravelWeight
	case WeightSand:
		return StepAwaitingSandWeight
	}
	return ""
}

// Command токен команды для весового контроллера
func (k WeightKind) Command() Command {
	switch k {
	case WeightTotal:
		return CommandTotal
	case WeightGravel:
		return CommandGravel
	case WeightSand:
		return CommandSand
	}
	return ""
}
