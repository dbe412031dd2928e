package entity

// Operator инженер, ведущий анализ через бота
type Operator struct {
	ID      int64    // Telegram User ID
	ChatID  int64    // Telegram Chat ID
	Session *Session // Текущая сессия анализа
	Token   string   // Bearer-токен для финального взвешивания
	Image   []byte   // Последний отправленный снимок пробы
}

// NewOperator создаёт оператора со свежей сессией
func NewOperator(operatorID, chatID int64) *Operator {
	return &Operator{
		ID:      operatorID,
		ChatID:  chatID,
		Session: NewSession(),
	}
}

// Auth возвращает сохранённый токен как capability для шага песка
func (o *Operator) Auth() Auth {
	return Auth{Token: o.Token}
}
