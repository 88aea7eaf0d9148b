// Пакет status — статусы заявок и допустимые переходы между ними.
//
// Жизненный цикл заявки: Pending → Approved | Rejected.
// Конечных статусов нет: администратор может вернуть заявку
// в любой статус, включая повторную установку текущего.
package status

import "fmt"

// Status — статус заявки.
type Status string

const (
	// StatusPending — заявка подана, ожидает рассмотрения
	StatusPending Status = "Pending"
	// StatusApproved — заявка одобрена
	StatusApproved Status = "Approved"
	// StatusRejected — заявка отклонена (обычно с указанием причины)
	StatusRejected Status = "Rejected"
)

// validTransitions — матрица допустимых переходов.
// Ключ — текущий статус, значение — набор допустимых целевых статусов.
// Любой статус достижим из любого, повторная установка того же — допустима.
var validTransitions = map[Status]map[Status]bool{
	StatusPending:  {StatusPending: true, StatusApproved: true, StatusRejected: true},
	StatusApproved: {StatusPending: true, StatusApproved: true, StatusRejected: true},
	StatusRejected: {StatusPending: true, StatusApproved: true, StatusRejected: true},
}

// IsValid проверяет, является ли значение допустимым статусом.
func IsValid(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Parse преобразует строку в Status.
// Возвращает ошибку для недопустимых значений (с учётом регистра).
func Parse(s string) (Status, error) {
	st := Status(s)
	if !IsValid(st) {
		return "", fmt.Errorf("недопустимый статус: %q, допустимые: Pending, Approved, Rejected", s)
	}
	return st, nil
}

// CanTransition проверяет, допустим ли переход между статусами.
// Оба статуса должны быть валидными.
func CanTransition(from, to Status) bool {
	transitions, ok := validTransitions[from]
	if !ok {
		return false
	}
	return transitions[to]
}
