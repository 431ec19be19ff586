package domain

import "errors"

var (
	// ErrInvalidTransition — событие недопустимо для текущего статуса заказа.
	// Ошибка восстановимая: вызывающая сторона решает, сохранить ли событие
	// как аномалию аудита или отбросить.
	ErrInvalidTransition = errors.New("event is not allowed in current order status")
	// ErrMalformedEvent — событие не прошло валидацию и в журнал не записывается.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrOrderNotFound возвращается, если заказ не найден в реестре.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAlreadyExists — попытка создать заказ с занятым идентификатором.
	ErrOrderAlreadyExists = errors.New("order already exists")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")

	// Ошибки инвариантов заказа.
	ErrOrderIDRequired        = errors.New("order_id is required")
	ErrPlannedMinutesNegative = errors.New("planned_minutes must be non-negative")
	ErrPlannedQtyNegative     = errors.New("planned_qty must be non-negative")
	ErrRealizedQtyNegative    = errors.New("realized_qty must be non-negative")
	ErrUnknownStatus          = errors.New("unknown order status")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsRejected сообщает, была ли запись отклонена по бизнес-правилу
// (в отличие от инфраструктурного сбоя).
func IsRejected(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrMalformedEvent) ||
		errors.Is(err, ErrOrderNotFound)
}
