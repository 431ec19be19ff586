package domain

import (
	"fmt"
	"time"
)

// EventKind определяет закрытый набор действий оператора.
// Неизвестные значения отсекаются на границе через ParseEventKind,
// чтобы дальше по конвейеру жили только допустимые виды событий.
type EventKind string

const (
	// EventStartProduction — начало производства по заказу.
	EventStartProduction EventKind = "start_production"
	// EventStartDowntime — начало простоя.
	EventStartDowntime EventKind = "start_downtime"
	// EventEndDowntime — окончание простоя; причина и примечание
	// фиксируются именно на этом событии, а не на начале простоя.
	EventEndDowntime EventKind = "end_downtime"
	// EventCompleteOrder — завершение заказа.
	EventCompleteOrder EventKind = "complete_order"
	// EventRecordQuantity — фиксация выпущенного количества.
	EventRecordQuantity EventKind = "record_quantity"
)

// ParseEventKind валидирует строковое представление вида события.
func ParseEventKind(raw string) (EventKind, error) {
	kind := EventKind(raw)
	switch kind {
	case EventStartProduction, EventStartDowntime, EventEndDowntime,
		EventCompleteOrder, EventRecordQuantity:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown event kind %q", ErrMalformedEvent, raw)
	}
}

// Event — неизменяемый факт в журнале: одно действие оператора над одним заказом.
// Seq присваивается журналом при добавлении и задаёт порядок для
// разрешения конфликтов одинаковых временных меток.
type Event struct {
	Seq      int64
	OrderID  string
	Kind     EventKind
	Occurred time.Time
	// Cause — причина простоя; заполняется на EventEndDowntime.
	Cause string
	// Note — свободный комментарий оператора.
	Note string
	// Qty — количество для EventRecordQuantity; для остальных видов ноль.
	Qty float64
}

// Validate проверяет событие до записи в журнал. Невалидные события
// в журнал не попадают вовсе.
func (e Event) Validate() error {
	if e.OrderID == "" {
		return fmt.Errorf("%w: order_id is required", ErrMalformedEvent)
	}
	if _, err := ParseEventKind(string(e.Kind)); err != nil {
		return err
	}
	if e.Occurred.IsZero() {
		return fmt.Errorf("%w: occurred timestamp is required", ErrMalformedEvent)
	}
	if e.Qty < 0 {
		return fmt.Errorf("%w: qty must be non-negative", ErrMalformedEvent)
	}
	if e.Kind == EventRecordQuantity && e.Qty == 0 {
		return fmt.Errorf("%w: record_quantity requires positive qty", ErrMalformedEvent)
	}
	return nil
}
