package domain

import "fmt"

// Apply применяет событие к заказу по таблице переходов и возвращает
// новое состояние. Исходный заказ не мутируется: при недопустимом
// событии состояние остаётся прежним, а вызывающая сторона получает
// ErrInvalidTransition с указанием нарушенного правила.
//
// Таблица переходов:
//
//	pending  + start_production -> running
//	running  + start_downtime   -> stopped
//	running  + complete_order   -> completed
//	running  + record_quantity  -> running (увеличивает RealizedQty)
//	stopped  + end_downtime     -> running
//	completed + любое событие   -> отклоняется (терминальный статус)
func Apply(order Order, event Event) (Order, error) {
	if event.OrderID != order.ID {
		return order, fmt.Errorf("%w: event belongs to order %q", ErrMalformedEvent, event.OrderID)
	}
	if order.Status == OrderStatusCompleted {
		return order, rejection(order, event)
	}

	switch {
	case order.Status == OrderStatusPending && event.Kind == EventStartProduction:
		order.Status = OrderStatusRunning
	case order.Status == OrderStatusRunning && event.Kind == EventStartDowntime:
		order.Status = OrderStatusStopped
	case order.Status == OrderStatusRunning && event.Kind == EventCompleteOrder:
		order.Status = OrderStatusCompleted
	case order.Status == OrderStatusRunning && event.Kind == EventRecordQuantity:
		// Статус не меняется; количество только накапливается.
		order.RealizedQty += event.Qty
	case order.Status == OrderStatusStopped && event.Kind == EventEndDowntime:
		order.Status = OrderStatusRunning
	default:
		return order, rejection(order, event)
	}

	order.UpdatedAt = event.Occurred
	return order, nil
}

// Replay прогоняет события заказа через таблицу переходов с нуля.
// Недопустимые события пропускаются: повторный прогон того же журнала
// всегда даёт тот же итоговый статус и количество.
func Replay(order Order, events []Event) Order {
	order.Status = OrderStatusPending
	order.RealizedQty = 0

	for _, event := range SortChronologically(events) {
		next, err := Apply(order, event)
		if err != nil {
			continue
		}
		order = next
	}

	return order
}

func rejection(order Order, event Event) error {
	return fmt.Errorf("%w: %s rejected for order %s in status %s",
		ErrInvalidTransition, event.Kind, order.ID, order.Status)
}
