package memory

import (
	"github.com/vladislavdragonenkov/atelier/internal/domain"
)

// Recorder связывает in-memory журнал и реестр в одну точку записи:
// событие и новое состояние заказа фиксируются под обоими замками,
// поэтому версия проверяется и журнал пополняется как одно целое.
type Recorder struct {
	orders *OrderRepository
	events *EventLog
}

// NewRecorder создаёт атомарную точку записи поверх пары хранилищ.
func NewRecorder(orders *OrderRepository, events *EventLog) *Recorder {
	return &Recorder{orders: orders, events: events}
}

// Record дописывает событие и сохраняет заказ одной операцией.
// При конфликте версий журнал остаётся нетронутым.
func (r *Recorder) Record(event domain.Event, order domain.Order) (domain.Event, error) {
	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}

	// Порядок захвата: реестр, затем журнал. Остальные операции обоих
	// хранилищ берут только свой замок, так что взаимная блокировка
	// невозможна.
	r.orders.mu.Lock()
	defer r.orders.mu.Unlock()
	r.events.mu.Lock()
	defer r.events.mu.Unlock()

	if err := r.orders.saveLocked(order); err != nil {
		return domain.Event{}, err
	}

	return r.events.appendLocked(event), nil
}

var _ domain.EventRecorder = (*Recorder)(nil)
