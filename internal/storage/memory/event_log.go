package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
)

// EventLog хранит журнал событий в памяти (для разработки/тестов).
// Порядок добавления фиксируется сквозным Seq; сортировку по времени
// выполняет чтение, журнал хранит события как есть.
type EventLog struct {
	mu      sync.RWMutex
	nextSeq int64
	events  []domain.Event
	byOrder map[string][]int
}

// NewEventLog создаёт in-memory реализацию EventLog.
func NewEventLog() *EventLog {
	return &EventLog{
		nextSeq: 1,
		byOrder: make(map[string][]int),
	}
}

// Append добавляет событие в журнал и присваивает ему Seq.
func (l *EventLog) Append(event domain.Event) (domain.Event, error) {
	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.appendLocked(event), nil
}

// appendLocked выполняет саму запись; вызывающий держит l.mu.
func (l *EventLog) appendLocked(event domain.Event) domain.Event {
	event.Seq = l.nextSeq
	l.nextSeq++
	l.byOrder[event.OrderID] = append(l.byOrder[event.OrderID], len(l.events))
	l.events = append(l.events, event)
	return event
}

// ListByOrder возвращает события заказа в порядке добавления.
func (l *EventLog) ListByOrder(orderID string) ([]domain.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	indexes := l.byOrder[orderID]
	result := make([]domain.Event, 0, len(indexes))
	for _, idx := range indexes {
		result = append(result, l.events[idx])
	}
	return result, nil
}

// ListAll возвращает копию всего журнала в порядке добавления.
func (l *EventLog) ListAll() ([]domain.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]domain.Event, len(l.events))
	copy(result, l.events)
	return result, nil
}

var _ domain.EventLog = (*EventLog)(nil)
