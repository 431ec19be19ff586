package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
)

type eventLog struct {
	db *sql.DB
}

// NewEventLog создаёт PostgreSQL-реализацию журнала событий.
// Seq присваивается последовательностью БД, поэтому порядок добавления
// монотонный даже при нескольких экземплярах сервиса.
func NewEventLog(store *Store) domain.EventLog {
	return &eventLog{db: store.DB()}
}

func (l *eventLog) Append(event domain.Event) (domain.Event, error) {
	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	err := l.db.QueryRowContext(ctx, `
		INSERT INTO order_events (order_id, kind, occurred, cause, note, qty)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING seq
	`,
		event.OrderID, string(event.Kind), event.Occurred,
		event.Cause, event.Note, event.Qty,
	).Scan(&event.Seq)
	if err != nil {
		return domain.Event{}, fmt.Errorf("insert event: %w", err)
	}

	return event, nil
}

func (l *eventLog) ListByOrder(orderID string) ([]domain.Event, error) {
	return l.list(`
		SELECT seq, order_id, kind, occurred, cause, note, qty
		FROM order_events
		WHERE order_id = $1
		ORDER BY seq ASC
	`, orderID)
}

func (l *eventLog) ListAll() ([]domain.Event, error) {
	return l.list(`
		SELECT seq, order_id, kind, occurred, cause, note, qty
		FROM order_events
		ORDER BY seq ASC
	`)
}

func (l *eventLog) list(query string, args ...interface{}) ([]domain.Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		var event domain.Event
		var kind string
		if err := rows.Scan(
			&event.Seq, &event.OrderID, &kind, &event.Occurred,
			&event.Cause, &event.Note, &event.Qty,
		); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		event.Kind = domain.EventKind(kind)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	return events, nil
}

var _ domain.EventLog = (*eventLog)(nil)
