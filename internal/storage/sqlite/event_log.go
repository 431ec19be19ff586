package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
)

type eventLog struct {
	db *sql.DB
}

// NewEventLog создаёт SQLite-реализацию журнала событий.
func NewEventLog(store *Store) domain.EventLog {
	return &eventLog{db: store.DB()}
}

func (l *eventLog) Append(event domain.Event) (domain.Event, error) {
	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := l.db.ExecContext(ctx, `
		INSERT INTO order_events (order_id, kind, occurred, cause, note, qty, recorded_at)
		VALUES (?,?,?,?,?,?,?)
	`,
		event.OrderID, string(event.Kind), toMillis(event.Occurred),
		event.Cause, event.Note, event.Qty, toMillis(time.Now()),
	)
	if err != nil {
		return domain.Event{}, fmt.Errorf("insert event: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return domain.Event{}, fmt.Errorf("last insert id: %w", err)
	}
	event.Seq = seq

	return event, nil
}

func (l *eventLog) ListByOrder(orderID string) ([]domain.Event, error) {
	return l.list(`
		SELECT seq, order_id, kind, occurred, cause, note, qty
		FROM order_events
		WHERE order_id = ?
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
		var occurred int64
		if err := rows.Scan(
			&event.Seq, &event.OrderID, &kind, &occurred,
			&event.Cause, &event.Note, &event.Qty,
		); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		event.Kind = domain.EventKind(kind)
		event.Occurred = fromMillis(occurred)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	return events, nil
}

var _ domain.EventLog = (*eventLog)(nil)
