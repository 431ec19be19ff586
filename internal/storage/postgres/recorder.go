package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
)

// Recorder выполняет запись события и обновление заказа в одной
// транзакции PostgreSQL: читатели либо видят обе записи, либо ни
// одной, а сбой между ними не оставляет частичного состояния.
type Recorder struct {
	db *sql.DB
}

// NewRecorder создаёт транзакционную точку записи.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{db: store.DB()}
}

// Record дописывает событие и сохраняет заказ в одной транзакции.
// При конфликте версий транзакция откатывается целиком.
func (r *Recorder) Record(event domain.Event, order domain.Order) (domain.Event, error) {
	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Event{}, fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET description = $1,
		    planned_minutes = $2,
		    planned_qty = $3,
		    realized_qty = $4,
		    status = $5,
		    version = version + 1,
		    updated_at = $6
		WHERE id = $7
		  AND version = $8
	`,
		order.Description,
		order.PlannedMinutes,
		order.PlannedQty,
		order.RealizedQty,
		string(order.Status),
		order.UpdatedAt,
		order.ID,
		order.Version,
	)
	if err != nil {
		return domain.Event{}, fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Event{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var id string
		err := tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, order.ID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, domain.ErrOrderNotFound
		}
		if err != nil {
			return domain.Event{}, fmt.Errorf("check order exists: %w", err)
		}
		return domain.Event{}, domain.ErrOrderVersionConflict
	}

	err = tx.QueryRowContext(ctx, `
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

	if err := tx.Commit(); err != nil {
		return domain.Event{}, fmt.Errorf("commit record tx: %w", err)
	}

	return event, nil
}

var _ domain.EventRecorder = (*Recorder)(nil)
