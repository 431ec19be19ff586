package tracker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
	"github.com/vladislavdragonenkov/atelier/internal/storage/memory"
)

var base = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

func newTestTracker() *Tracker {
	orders := memory.NewOrderRepository()
	events := memory.NewEventLog()
	return NewTrackerWithoutMetrics(orders, memory.NewRecorder(orders, events), nil)
}

func makeEvent(orderID string, kind domain.EventKind, offset time.Duration) domain.Event {
	return domain.Event{
		OrderID:  orderID,
		Kind:     kind,
		Occurred: base.Add(offset),
	}
}

func TestTracker_CreateOrder(t *testing.T) {
	tr := newTestTracker()

	order, err := tr.CreateOrder(CreateOrderParams{
		ID:             "of-2026-001",
		Description:    "veste en laine",
		PlannedMinutes: 60,
		PlannedQty:     10,
	})
	require.NoError(t, err)
	require.Equal(t, "of-2026-001", order.ID)
	require.Equal(t, domain.OrderStatusPending, order.Status)
	require.Zero(t, order.RealizedQty)

	stored, err := tr.GetOrder("of-2026-001")
	require.NoError(t, err)
	require.Equal(t, order.ID, stored.ID)
}

func TestTracker_CreateOrderGeneratesID(t *testing.T) {
	tr := newTestTracker()

	order, err := tr.CreateOrder(CreateOrderParams{PlannedMinutes: 30})
	require.NoError(t, err)
	require.NotEmpty(t, order.ID)
}

func TestTracker_CreateOrderDuplicate(t *testing.T) {
	tr := newTestTracker()

	_, err := tr.CreateOrder(CreateOrderParams{ID: "of-2026-001"})
	require.NoError(t, err)

	_, err = tr.CreateOrder(CreateOrderParams{ID: "of-2026-001"})
	require.ErrorIs(t, err, domain.ErrOrderAlreadyExists)
}

func TestTracker_CreateOrderInvalidPlan(t *testing.T) {
	tr := newTestTracker()

	_, err := tr.CreateOrder(CreateOrderParams{ID: "of-2026-001", PlannedMinutes: -5})
	require.ErrorIs(t, err, domain.ErrPlannedMinutesNegative)
}

func TestTracker_RecordEventLifecycle(t *testing.T) {
	tr := newTestTracker()
	_, err := tr.CreateOrder(CreateOrderParams{ID: "of-2026-001", PlannedMinutes: 60, PlannedQty: 10})
	require.NoError(t, err)

	steps := []struct {
		event  domain.Event
		status domain.OrderStatus
	}{
		{makeEvent("of-2026-001", domain.EventStartProduction, 0), domain.OrderStatusRunning},
		{func() domain.Event {
			e := makeEvent("of-2026-001", domain.EventRecordQuantity, 10*time.Minute)
			e.Qty = 4
			return e
		}(), domain.OrderStatusRunning},
		{makeEvent("of-2026-001", domain.EventStartDowntime, 20*time.Minute), domain.OrderStatusStopped},
		{func() domain.Event {
			e := makeEvent("of-2026-001", domain.EventEndDowntime, 35*time.Minute)
			e.Cause = "Qualité"
			return e
		}(), domain.OrderStatusRunning},
		{makeEvent("of-2026-001", domain.EventCompleteOrder, 60*time.Minute), domain.OrderStatusCompleted},
	}

	for i, step := range steps {
		stored, err := tr.RecordEvent(step.event)
		require.NoError(t, err, "step %d", i)
		require.Equal(t, int64(i+1), stored.Seq, "step %d", i)

		order, err := tr.GetOrder("of-2026-001")
		require.NoError(t, err)
		require.Equal(t, step.status, order.Status, "step %d", i)
	}

	order, err := tr.GetOrder("of-2026-001")
	require.NoError(t, err)
	require.Equal(t, 4.0, order.RealizedQty)
}

func TestTracker_RecordEventRejectedKeepsState(t *testing.T) {
	tr := newTestTracker()
	_, err := tr.CreateOrder(CreateOrderParams{ID: "of-2026-001"})
	require.NoError(t, err)

	// complete_order недопустим для pending.
	_, err = tr.RecordEvent(makeEvent("of-2026-001", domain.EventCompleteOrder, 0))
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.True(t, domain.IsRejected(err))

	order, err := tr.GetOrder("of-2026-001")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPending, order.Status)
}

func TestTracker_RecordEventMalformedNotLogged(t *testing.T) {
	tr := newTestTracker()
	_, err := tr.CreateOrder(CreateOrderParams{ID: "of-2026-001"})
	require.NoError(t, err)

	bad := makeEvent("of-2026-001", domain.EventRecordQuantity, 0)
	bad.Qty = 0
	_, err = tr.RecordEvent(bad)
	require.ErrorIs(t, err, domain.ErrMalformedEvent)
}

func TestTracker_RecordEventUnknownOrder(t *testing.T) {
	tr := newTestTracker()

	_, err := tr.RecordEvent(makeEvent("missing", domain.EventStartProduction, 0))
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestTracker_ListOrders(t *testing.T) {
	tr := newTestTracker()

	for _, id := range []string{"of-2026-001", "of-2026-002", "of-2026-003"} {
		_, err := tr.CreateOrder(CreateOrderParams{ID: id})
		require.NoError(t, err)
	}

	orders, err := tr.ListOrders(2)
	require.NoError(t, err)
	require.Len(t, orders, 2)
}

func TestTracker_ConcurrentQuantityRecords(t *testing.T) {
	tr := newTestTracker()
	_, err := tr.CreateOrder(CreateOrderParams{ID: "of-2026-001", PlannedQty: 100})
	require.NoError(t, err)

	_, err = tr.RecordEvent(makeEvent("of-2026-001", domain.EventStartProduction, 0))
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			event := makeEvent("of-2026-001", domain.EventRecordQuantity, time.Duration(i+1)*time.Minute)
			event.Qty = 1
			if _, err := tr.RecordEvent(event); err != nil {
				t.Errorf("record quantity: %v", err)
			}
		}(i)
	}
	wg.Wait()

	order, err := tr.GetOrder("of-2026-001")
	require.NoError(t, err)
	require.Equal(t, float64(workers), order.RealizedQty)
}
