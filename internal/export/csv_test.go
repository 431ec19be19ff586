package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
)

var base = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

func TestEventsRoundTrip(t *testing.T) {
	events := []domain.Event{
		{Seq: 1, OrderID: "of-2026-001", Kind: domain.EventStartProduction, Occurred: base},
		{Seq: 2, OrderID: "of-2026-001", Kind: domain.EventStartDowntime, Occurred: base.Add(20 * time.Minute)},
		{Seq: 3, OrderID: "of-2026-001", Kind: domain.EventEndDowntime, Occurred: base.Add(35 * time.Minute), Cause: "Qualité", Note: "bourrage machine"},
		{Seq: 4, OrderID: "of-2026-001", Kind: domain.EventRecordQuantity, Occurred: base.Add(40 * time.Minute), Qty: 5},
	}

	var buf bytes.Buffer
	if err := WriteEvents(&buf, events); err != nil {
		t.Fatalf("write events: %v", err)
	}

	got, err := ReadEvents(&buf)
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("expected %d events, got %d", len(events), len(got))
	}
	for i := range events {
		if got[i].Seq != events[i].Seq || got[i].Kind != events[i].Kind {
			t.Fatalf("event %d mismatch: %+v vs %+v", i, got[i], events[i])
		}
		if !got[i].Occurred.Equal(events[i].Occurred) {
			t.Fatalf("event %d occurred mismatch: %v vs %v", i, got[i].Occurred, events[i].Occurred)
		}
	}
	if got[2].Cause != "Qualité" || got[2].Note != "bourrage machine" {
		t.Fatalf("optional fields lost: %+v", got[2])
	}
	if got[3].Qty != 5 {
		t.Fatalf("expected qty 5, got %v", got[3].Qty)
	}
}

func TestEmptyOptionalFieldsStayEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := WriteEvents(&buf, []domain.Event{
		{Seq: 1, OrderID: "of-2026-001", Kind: domain.EventStartProduction, Occurred: base},
	})
	if err != nil {
		t.Fatalf("write events: %v", err)
	}

	// Отсутствующее количество — пустая ячейка, не "0".
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.HasSuffix(lines[1], ",,,") {
		t.Fatalf("expected empty optional cells, got line %q", lines[1])
	}
}

func TestOrdersRoundTrip(t *testing.T) {
	orders := []domain.Order{
		{
			ID: "of-2026-001", Description: "veste en laine",
			PlannedMinutes: 60, PlannedQty: 10, RealizedQty: 4,
			Status: domain.OrderStatusRunning, Version: 3,
			CreatedAt: base, UpdatedAt: base.Add(time.Hour),
		},
		{
			ID:     "of-2026-002",
			Status: domain.OrderStatusPending,
			// План не задан: ячейки остаются пустыми.
			CreatedAt: base, UpdatedAt: base,
		},
	}

	var buf bytes.Buffer
	if err := WriteOrders(&buf, orders); err != nil {
		t.Fatalf("write orders: %v", err)
	}

	got, err := ReadOrders(&buf)
	if err != nil {
		t.Fatalf("read orders: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(got))
	}
	if got[0].PlannedMinutes != 60 || got[0].RealizedQty != 4 {
		t.Fatalf("numeric fields lost: %+v", got[0])
	}
	if got[1].PlannedMinutes != 0 || got[1].PlannedQty != 0 {
		t.Fatalf("expected absent plan to read as zero: %+v", got[1])
	}
}

func TestReadEventsRejectsBadHeader(t *testing.T) {
	_, err := ReadEvents(strings.NewReader("a,b,c,d,e,f,g\n"))
	if err == nil {
		t.Fatal("expected error for unexpected header")
	}
}

func TestReadEventsRejectsUnknownKind(t *testing.T) {
	input := strings.Join([]string{
		"seq,order_id,kind,occurred,cause,note,qty",
		"1,of-2026-001,pause,2026-03-14T08:00:00Z,,,",
	}, "\n")

	_, err := ReadEvents(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error for unknown event kind")
	}
}

func TestReadOrdersRejectsNegativePlan(t *testing.T) {
	input := strings.Join([]string{
		"id,description,planned_minutes,planned_qty,realized_qty,status,version,created_at,updated_at",
		"of-2026-001,,-5,,,pending,0,2026-03-14T08:00:00Z,2026-03-14T08:00:00Z",
	}, "\n")

	_, err := ReadOrders(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error for negative planned_minutes")
	}
}
