// Package export читает и пишет плоские CSV-выгрузки журнала и реестра.
// Формат построчный: одна запись — одна строка; временные метки — в
// сортируемом RFC 3339; отсутствующие опциональные поля кодируются
// пустой ячейкой, а не нулём с доменным смыслом.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
)

var eventHeader = []string{"seq", "order_id", "kind", "occurred", "cause", "note", "qty"}

var orderHeader = []string{
	"id", "description", "planned_minutes", "planned_qty", "realized_qty",
	"status", "version", "created_at", "updated_at",
}

// WriteEvents сериализует события журнала в CSV.
func WriteEvents(w io.Writer, events []domain.Event) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(eventHeader); err != nil {
		return fmt.Errorf("write event header: %w", err)
	}
	for _, event := range events {
		record := []string{
			strconv.FormatInt(event.Seq, 10),
			event.OrderID,
			string(event.Kind),
			event.Occurred.UTC().Format(time.RFC3339Nano),
			event.Cause,
			event.Note,
			optionalFloat(event.Qty),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write event record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadEvents разбирает CSV-выгрузку журнала.
func ReadEvents(r io.Reader) ([]domain.Event, error) {
	records, err := readRecords(r, eventHeader)
	if err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(records))
	for i, record := range records {
		seq, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse seq: %w", i+2, err)
		}
		occurred, err := time.Parse(time.RFC3339Nano, record[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse occurred: %w", i+2, err)
		}
		qty, err := parseOptionalFloat(record[6])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse qty: %w", i+2, err)
		}

		kind, err := domain.ParseEventKind(record[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		events = append(events, domain.Event{
			Seq:      seq,
			OrderID:  record[1],
			Kind:     kind,
			Occurred: occurred,
			Cause:    record[4],
			Note:     record[5],
			Qty:      qty,
		})
	}

	return events, nil
}

// WriteOrders сериализует реестр заказов в CSV.
func WriteOrders(w io.Writer, orders []domain.Order) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(orderHeader); err != nil {
		return fmt.Errorf("write order header: %w", err)
	}
	for _, order := range orders {
		record := []string{
			order.ID,
			order.Description,
			optionalFloat(order.PlannedMinutes),
			optionalFloat(order.PlannedQty),
			optionalFloat(order.RealizedQty),
			string(order.Status),
			strconv.FormatInt(order.Version, 10),
			order.CreatedAt.UTC().Format(time.RFC3339Nano),
			order.UpdatedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write order record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadOrders разбирает CSV-выгрузку реестра заказов.
func ReadOrders(r io.Reader) ([]domain.Order, error) {
	records, err := readRecords(r, orderHeader)
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(records))
	for i, record := range records {
		plannedMinutes, err := parseOptionalFloat(record[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse planned_minutes: %w", i+2, err)
		}
		plannedQty, err := parseOptionalFloat(record[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse planned_qty: %w", i+2, err)
		}
		realizedQty, err := parseOptionalFloat(record[4])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse realized_qty: %w", i+2, err)
		}
		version, err := strconv.ParseInt(record[6], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse version: %w", i+2, err)
		}
		createdAt, err := time.Parse(time.RFC3339Nano, record[7])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse created_at: %w", i+2, err)
		}
		updatedAt, err := time.Parse(time.RFC3339Nano, record[8])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse updated_at: %w", i+2, err)
		}

		order := domain.Order{
			ID:             record[0],
			Description:    record[1],
			PlannedMinutes: plannedMinutes,
			PlannedQty:     plannedQty,
			RealizedQty:    realizedQty,
			Status:         domain.OrderStatus(record[5]),
			Version:        version,
			CreatedAt:      createdAt,
			UpdatedAt:      updatedAt,
		}
		if errs := order.ValidateInvariants(); len(errs) > 0 {
			return nil, fmt.Errorf("row %d: invalid order record: %v", i+2, errs)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func readRecords(r io.Reader, header []string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(header)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("missing csv header")
	}
	for i, column := range header {
		if rows[0][i] != column {
			return nil, fmt.Errorf("unexpected csv header: got %v", rows[0])
		}
	}

	return rows[1:], nil
}

// optionalFloat кодирует ноль пустой ячейкой: «нет значения», а не «ноль».
func optionalFloat(value float64) string {
	if value == 0 {
		return ""
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func parseOptionalFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
