package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
	"github.com/vladislavdragonenkov/atelier/internal/export"
	"github.com/vladislavdragonenkov/atelier/internal/service/report"
	"github.com/vladislavdragonenkov/atelier/internal/storage/memory"
)

// report — офлайновый отчёт по CSV-выгрузкам: журнал событий и реестр
// заказов загружаются в память, статусы и количества пересчитываются
// из журнала, затем печатаются таймлайн, прогресс и Парето простоев.
func main() {
	var (
		ordersPath string
		eventsPath string
		orderID    string
		asOfRaw    string
	)

	flag.StringVar(&ordersPath, "orders", "orders.csv", "path to orders CSV export")
	flag.StringVar(&eventsPath, "events", "events.csv", "path to events CSV export")
	flag.StringVar(&orderID, "order", "", "limit report to a single order id")
	flag.StringVar(&asOfRaw, "as-of", "", "report moment, RFC 3339 (default: now)")
	flag.Parse()

	asOf := time.Now().UTC()
	if asOfRaw != "" {
		parsed, err := time.Parse(time.RFC3339, asOfRaw)
		if err != nil {
			fail("parse -as-of: %v", err)
		}
		asOf = parsed
	}

	orders, events, err := loadExports(ordersPath, eventsPath)
	if err != nil {
		fail("%v", err)
	}

	orderRepo := memory.NewOrderRepository()
	eventLog := memory.NewEventLog()
	if err := seed(orderRepo, eventLog, orders, events); err != nil {
		fail("seed storage: %v", err)
	}

	reporter := report.NewReporter(orderRepo, eventLog, nil)

	selected := orders
	if orderID != "" {
		selected = nil
		for _, order := range orders {
			if order.ID == orderID {
				selected = append(selected, order)
			}
		}
		if len(selected) == 0 {
			fail("order %q not found in %s", orderID, ordersPath)
		}
	}

	for _, order := range selected {
		if err := printOrderReport(reporter, order.ID, asOf); err != nil {
			fail("report for %s: %v", order.ID, err)
		}
	}

	pareto, err := reporter.DowntimePareto(orderID, asOf)
	if err != nil {
		fail("downtime pareto: %v", err)
	}
	printPareto(pareto)
}

func loadExports(ordersPath, eventsPath string) ([]domain.Order, []domain.Event, error) {
	ordersFile, err := os.Open(ordersPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open orders export: %w", err)
	}
	defer ordersFile.Close()

	orders, err := export.ReadOrders(ordersFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read orders export: %w", err)
	}

	eventsFile, err := os.Open(eventsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open events export: %w", err)
	}
	defer eventsFile.Close()

	events, err := export.ReadEvents(eventsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read events export: %w", err)
	}

	return orders, events, nil
}

// seed загружает выгрузку в память. Статус и количество каждого заказа
// пересчитываются из журнала: выгрузка реестра могла отстать от журнала.
func seed(orderRepo domain.OrderRepository, eventLog domain.EventLog, orders []domain.Order, events []domain.Event) error {
	byOrder := make(map[string][]domain.Event)
	for _, event := range events {
		byOrder[event.OrderID] = append(byOrder[event.OrderID], event)
	}

	for _, order := range orders {
		replayed := domain.Replay(order, byOrder[order.ID])
		replayed.Version = 0
		if err := orderRepo.Create(replayed); err != nil {
			return fmt.Errorf("create order %s: %w", order.ID, err)
		}
	}

	for _, event := range domain.SortChronologically(events) {
		if _, err := eventLog.Append(event); err != nil {
			return fmt.Errorf("append event seq=%d: %w", event.Seq, err)
		}
	}

	return nil
}

func printOrderReport(reporter *report.Reporter, orderID string, asOf time.Time) error {
	progress, err := reporter.Progress(orderID, asOf)
	if err != nil {
		return err
	}
	intervals, err := reporter.Timeline(orderID, asOf)
	if err != nil {
		return err
	}

	fmt.Printf("order %s (%s)\n", progress.OrderID, progress.Status)
	fmt.Printf("  production: %.1f min, downtime: %.1f min\n", progress.ProductionMinutes, progress.DowntimeMinutes)
	fmt.Printf("  time progress: %s\n", formatRatio(progress.TimeProgress))
	fmt.Printf("  throughput:    %s\n", formatRatio(progress.Throughput))

	for _, interval := range intervals {
		line := fmt.Sprintf("  %s  %s -> %s  %.1f min",
			interval.Mode,
			interval.Start.Format(time.RFC3339),
			interval.End.Format(time.RFC3339),
			interval.Minutes(),
		)
		if interval.Cause != "" {
			line += "  cause=" + interval.Cause
		}
		if interval.Note != "" {
			line += "  note=" + interval.Note
		}
		fmt.Println(line)
	}
	fmt.Println()

	return nil
}

func printPareto(pareto []domain.CauseCount) {
	if len(pareto) == 0 {
		fmt.Println("downtime pareto: no downtime causes recorded")
		return
	}

	fmt.Println("downtime pareto:")
	for _, row := range pareto {
		fmt.Printf("  %-30s %d\n", row.Cause, row.Count)
	}
}

func formatRatio(ratio domain.Ratio) string {
	if !ratio.HasBaseline {
		return "n/a (no planned baseline)"
	}
	return fmt.Sprintf("%.1f%%", ratio.Percent)
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
