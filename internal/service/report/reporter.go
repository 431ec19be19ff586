package report

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
	"github.com/vladislavdragonenkov/atelier/internal/metrics"
)

// Reporter реализует путь чтения: таймлайн и показатели заказа
// восстанавливаются из журнала на каждый запрос. Ничего из
// производного не хранится, поэтому отчёты всегда согласованы с
// журналом на момент asOf.
type Reporter struct {
	orders  domain.OrderRepository
	events  domain.EventLog
	logger  *log.Entry
	metrics *metrics.TrackerMetrics
}

// OrderProgress — сводка показателей одного заказа на момент AsOf.
type OrderProgress struct {
	OrderID           string
	Status            domain.OrderStatus
	TimeProgress      domain.Ratio
	Throughput        domain.Ratio
	ProductionMinutes float64
	DowntimeMinutes   float64
	AsOf              time.Time
}

// NewReporter создаёт рабочий экземпляр репортера.
func NewReporter(orders domain.OrderRepository, events domain.EventLog, logger *log.Entry) *Reporter {
	if logger == nil {
		logger = log.New().WithField("component", "reporter")
	}
	return &Reporter{
		orders:  orders,
		events:  events,
		logger:  logger,
		metrics: metrics.NewTrackerMetrics(),
	}
}

// NewReporterWithoutMetrics создаёт репортер без метрик (для тестов).
func NewReporterWithoutMetrics(orders domain.OrderRepository, events domain.EventLog, logger *log.Entry) *Reporter {
	if logger == nil {
		logger = log.New().WithField("component", "reporter")
	}
	return &Reporter{orders: orders, events: events, logger: logger}
}

// Timeline восстанавливает сегменты производства и простоев заказа.
// Все расчёты внутри одного вызова используют единый asOf.
func (r *Reporter) Timeline(orderID string, asOf time.Time) ([]domain.Interval, error) {
	order, err := r.orders.Get(orderID)
	if err != nil {
		return nil, err
	}
	_, intervals, err := r.reconstruct(order, asOf)
	return intervals, err
}

// Progress считает временной прогресс и выработку заказа на момент asOf.
func (r *Reporter) Progress(orderID string, asOf time.Time) (OrderProgress, error) {
	stale, err := r.orders.Get(orderID)
	if err != nil {
		return OrderProgress{}, err
	}

	order, intervals, err := r.reconstruct(stale, asOf)
	if err != nil {
		return OrderProgress{}, err
	}

	progress := OrderProgress{
		OrderID:      order.ID,
		Status:       order.Status,
		TimeProgress: domain.Progress(order, intervals),
		Throughput:   domain.Throughput(order),
		AsOf:         asOf,
	}
	for _, interval := range intervals {
		switch interval.Mode {
		case domain.IntervalProduction:
			progress.ProductionMinutes += interval.Minutes()
		case domain.IntervalDowntime:
			progress.DowntimeMinutes += interval.Minutes()
		}
	}

	return progress, nil
}

// DowntimePareto строит Парето причин простоев. Пустой orderID даёт
// сводку по всем заказам реестра.
func (r *Reporter) DowntimePareto(orderID string, asOf time.Time) ([]domain.CauseCount, error) {
	if orderID != "" {
		intervals, err := r.Timeline(orderID, asOf)
		if err != nil {
			return nil, err
		}
		return domain.DowntimePareto(intervals), nil
	}

	orders, err := r.orders.List(0)
	if err != nil {
		return nil, err
	}

	var all []domain.Interval
	for _, order := range orders {
		_, intervals, err := r.reconstruct(order, asOf)
		if err != nil {
			return nil, err
		}
		all = append(all, intervals...)
	}

	return domain.DowntimePareto(all), nil
}

// reconstruct перечитывает журнал заказа и возвращает «живое» состояние
// вместе с таймлайном. Снимок реестра может отставать от журнала
// (например, сервис успел дописать событие, а читатель взял заказ
// раньше), поэтому статус и количество заново выводятся прогоном
// журнала, а не берутся из кэша реестра.
func (r *Reporter) reconstruct(order domain.Order, asOf time.Time) (domain.Order, []domain.Interval, error) {
	history, err := r.events.ListByOrder(order.ID)
	if err != nil {
		r.logger.WithError(err).WithField("order_id", order.ID).Error("failed to load event log")
		return domain.Order{}, nil, err
	}

	start := time.Now()
	live := domain.Replay(order, history)
	intervals := domain.Reconstruct(live, history, asOf)
	if r.metrics != nil {
		r.metrics.ObserveReplayDuration(time.Since(start))
	}

	return live, intervals, nil
}
