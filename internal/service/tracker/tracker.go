package tracker

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
	"github.com/vladislavdragonenkov/atelier/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/atelier/internal/metrics"
)

// Tracker реализует путь записи: валидация события, применение к
// заказу и атомарная фиксация пары журнал+реестр через EventRecorder.
// Журнал — источник истины; статус и количество в реестре — кэш.
type Tracker struct {
	orders   domain.OrderRepository
	recorder domain.EventRecorder
	logger   *log.Entry
	metrics  *metrics.TrackerMetrics
	producer *kafka.Producer // опциональный Kafka producer для исходящих событий

	// Запись по одному заказу сериализуется: проверка перехода и
	// добавление в журнал должны быть атомарны относительно друг друга.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// CreateOrderParams — параметры создания заказа. Пустой ID означает,
// что идентификатор будет сгенерирован.
type CreateOrderParams struct {
	ID             string
	Description    string
	PlannedMinutes float64
	PlannedQty     float64
}

// NewTracker создаёт рабочий экземпляр трекера.
func NewTracker(orders domain.OrderRepository, recorder domain.EventRecorder, logger *log.Entry) *Tracker {
	if logger == nil {
		logger = log.New().WithField("component", "tracker")
	}
	return &Tracker{
		orders:   orders,
		recorder: recorder,
		logger:   logger,
		metrics:  metrics.NewTrackerMetrics(),
		locks:    make(map[string]*sync.Mutex),
	}
}

// NewTrackerWithKafka создаёт трекер с Kafka producer для event-driven архитектуры.
func NewTrackerWithKafka(orders domain.OrderRepository, recorder domain.EventRecorder, producer *kafka.Producer, logger *log.Entry) *Tracker {
	t := NewTracker(orders, recorder, logger)
	t.producer = producer
	return t
}

// NewTrackerWithoutMetrics создаёт трекер без метрик (для тестов).
func NewTrackerWithoutMetrics(orders domain.OrderRepository, recorder domain.EventRecorder, logger *log.Entry) *Tracker {
	if logger == nil {
		logger = log.New().WithField("component", "tracker")
	}
	return &Tracker{
		orders:   orders,
		recorder: recorder,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// CreateOrder регистрирует новый заказ в статусе pending.
func (t *Tracker) CreateOrder(params CreateOrderParams) (domain.Order, error) {
	id := params.ID
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:             id,
		Description:    params.Description,
		PlannedMinutes: params.PlannedMinutes,
		PlannedQty:     params.PlannedQty,
		Status:         domain.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errors.Join(errs...)
	}

	if err := t.orders.Create(order); err != nil {
		t.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to create order")
		return domain.Order{}, err
	}

	if t.metrics != nil {
		t.metrics.RecordOrderCreated()
	}
	t.logger.WithFields(log.Fields{
		"order_id":        order.ID,
		"planned_minutes": order.PlannedMinutes,
		"planned_qty":     order.PlannedQty,
	}).Info("order created")

	t.publishTrackingEvent(kafka.MessageTypeOrderCreated, order, "", now)
	return order, nil
}

// RecordEvent принимает действие оператора: валидирует, применяет к
// заказу и фиксирует пару журнал+реестр одной атомарной операцией.
// Отклонённые по бизнес-правилу события в журнал не попадают, состояние
// заказа не меняется; вызывающая сторона различает отказ через
// domain.IsRejected.
func (t *Tracker) RecordEvent(event domain.Event) (domain.Event, error) {
	start := time.Now()
	defer func() {
		if t.metrics != nil {
			t.metrics.ObserveAppendDuration(time.Since(start))
		}
	}()

	if err := event.Validate(); err != nil {
		t.reject("malformed", event, err)
		return domain.Event{}, err
	}

	lock := t.orderLock(event.OrderID)
	lock.Lock()
	defer lock.Unlock()

	// Конфликт версии означает, что заказ обновили в обход этого
	// экземпляра сервиса; Record откатывается целиком, поэтому повтор
	// начинается с чтения свежего состояния.
	const maxRetries = 3
	const baseDelay = 10 * time.Millisecond

	for attempt := 0; ; attempt++ {
		order, err := t.orders.Get(event.OrderID)
		if err != nil {
			t.reject("order_not_found", event, err)
			return domain.Event{}, err
		}

		next, err := domain.Apply(order, event)
		if err != nil {
			t.reject("invalid_transition", event, err)
			return domain.Event{}, err
		}

		stored, err := t.recorder.Record(event, next)
		if err == nil {
			t.finishRecord(order, next, stored)
			return stored, nil
		}

		if !domain.IsVersionConflict(err) || attempt == maxRetries-1 {
			t.logger.WithError(err).WithFields(log.Fields{
				"order_id": event.OrderID,
				"kind":     event.Kind,
				"attempt":  attempt + 1,
			}).Error("failed to record event")
			return domain.Event{}, err
		}

		t.logger.WithFields(log.Fields{
			"order_id": event.OrderID,
			"attempt":  attempt + 1,
			"version":  next.Version,
		}).Warn("version conflict detected, rereading order state")
		time.Sleep(baseDelay * time.Duration(1<<uint(attempt)))
	}
}

// finishRecord выполняет пострегистрационную часть: метрики, лог и
// публикацию в Kafka.
func (t *Tracker) finishRecord(prev, next domain.Order, stored domain.Event) {
	if t.metrics != nil {
		t.metrics.RecordEventAppended(string(stored.Kind))
	}
	t.logger.WithFields(log.Fields{
		"order_id": stored.OrderID,
		"kind":     stored.Kind,
		"seq":      stored.Seq,
		"status":   next.Status,
	}).Info("event recorded")

	messageType := kafka.MessageTypeEventRecorded
	if next.Completed() {
		messageType = kafka.MessageTypeOrderDone
	} else if next.Status != prev.Status {
		messageType = kafka.MessageTypeStatusChanged
	}
	t.publishTrackingEvent(messageType, next, string(stored.Kind), stored.Occurred)
}

// GetOrder возвращает текущее состояние заказа.
func (t *Tracker) GetOrder(id string) (domain.Order, error) {
	return t.orders.Get(id)
}

// ListOrders возвращает заказы, новые первыми.
func (t *Tracker) ListOrders(limit int) ([]domain.Order, error) {
	return t.orders.List(limit)
}

func (t *Tracker) reject(reason string, event domain.Event, err error) {
	if t.metrics != nil {
		t.metrics.RecordEventRejected(reason)
	}
	t.logger.WithError(err).WithFields(log.Fields{
		"order_id": event.OrderID,
		"kind":     event.Kind,
		"reason":   reason,
	}).Warn("event rejected")
}

func (t *Tracker) orderLock(orderID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[orderID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[orderID] = lock
	}
	return lock
}

// publishTrackingEvent публикует событие трекинга в Kafka (если producer настроен).
func (t *Tracker) publishTrackingEvent(messageType kafka.MessageType, order domain.Order, kind string, occurred time.Time) {
	if t.producer == nil {
		return
	}

	event := kafka.NewTrackingEvent(messageType, order.ID, string(order.Status), kind, occurred, map[string]interface{}{
		"realized_qty": order.RealizedQty,
	})
	if err := t.producer.PublishEvent(kafka.TopicOrderEvents, order.ID, event); err != nil {
		// Логируем ошибку, но запись не откатываем: Kafka опциональна.
		t.logger.WithError(err).WithFields(log.Fields{
			"message_type": messageType,
			"order_id":     order.ID,
		}).Warn("failed to publish tracking event to kafka")
		return
	}
	if t.metrics != nil {
		t.metrics.RecordKafkaPublished()
	}
}
