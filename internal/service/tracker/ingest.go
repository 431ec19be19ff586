package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
	"github.com/vladislavdragonenkov/atelier/internal/messaging/kafka"
)

// NewOperatorActionHandler возвращает обработчик входящих действий
// операторов для Kafka consumer. Сообщения, не разобранные в событие,
// и инфраструктурные сбои возвращают ошибку и уходят на retry/DLQ.
// Детерминированные бизнес-отказы (недопустимый переход, неизвестный
// заказ) повторной обработкой не лечатся: они логируются, считаются в
// метриках отказов и подтверждаются без записи в журнал.
func NewOperatorActionHandler(t *Tracker) kafka.MessageHandler {
	logger := log.WithField("component", "operator-ingest")

	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		action, err := kafka.ParseOperatorAction(message)
		if err != nil {
			return err
		}

		event, err := eventFromAction(action)
		if err != nil {
			return err
		}

		if _, err := t.RecordEvent(event); err != nil {
			if domain.IsRejected(err) {
				logger.WithError(err).WithFields(log.Fields{
					"order_id": action.OrderID,
					"kind":     action.Kind,
				}).Warn("operator action rejected")
				return nil
			}
			return err
		}
		return nil
	}
}

// eventFromAction переводит сообщение с цеха в доменное событие.
func eventFromAction(action *kafka.OperatorAction) (domain.Event, error) {
	kind, err := domain.ParseEventKind(action.Kind)
	if err != nil {
		return domain.Event{}, err
	}

	occurred, err := time.Parse(time.RFC3339, action.Occurred)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%w: bad occurred timestamp %q", domain.ErrMalformedEvent, action.Occurred)
	}

	return domain.Event{
		OrderID:  action.OrderID,
		Kind:     kind,
		Occurred: occurred,
		Cause:    action.Cause,
		Note:     action.Note,
		Qty:      action.Qty,
	}, nil
}
