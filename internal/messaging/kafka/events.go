package kafka

import "time"

// MessageType определяет тип публикуемого сообщения.
type MessageType string

const (
	// События трекинга, публикуемые наружу.
	MessageTypeOrderCreated  MessageType = "order.created"
	MessageTypeEventRecorded MessageType = "order.event_recorded"
	MessageTypeStatusChanged MessageType = "order.status_changed"
	MessageTypeOrderDone     MessageType = "order.completed"
)

// Topics для Kafka.
const (
	// TopicOrderEvents — исходящий поток принятых событий трекинга.
	TopicOrderEvents = "atelier.order.events"
	// TopicOperatorActions — входящий поток действий операторов с цеха.
	TopicOperatorActions = "atelier.operator.actions"
	// TopicDeadLetterQueue — очередь необработанных сообщений.
	TopicDeadLetterQueue = "atelier.dlq"
)

// Kafka headers для retry логики.
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// TrackingEvent — исходящее событие трекинга заказа.
type TrackingEvent struct {
	MessageType MessageType            `json:"message_type"`
	OrderID     string                 `json:"order_id"`
	Status      string                 `json:"status"`
	Kind        string                 `json:"kind,omitempty"`
	Occurred    time.Time              `json:"occurred"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// OperatorAction — входящее сообщение с цеха: одно действие оператора
// над одним заказом. Временная метка — RFC 3339; пустые опциональные
// поля передаются пустой строкой / нулём.
type OperatorAction struct {
	OrderID  string  `json:"order_id"`
	Kind     string  `json:"kind"`
	Occurred string  `json:"occurred"`
	Cause    string  `json:"cause,omitempty"`
	Note     string  `json:"note,omitempty"`
	Qty      float64 `json:"qty,omitempty"`
}

// NewTrackingEvent создаёт новое событие трекинга.
func NewTrackingEvent(messageType MessageType, orderID, status, kind string, occurred time.Time, metadata map[string]interface{}) *TrackingEvent {
	return &TrackingEvent{
		MessageType: messageType,
		OrderID:     orderID,
		Status:      status,
		Kind:        kind,
		Occurred:    occurred,
		Metadata:    metadata,
	}
}
