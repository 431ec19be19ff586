package domain

import "time"

// OrderStatus описывает жизненный цикл производственного заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, производство ещё не началось.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusRunning — заказ в производстве.
	OrderStatusRunning OrderStatus = "running"
	// OrderStatusStopped — производство приостановлено (простой).
	OrderStatusStopped OrderStatus = "stopped"
	// OrderStatusCompleted — заказ завершён; терминальный статус.
	OrderStatusCompleted OrderStatus = "completed"
)

// Order агрегирует состояние производственного заказа.
// RealizedQty и Status — производные от журнала событий величины,
// кэшируемые в реестре для O(1) чтения.
type Order struct {
	ID          string
	Description string
	// PlannedMinutes — плановая длительность производства в минутах.
	// Ноль означает отсутствие плана (прогресс не считается).
	PlannedMinutes float64
	// PlannedQty — плановое количество изделий. Ноль — план не задан.
	PlannedQty float64
	// RealizedQty — накопленное фактическое количество; монотонно не убывает.
	RealizedQty float64
	Status      OrderStatus
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Completed сообщает, достиг ли заказ терминального статуса.
func (o Order) Completed() bool {
	return o.Status == OrderStatusCompleted
}

// Active сообщает, идёт ли по заказу производство или простой.
func (o Order) Active() bool {
	return o.Status == OrderStatusRunning || o.Status == OrderStatusStopped
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if o.PlannedMinutes < 0 {
		errs = append(errs, ErrPlannedMinutesNegative)
	}
	if o.PlannedQty < 0 {
		errs = append(errs, ErrPlannedQtyNegative)
	}
	if o.RealizedQty < 0 {
		errs = append(errs, ErrRealizedQtyNegative)
	}

	switch o.Status {
	case OrderStatusPending, OrderStatusRunning, OrderStatusStopped, OrderStatusCompleted:
	default:
		errs = append(errs, ErrUnknownStatus)
	}

	return errs
}
