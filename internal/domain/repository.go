package domain

// OrderRepository описывает требования к реестру заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ErrOrderAlreadyExists,
	// если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// List возвращает заказы с опциональным ограничением на количество.
	List(limit int) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
}

// EventRecorder атомарно фиксирует принятое событие и новое состояние
// заказа: запись в журнал и обновление реестра либо видны читателям
// вместе, либо не видны вовсе. Проверка версии заказа входит в ту же
// атомарную операцию; при конфликте журнал не меняется.
type EventRecorder interface {
	// Record дописывает событие и сохраняет заказ одной операцией.
	// Возвращает событие с присвоенным Seq.
	Record(event Event, order Order) (Event, error)
}

// EventLog описывает требования к журналу событий. Журнал только
// дописывается: события никогда не переписываются и не удаляются.
type EventLog interface {
	// Append добавляет событие и возвращает его с присвоенным Seq.
	Append(event Event) (Event, error)
	// ListByOrder возвращает события заказа в порядке добавления.
	ListByOrder(orderID string) ([]Event, error)
	// ListAll возвращает весь журнал в порядке добавления.
	ListAll() ([]Event, error)
}
