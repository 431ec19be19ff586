package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
	"github.com/vladislavdragonenkov/atelier/internal/health"
	"github.com/vladislavdragonenkov/atelier/internal/storage/memory"
	"github.com/vladislavdragonenkov/atelier/internal/storage/postgres"
	"github.com/vladislavdragonenkov/atelier/internal/storage/sqlite"
)

// storageSet объединяет реестр заказов, журнал событий и атомарную
// точку записи одного бэкенда.
type storageSet struct {
	orders   domain.OrderRepository
	events   domain.EventLog
	recorder domain.EventRecorder
	checker  health.Checker
	closer   func() error
}

func (s *storageSet) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// openStorage инициализирует хранилище согласно конфигурации.
func openStorage(ctx context.Context, cfg Config, logger *log.Entry) (*storageSet, error) {
	switch cfg.StorageDriver {
	case StorageMemory:
		logger.Info("using in-memory storage")
		orders := memory.NewOrderRepository()
		events := memory.NewEventLog()
		return &storageSet{
			orders:   orders,
			events:   events,
			recorder: memory.NewRecorder(orders, events),
			checker: health.NewSimpleChecker("storage", func() error {
				return nil
			}),
		}, nil

	case StorageSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		logger.WithField("path", cfg.SQLitePath).Info("using sqlite storage")
		return &storageSet{
			orders:   sqlite.NewOrderRepository(store),
			events:   sqlite.NewEventLog(store),
			recorder: sqlite.NewRecorder(store),
			checker: health.NewSimpleChecker("storage", func() error {
				return store.Ping(context.Background())
			}),
			closer: store.Close,
		}, nil

	case StoragePostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		logger.Info("using postgres storage")
		return &storageSet{
			orders:   postgres.NewOrderRepository(store),
			events:   postgres.NewEventLog(store),
			recorder: postgres.NewRecorder(store),
			checker: health.NewSimpleChecker("storage", func() error {
				return store.Ping(context.Background())
			}),
			closer: store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
