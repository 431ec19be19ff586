package app

import (
	"context"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
)

func TestOpenStorageMemory(t *testing.T) {
	storage, err := openStorage(context.Background(), Config{StorageDriver: StorageMemory}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	require.NotNil(t, storage.orders)
	require.NotNil(t, storage.events)
	require.NotNil(t, storage.recorder)
	require.Equal(t, "healthy", string(storage.checker.Check().Status))
}

func TestOpenStorageSQLite(t *testing.T) {
	cfg := Config{
		StorageDriver: StorageSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "atelier.db"),
	}

	storage, err := openStorage(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	// Хранилище рабочее: заказ сохраняется и читается.
	order := domain.Order{ID: "of-2026-001", Status: domain.OrderStatusPending}
	require.NoError(t, storage.orders.Create(order))

	got, err := storage.orders.Get("of-2026-001")
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)

	require.Equal(t, "healthy", string(storage.checker.Check().Status))
}

func TestOpenStorageUnknownDriver(t *testing.T) {
	_, err := openStorage(context.Background(), Config{StorageDriver: "redis"}, testLogger())
	require.Error(t, err)
}

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.ErrorLevel)
	return logger.WithField("component", "test")
}
