package services

import (
	"testing"
	"time"

	"restaurant-admin/database"
	"restaurant-admin/logger"
	"restaurant-admin/metrics"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestApp(t *testing.T, opts ...database.MemoryOption) (*App, *database.MemoryStore) {
	t.Helper()
	opts = append([]database.MemoryOption{database.WithClock(func() time.Time { return fixedNow })}, opts...)
	store := database.NewMemoryStore(opts...)
	app := NewApp(store, logger.Discard(), metrics.NewRegistry(), Options{
		ReadyTimeout: 200 * time.Millisecond,
		OpTimeout:    time.Second,
	})
	t.Cleanup(func() { app.Orders.Stop() })
	return app, store
}

func ptr(v float64) *float64 { return &v }
