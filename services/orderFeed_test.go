package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"restaurant-admin/apperrors"
	"restaurant-admin/database"
	"restaurant-admin/logger"
	"restaurant-admin/metrics"
	"restaurant-admin/models"
)

type countingStore struct {
	*database.MemoryStore
	unsubscribes int32
}

func (s *countingStore) Subscribe(ctx context.Context, collection string, onChange func([]database.Document), onError func(error)) (database.Unsubscribe, error) {
	unsub, err := s.MemoryStore.Subscribe(ctx, collection, onChange, onError)
	if err != nil {
		return nil, err
	}
	return func() {
		atomic.AddInt32(&s.unsubscribes, 1)
		unsub()
	}, nil
}

type stubResolver struct {
	mu      sync.Mutex
	calls   map[string]int
	names   map[string]string
	release chan struct{}
}

func newStubResolver(names map[string]string) *stubResolver {
	return &stubResolver{calls: map[string]int{}, names: names}
}

func (r *stubResolver) Lookup(ctx context.Context, id string) (models.Customer, error) {
	r.mu.Lock()
	r.calls[id]++
	release := r.release
	r.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return models.Customer{}, ctx.Err()
		}
	}
	name, ok := r.names[id]
	if !ok {
		return models.Customer{}, apperrors.NotFound("lookup customer", "customer %s does not exist", id)
	}
	return models.Customer{ID: id, FullName: name}, nil
}

func (r *stubResolver) callCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[id]
}

func newFeed(store database.Store, resolver CustomerResolver) *LiveOrderFeed {
	return NewLiveOrderFeed(store, resolver, logger.Discard(), metrics.NewRegistry(), 100*time.Millisecond)
}

func TestNormalizeOrder_PlacedAtPrecedence(t *testing.T) {
	order := NormalizeOrder(database.Document{ID: "ord-abc123xyz", Data: bson.M{
		"created_at": "2024-05-01T10:00:00Z",
		"timestamp":  "2020-01-01T00:00:00Z",
	}})
	require.NotNil(t, order.PlacedAt)
	assert.True(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).Equal(*order.PlacedAt))

	malformed := NormalizeOrder(database.Document{ID: "x", Data: bson.M{
		"createdAt": "garbage",
		"timestamp": "2020-01-01T00:00:00Z",
	}})
	assert.Nil(t, malformed.PlacedAt)
}

func TestNormalizeOrder_Fields(t *testing.T) {
	order := NormalizeOrder(database.Document{ID: "ord-abc123xyz", Data: bson.M{
		"customer_id":    "cust-1",
		"assignedDriver": "drv-9",
		"items": bson.A{
			bson.M{"itemName": "Adobo", "qty": 2},
			"Rice",
			bson.M{"title": "Halo-Halo", "quantity": 0},
			bson.M{"quantity": 3},
		},
		"totalAmount":   -20,
		"paymentMethod": "GCash",
		"status":        "DELIVERED",
		"delivery":      bson.M{"address": "Makati"},
	}})

	assert.Equal(t, "#123XYZ", order.TrackingLabel)
	assert.Equal(t, "cust-1", order.CustomerID)
	assert.Equal(t, "drv-9", order.DriverID)
	assert.Equal(t, []models.LineItem{{Name: "Adobo", Quantity: 2}, {Name: "Rice", Quantity: 1}, {Name: "Halo-Halo", Quantity: 1}}, order.LineItems)
	assert.Equal(t, "2x Adobo", order.LineItems[0].Label())
	assert.Equal(t, "Rice", order.LineItems[1].Label())
	assert.Equal(t, 0.0, order.Total)
	assert.Equal(t, "GCash", order.PaymentMode)
	assert.Equal(t, models.OrderDelivered, order.Status)
	assert.Equal(t, bson.M{"address": "Makati"}, order.DeliveryInfo)
	assert.Nil(t, order.PlacedAt)

	defaults := NormalizeOrder(database.Document{ID: "ab", Data: bson.M{"status": "lost", "orderNumber": "A-17"}})
	assert.Equal(t, "A-17", defaults.TrackingLabel)
	assert.Equal(t, models.OrderPending, defaults.Status)
	assert.Equal(t, models.DefaultPaymentMode, defaults.PaymentMode)
	assert.Empty(t, defaults.LineItems)
	assert.Equal(t, "#AB", DeriveTrackingLabel("ab"))
}

func TestNormalizeOrders_NewestFirst(t *testing.T) {
	orders := NormalizeOrders([]database.Document{
		{ID: "undated", Data: bson.M{}},
		{ID: "old", Data: bson.M{"date": "2024-01-02"}},
		{ID: "new", Data: bson.M{"createdAt": time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}},
		{ID: "mid", Data: bson.M{"orderDate": int64(1709251200000)}},
	})
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old", "undated"}, ids)
}

func TestLiveOrderFeed_PublishesAndHydrates(t *testing.T) {
	store := database.NewMemoryStore()
	store.Seed(database.OrderCollection, map[string]bson.M{
		"o1": {"customerId": "c1", "createdAt": "2024-05-01T10:00:00Z", "items": bson.A{"Adobo"}},
		"o2": {"customerId": "c1", "createdAt": "2024-05-01T11:00:00Z"},
		"o3": {"customerId": "ghost", "createdAt": "2024-05-01T09:00:00Z"},
	})
	resolver := newStubResolver(map[string]string{"c1": "Ana Cruz"})
	resolver.release = make(chan struct{})
	feed := newFeed(store, resolver)

	var mu sync.Mutex
	var published [][]models.OrderView
	feed.OnSnapshot(func(views []models.OrderView) {
		mu.Lock()
		published = append(published, views)
		mu.Unlock()
	})

	require.NoError(t, feed.Start(context.Background()))
	defer feed.Stop()
	assert.Equal(t, FeedSubscribed, feed.State())

	require.Eventually(t, func() bool { return len(feed.Snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	first := feed.Snapshot()
	assert.Equal(t, "o2", first[0].ID)
	assert.Equal(t, "c1", first[0].CustomerName)

	// A second change while the lookup is in flight must not start another one.
	store.Seed(database.OrderCollection, map[string]bson.M{"o4": {"customerId": "c1"}})
	require.Eventually(t, func() bool { return len(feed.Snapshot()) == 4 }, time.Second, 5*time.Millisecond)
	close(resolver.release)

	require.Eventually(t, func() bool {
		return feed.CustomerName("c1") == "Ana Cruz" && feed.CustomerName("ghost") == "ghost"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, resolver.callCount("c1"))
	assert.Equal(t, 1, resolver.callCount("ghost"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, views := range published {
			if views[0].CustomerName == "Ana Cruz" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	// Cached names survive new snapshots without further lookups.
	store.Seed(database.OrderCollection, map[string]bson.M{"o5": {"customerId": "ghost"}})
	require.Eventually(t, func() bool { return len(feed.Snapshot()) == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, resolver.callCount("ghost"))
}

func TestLiveOrderFeed_StopIsIdempotent(t *testing.T) {
	store := &countingStore{MemoryStore: database.NewMemoryStore()}
	feed := newFeed(store, newStubResolver(nil))

	require.NoError(t, feed.Start(context.Background()))
	require.NoError(t, feed.Start(context.Background()))

	assert.NotPanics(t, func() {
		feed.Stop()
		feed.Stop()
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.unsubscribes))
	assert.Equal(t, FeedUnsubscribed, feed.State())

	// Stop on a feed that never started does nothing.
	idle := newFeed(store, newStubResolver(nil))
	idle.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.unsubscribes))
}

func TestLiveOrderFeed_StartTimesOut(t *testing.T) {
	store := database.NewMemoryStore(database.WithReadiness(database.NewReadiness()))
	feed := newFeed(store, newStubResolver(nil))

	err := feed.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTimeout))
	assert.Equal(t, FeedUnsubscribed, feed.State())
}

func TestLiveOrderFeed_StartFailsWhenStoreFailed(t *testing.T) {
	ready := database.NewReadiness()
	ready.Fail(errors.New("auth failed"))
	feed := newFeed(database.NewMemoryStore(database.WithReadiness(ready)), newStubResolver(nil))

	err := feed.Start(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavailable))
}

func TestLiveOrderFeed_ListenerErrorKeepsSnapshot(t *testing.T) {
	store := database.NewMemoryStore()
	store.Seed(database.OrderCollection, map[string]bson.M{"o1": {"status": "ready"}})
	feed := newFeed(store, newStubResolver(nil))

	var reported int32
	feed.OnError(func(error) { atomic.AddInt32(&reported, 1) })

	require.NoError(t, feed.Start(context.Background()))
	defer feed.Stop()
	require.Eventually(t, func() bool { return len(feed.Snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	store.InjectError(database.OrderCollection, errors.New("permission denied"))
	require.Eventually(t, func() bool { return feed.LastError() != nil }, time.Second, 5*time.Millisecond)
	feed.handleError(errors.New("permission denied again"))

	assert.Equal(t, int32(1), atomic.LoadInt32(&reported))
	require.Len(t, feed.Snapshot(), 1)
	assert.Equal(t, models.OrderReady, feed.Snapshot()[0].Status)
}
