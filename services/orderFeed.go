package services

import (
	"context"
	"sync"
	"time"

	"restaurant-admin/apperrors"
	"restaurant-admin/database"
	"restaurant-admin/logger"
	"restaurant-admin/metrics"
	"restaurant-admin/models"
)

// FeedState is the lifecycle of the single order subscription.
type FeedState int

const (
	FeedUnsubscribed FeedState = iota
	FeedSubscribing
	FeedSubscribed
)

func (s FeedState) String() string {
	switch s {
	case FeedSubscribing:
		return "subscribing"
	case FeedSubscribed:
		return "subscribed"
	default:
		return "unsubscribed"
	}
}

// CustomerResolver looks up the profile shown next to an order.
type CustomerResolver interface {
	Lookup(ctx context.Context, id string) (models.Customer, error)
}

type SnapshotListener func([]models.OrderView)

type ErrorListener func(error)

// LiveOrderFeed mirrors the orders collection and publishes a fresh snapshot
// on every change. Customer names are resolved in the background and cached
// for the lifetime of the feed.
type LiveOrderFeed struct {
	store        database.Store
	customers    CustomerResolver
	log          *logger.Logger
	metrics      *metrics.Registry
	readyTimeout time.Duration

	mu            sync.Mutex
	state         FeedState
	unsubscribe   database.Unsubscribe
	orders        []models.Order
	lastErr       error
	errorReported bool
	names         map[string]string
	inflight      map[string]bool

	nextListener   int
	snapshotSubs   map[int]SnapshotListener
	errorSubs      map[int]ErrorListener
	hydrateCtx     context.Context
	hydrateCancel  context.CancelFunc
	hydrateWorkers sync.WaitGroup
}

func NewLiveOrderFeed(store database.Store, customers CustomerResolver, log *logger.Logger, m *metrics.Registry, readyTimeout time.Duration) *LiveOrderFeed {
	if readyTimeout <= 0 {
		readyTimeout = 10 * time.Second
	}
	return &LiveOrderFeed{
		store:        store,
		customers:    customers,
		log:          log.WithComponent("orders"),
		metrics:      m,
		readyTimeout: readyTimeout,
		orders:       []models.Order{},
		names:        map[string]string{},
		inflight:     map[string]bool{},
		snapshotSubs: map[int]SnapshotListener{},
		errorSubs:    map[int]ErrorListener{},
	}
}

// Start waits for the store to become ready and subscribes to the orders
// collection. Calling Start on a running feed is a no-op. ctx only bounds the wait.
func (f *LiveOrderFeed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.state != FeedUnsubscribed {
		f.mu.Unlock()
		return nil
	}
	f.state = FeedSubscribing
	f.hydrateCtx, f.hydrateCancel = context.WithCancel(context.Background())
	f.mu.Unlock()

	if err := f.store.Ready().Wait(ctx, f.readyTimeout); err != nil {
		f.abortStart()
		f.log.Error("order feed could not start", "error", err)
		return err
	}

	unsub, err := f.store.Subscribe(context.Background(), database.OrderCollection, f.handleSnapshot, f.handleError)
	if err != nil {
		f.abortStart()
		f.log.Error("order subscription failed", "error", err)
		return apperrors.Store("subscribe to orders", err)
	}

	f.mu.Lock()
	if f.state != FeedSubscribing {
		// Stop ran while we were waiting.
		f.mu.Unlock()
		unsub()
		return nil
	}
	f.unsubscribe = unsub
	f.state = FeedSubscribed
	f.mu.Unlock()
	f.log.Info("order feed subscribed")
	return nil
}

func (f *LiveOrderFeed) abortStart() {
	f.mu.Lock()
	if f.state == FeedSubscribing {
		f.state = FeedUnsubscribed
		f.hydrateCancel()
	}
	f.mu.Unlock()
}

// Stop releases the subscription. It is safe to call any number of times and
// the store's unsubscribe handle runs at most once per Start.
func (f *LiveOrderFeed) Stop() {
	f.mu.Lock()
	if f.state == FeedUnsubscribed {
		f.mu.Unlock()
		return
	}
	unsub := f.unsubscribe
	f.unsubscribe = nil
	f.state = FeedUnsubscribed
	f.hydrateCancel()
	f.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	f.hydrateWorkers.Wait()
	f.log.Info("order feed stopped")
}

func (f *LiveOrderFeed) State() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// OnSnapshot registers a listener for every published snapshot. The returned
// func removes it.
func (f *LiveOrderFeed) OnSnapshot(fn SnapshotListener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextListener
	f.nextListener++
	f.snapshotSubs[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.snapshotSubs, id)
		f.mu.Unlock()
	}
}

// OnError registers a listener called once per subscription failure.
func (f *LiveOrderFeed) OnError(fn ErrorListener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextListener
	f.nextListener++
	f.errorSubs[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.errorSubs, id)
		f.mu.Unlock()
	}
}

// Snapshot is the last good set of orders with the customer names known right now.
func (f *LiveOrderFeed) Snapshot() []models.OrderView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewsLocked()
}

// LastError is the most recent subscription failure, cleared by the next snapshot.
func (f *LiveOrderFeed) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// CustomerName returns the cached display name, or the raw id while unresolved.
func (f *LiveOrderFeed) CustomerName(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nameLocked(id)
}

func (f *LiveOrderFeed) handleSnapshot(docs []database.Document) {
	orders := NormalizeOrders(docs)

	f.mu.Lock()
	if f.state == FeedUnsubscribed {
		f.mu.Unlock()
		return
	}
	f.orders = orders
	f.lastErr = nil
	f.errorReported = false
	views := f.viewsLocked()
	pending := f.claimUnresolvedLocked(orders)
	listeners := f.snapshotListenersLocked()
	ctx := f.hydrateCtx
	f.hydrateWorkers.Add(len(pending))
	f.mu.Unlock()

	f.metrics.OrderSnapshots.Inc()
	f.metrics.OrdersInSnapshot.Set(float64(len(orders)))
	publish(listeners, views)

	for _, id := range pending {
		go f.hydrate(ctx, id)
	}
}

func (f *LiveOrderFeed) handleError(err error) {
	f.metrics.ListenerErrors.Inc()
	f.log.Error("order subscription failed, keeping the last snapshot", "error", err)

	f.mu.Lock()
	f.lastErr = err
	report := !f.errorReported
	f.errorReported = true
	var listeners []ErrorListener
	if report {
		for _, fn := range f.errorSubs {
			listeners = append(listeners, fn)
		}
	}
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(err)
	}
}

func (f *LiveOrderFeed) hydrate(ctx context.Context, id string) {
	defer f.hydrateWorkers.Done()

	name := id
	customer, err := f.customers.Lookup(ctx, id)
	switch {
	case ctx.Err() != nil:
		f.mu.Lock()
		delete(f.inflight, id)
		f.mu.Unlock()
		return
	case err != nil:
		f.log.Warn("customer lookup failed, showing raw id", "customer_id", id, "error", err)
	case customer.FullName != "":
		name = customer.FullName
	}

	f.mu.Lock()
	delete(f.inflight, id)
	f.names[id] = name
	if f.state == FeedUnsubscribed {
		f.mu.Unlock()
		return
	}
	views := f.viewsLocked()
	listeners := f.snapshotListenersLocked()
	f.mu.Unlock()

	publish(listeners, views)
}

func (f *LiveOrderFeed) claimUnresolvedLocked(orders []models.Order) []string {
	var pending []string
	for _, o := range orders {
		id := o.CustomerID
		if id == "" || f.inflight[id] {
			continue
		}
		if _, ok := f.names[id]; ok {
			continue
		}
		f.inflight[id] = true
		pending = append(pending, id)
	}
	return pending
}

func (f *LiveOrderFeed) nameLocked(id string) string {
	if name, ok := f.names[id]; ok {
		return name
	}
	return id
}

func (f *LiveOrderFeed) viewsLocked() []models.OrderView {
	views := make([]models.OrderView, 0, len(f.orders))
	for _, o := range f.orders {
		items := make([]string, 0, len(o.LineItems))
		for _, li := range o.LineItems {
			items = append(items, li.Label())
		}
		views = append(views, models.OrderView{Order: o, CustomerName: f.nameLocked(o.CustomerID), Items: items})
	}
	return views
}

func (f *LiveOrderFeed) snapshotListenersLocked() []SnapshotListener {
	out := make([]SnapshotListener, 0, len(f.snapshotSubs))
	for _, fn := range f.snapshotSubs {
		out = append(out, fn)
	}
	return out
}

func publish(listeners []SnapshotListener, views []models.OrderView) {
	for _, fn := range listeners {
		fn(views)
	}
}
