package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// MemoryStore is an in-process Store used by tests and the memory driver.
// Writes are serialized by one mutex, which makes Increment linearizable per document.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]bson.M
	watchers    map[string]map[int]*memoryWatcher
	nextWatcher int
	ready       *Readiness
	now         func() time.Time
	failNext    error
}

type memoryWatcher struct {
	notify chan struct{}
	errs   chan error
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithReadiness replaces the gate, which is otherwise open from the start.
func WithReadiness(r *Readiness) MemoryOption {
	return func(s *MemoryStore) { s.ready = r }
}

// WithClock sets the clock used for server timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		collections: map[string]map[string]bson.M{},
		watchers:    map[string]map[int]*memoryWatcher{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ready == nil {
		s.ready = NewReadiness()
		s.ready.MarkReady()
	}
	return s
}

func (s *MemoryStore) Ready() *Readiness { return s.ready }

// FailNext makes the next store call return err.
func (s *MemoryStore) FailNext(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

// InjectError delivers err to every subscriber of collection.
func (s *MemoryStore) InjectError(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.watchers[collection] {
		select {
		case w.errs <- err:
		default:
		}
	}
}

func (s *MemoryStore) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return Document{}, err
	}
	raw, ok := s.collections[collection][id]
	if !ok {
		return Document{}, ErrNoDocument
	}
	return Document{ID: id, Data: cloneMap(raw)}, nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	return s.listLocked(collection), nil
}

func (s *MemoryStore) listLocked(collection string) []Document {
	ids := make([]string, 0, len(s.collections[collection]))
	for id := range s.collections[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, Document{ID: id, Data: cloneMap(s.collections[collection][id])})
	}
	return docs
}

func (s *MemoryStore) FindBy(ctx context.Context, collection, field string, value interface{}) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	var out []Document
	for _, doc := range s.listLocked(collection) {
		if reflect.DeepEqual(doc.Data[field], value) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *MemoryStore) Put(ctx context.Context, collection, id string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	if _, exists := s.collections[collection][id]; exists {
		return ErrDocumentExists
	}
	if s.collections[collection] == nil {
		s.collections[collection] = map[string]bson.M{}
	}
	set, inc, stamps := splitFields(fields)
	doc := cloneMap(set)
	for k, delta := range inc {
		doc[k] = delta
	}
	now := s.now()
	for _, k := range stamps {
		doc[k] = now
	}
	s.collections[collection][id] = doc
	s.notifyLocked(collection)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	doc, ok := s.collections[collection][id]
	if !ok {
		return ErrNoDocument
	}
	set, inc, stamps := splitFields(fields)
	for k, v := range set {
		doc[k] = v
	}
	for k, delta := range inc {
		current, err := numericField(doc[k])
		if err != nil {
			return fmt.Errorf("cannot increment %s.%s: %w", collection, k, err)
		}
		doc[k] = current + delta.(float64)
	}
	now := s.now()
	for _, k := range stamps {
		doc[k] = now
	}
	s.notifyLocked(collection)
	return nil
}

// Seed writes raw documents as-is, bypassing sentinels. Used to load fixtures.
func (s *MemoryStore) Seed(collection string, docs map[string]bson.M) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collections[collection] == nil {
		s.collections[collection] = map[string]bson.M{}
	}
	for id, data := range docs {
		s.collections[collection][id] = cloneMap(data)
	}
	s.notifyLocked(collection)
}

// Delete removes a document. Dashboards never delete, but fixtures and tests do.
func (s *MemoryStore) Delete(collection, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	s.notifyLocked(collection)
}

func (s *MemoryStore) Subscribe(ctx context.Context, collection string, onChange func([]Document), onError func(error)) (Unsubscribe, error) {
	s.mu.Lock()
	if err := s.takeFailure(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	subCtx, cancel := context.WithCancel(ctx)
	w := &memoryWatcher{
		notify: make(chan struct{}, 1),
		errs:   make(chan error, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if s.watchers[collection] == nil {
		s.watchers[collection] = map[int]*memoryWatcher{}
	}
	key := s.nextWatcher
	s.nextWatcher++
	s.watchers[collection][key] = w
	w.notify <- struct{}{}
	s.mu.Unlock()

	go func() {
		defer close(w.done)
		defer s.removeWatcher(collection, key)
		for {
			select {
			case <-subCtx.Done():
				return
			case err := <-w.errs:
				onError(err)
				return
			case <-w.notify:
				s.mu.Lock()
				docs := s.listLocked(collection)
				s.mu.Unlock()
				onChange(docs)
			}
		}
	}()

	return func() {
		w.once.Do(func() {
			w.cancel()
			<-w.done
		})
	}, nil
}

func (s *MemoryStore) removeWatcher(collection string, key int) {
	s.mu.Lock()
	delete(s.watchers[collection], key)
	s.mu.Unlock()
}

func (s *MemoryStore) notifyLocked(collection string) {
	for _, w := range s.watchers[collection] {
		select {
		case w.notify <- struct{}{}:
		default:
		}
	}
}

func (s *MemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	var watchers []*memoryWatcher
	for _, byKey := range s.watchers {
		for _, w := range byKey {
			watchers = append(watchers, w)
		}
	}
	s.mu.Unlock()
	for _, w := range watchers {
		w.once.Do(func() {
			w.cancel()
			<-w.done
		})
	}
	return nil
}

func numericField(v interface{}) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("field holds %T", v)
	}
}

func cloneMap(m bson.M) bson.M {
	out := make(bson.M, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
