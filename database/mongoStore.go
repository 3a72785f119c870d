package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"restaurant-admin/logger"
)

// MongoStore is the production Store. Documents are keyed by string _id.
type MongoStore struct {
	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database
	ready  *Readiness
	log    *logger.Logger
}

// MongoOptions tunes the connection loop.
type MongoOptions struct {
	URL          string
	Database     string
	Attempts     int
	RetryDelay   time.Duration
	PingTimeout  time.Duration
	ClientConfig *options.ClientOptions
}

// ConnectMongo returns immediately; the connection is established in the background
// and the readiness gate opens once the server answers a ping.
func ConnectMongo(opts MongoOptions, log *logger.Logger) *MongoStore {
	if opts.Attempts <= 0 {
		opts.Attempts = 10
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 10 * time.Second
	}
	s := &MongoStore{ready: NewReadiness(), log: log.WithComponent("mongo")}
	go s.connect(opts)
	return s
}

func (s *MongoStore) connect(opts MongoOptions) {
	clientOpts := opts.ClientConfig
	if clientOpts == nil {
		clientOpts = options.Client()
	}
	clientOpts.ApplyURI(opts.URL)

	var lastErr error
	for i := 0; i < opts.Attempts; i++ {
		s.log.Info("connecting to mongodb", "attempt", i+1)
		ctx, cancel := context.WithTimeout(context.Background(), opts.PingTimeout)
		client, err := mongo.Connect(ctx, clientOpts)
		if err == nil {
			err = client.Ping(ctx, readpref.Primary())
			if err != nil {
				_ = client.Disconnect(ctx)
			}
		}
		cancel()
		if err != nil {
			lastErr = err
			s.log.Warn("mongodb connection attempt failed", "attempt", i+1, "error", err)
			time.Sleep(opts.RetryDelay)
			continue
		}

		s.mu.Lock()
		s.client = client
		s.db = client.Database(opts.Database)
		s.mu.Unlock()
		s.log.Info("connected to mongodb", "database", opts.Database)
		s.ready.MarkReady()
		return
	}
	s.ready.Fail(fmt.Errorf("failed to connect to mongodb after %d attempts: %w", opts.Attempts, lastErr))
}

func (s *MongoStore) Ready() *Readiness { return s.ready }

// OpenCollection returns a handle on name, or an error before the connection is up.
func (s *MongoStore) OpenCollection(name string) (*mongo.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("mongodb client is not connected")
	}
	return s.db.Collection(name), nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	coll, err := s.OpenCollection(collection)
	if err != nil {
		return Document{}, err
	}
	var raw bson.M
	err = coll.FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, ErrNoDocument
	}
	if err != nil {
		return Document{}, err
	}
	return docFromRaw(raw), nil
}

func (s *MongoStore) List(ctx context.Context, collection string) ([]Document, error) {
	return s.find(ctx, collection, bson.M{})
}

func (s *MongoStore) FindBy(ctx context.Context, collection, field string, value interface{}) ([]Document, error) {
	return s.find(ctx, collection, bson.M{field: value})
}

func (s *MongoStore) find(ctx context.Context, collection string, filter bson.M) ([]Document, error) {
	coll, err := s.OpenCollection(collection)
	if err != nil {
		return nil, err
	}
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, docFromRaw(raw))
	}
	return docs, nil
}

// Put inserts a new document. Server timestamps on insert use the time of the request,
// truncated to the millisecond precision BSON dates keep.
func (s *MongoStore) Put(ctx context.Context, collection, id string, fields bson.M) error {
	coll, err := s.OpenCollection(collection)
	if err != nil {
		return err
	}
	set, inc, stamps := splitFields(fields)
	doc := bson.M{"_id": id}
	for k, v := range set {
		doc[k] = v
	}
	for k, v := range inc {
		doc[k] = v
	}
	now := primitive.NewDateTimeFromTime(time.Now())
	for _, k := range stamps {
		doc[k] = now
	}
	_, err = coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDocumentExists
	}
	return err
}

// Update applies $set, $inc and $currentDate in one atomic request.
func (s *MongoStore) Update(ctx context.Context, collection, id string, fields bson.M) error {
	coll, err := s.OpenCollection(collection)
	if err != nil {
		return err
	}
	set, inc, stamps := splitFields(fields)
	update := bson.D{}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if len(inc) > 0 {
		update = append(update, bson.E{Key: "$inc", Value: inc})
	}
	if len(stamps) > 0 {
		current := bson.M{}
		for _, k := range stamps {
			current[k] = true
		}
		update = append(update, bson.E{Key: "$currentDate", Value: current})
	}
	if len(update) == 0 {
		return nil
	}
	result, err := coll.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(false))
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNoDocument
	}
	return nil
}

// Subscribe watches the collection with a change stream and re-reads it after every event.
// A stream error is reported once and ends the subscription.
func (s *MongoStore) Subscribe(ctx context.Context, collection string, onChange func([]Document), onError func(error)) (Unsubscribe, error) {
	coll, err := s.OpenCollection(collection)
	if err != nil {
		return nil, err
	}
	subCtx, cancel := context.WithCancel(ctx)
	stream, err := coll.Watch(subCtx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stream.Close(context.Background())

		emit := func() bool {
			docs, err := s.List(subCtx, collection)
			if err != nil {
				if subCtx.Err() == nil {
					onError(err)
				}
				return false
			}
			onChange(docs)
			return true
		}

		if !emit() {
			return
		}
		for stream.Next(subCtx) {
			if !emit() {
				return
			}
		}
		if err := stream.Err(); err != nil && subCtx.Err() == nil {
			onError(err)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}
