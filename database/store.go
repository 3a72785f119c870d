package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// Collections used by the admin dashboards.
const (
	IngredientCollection = "stocks"
	MenuCollection       = "menu"
	OrderCollection      = "orders"
	CustomerCollection   = "customers"
	StaffCollection      = "staff"
)

var (
	// ErrNoDocument is returned by Get and Update when the id does not exist.
	ErrNoDocument = errors.New("document not found")
	// ErrDocumentExists is returned by Put when the id is already taken.
	ErrDocumentExists = errors.New("document already exists")
)

// Document is one stored record. Data never contains the "_id" key.
type Document struct {
	ID   string
	Data bson.M
}

// Unsubscribe releases a subscription. Safe to call more than once.
type Unsubscribe func()

// Store is the document database the core talks to.
type Store interface {
	// Ready exposes the readiness gate. No other method should be called before it opens.
	Ready() *Readiness
	Get(ctx context.Context, collection, id string) (Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	FindBy(ctx context.Context, collection, field string, value interface{}) ([]Document, error)
	// Put creates a document and never overwrites an existing one.
	Put(ctx context.Context, collection, id string, fields bson.M) error
	// Update merges fields into an existing document.
	Update(ctx context.Context, collection, id string, fields bson.M) error
	// Subscribe delivers the full collection once and again after every change, until
	// the returned Unsubscribe is called or ctx ends. onError ends the subscription.
	Subscribe(ctx context.Context, collection string, onChange func([]Document), onError func(error)) (Unsubscribe, error)
	Close(ctx context.Context) error
}

type incrementOp struct{ delta float64 }

type serverTimestampOp struct{}

// Increment is a field value asking the store to add delta atomically.
func Increment(delta float64) interface{} { return incrementOp{delta: delta} }

// ServerTimestamp is a field value the store replaces with its own clock.
func ServerTimestamp() interface{} { return serverTimestampOp{} }

// splitFields separates plain values from increment and timestamp sentinels.
func splitFields(fields bson.M) (set bson.M, inc bson.M, stamps []string) {
	set, inc = bson.M{}, bson.M{}
	for k, v := range fields {
		if k == "_id" {
			continue
		}
		switch op := v.(type) {
		case incrementOp:
			inc[k] = op.delta
		case serverTimestampOp:
			stamps = append(stamps, k)
		default:
			set[k] = v
		}
	}
	return set, inc, stamps
}

func docFromRaw(raw bson.M) Document {
	data := bson.M{}
	var id string
	for k, v := range raw {
		if k == "_id" {
			id = idString(v)
			continue
		}
		data[k] = v
	}
	return Document{ID: id, Data: data}
}

func idString(v interface{}) string {
	type hexer interface{ Hex() string }
	switch id := v.(type) {
	case string:
		return id
	case hexer:
		return id.Hex()
	default:
		return ""
	}
}
