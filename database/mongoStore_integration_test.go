package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"restaurant-admin/logger"
)

// Integration: needs a replica set (change streams) at MONGODB_TEST_URL.
func TestIntegration_MongoStore(t *testing.T) {
	url := os.Getenv("MONGODB_TEST_URL")
	if url == "" {
		t.Skip("MONGODB_TEST_URL not set")
	}
	ctx := context.Background()
	dbName := "restaurant_test_" + uuid.NewString()[:8]
	s := ConnectMongo(MongoOptions{URL: url, Database: dbName, Attempts: 3, RetryDelay: time.Second}, logger.Discard())
	require.NoError(t, s.Ready().Wait(ctx, 30*time.Second))
	t.Cleanup(func() {
		if coll, err := s.OpenCollection(IngredientCollection); err == nil {
			_ = coll.Database().Drop(ctx)
		}
		_ = s.Close(ctx)
	})

	snapshots := make(chan []Document, 16)
	unsubscribe, err := s.Subscribe(ctx, IngredientCollection, func(docs []Document) { snapshots <- docs }, func(error) {})
	require.NoError(t, err)
	defer unsubscribe()
	<-snapshots

	require.NoError(t, s.Put(ctx, IngredientCollection, "garlic", bson.M{"name": "Garlic", "quantity": 500.0, "createdAt": ServerTimestamp()}))
	assert.ErrorIs(t, s.Put(ctx, IngredientCollection, "garlic", bson.M{"name": "Garlic"}), ErrDocumentExists)
	require.NoError(t, s.Update(ctx, IngredientCollection, "garlic", bson.M{"quantity": Increment(250), "updatedAt": ServerTimestamp()}))
	assert.ErrorIs(t, s.Update(ctx, IngredientCollection, "onion", bson.M{"quantity": Increment(1)}), ErrNoDocument)

	doc, err := s.Get(ctx, IngredientCollection, "garlic")
	require.NoError(t, err)
	assert.Equal(t, 750.0, doc.Data["quantity"])
	assert.NotNil(t, doc.Data["updatedAt"])

	require.Eventually(t, func() bool {
		select {
		case docs := <-snapshots:
			return len(docs) == 1 && docs[0].Data["quantity"] == 750.0
		default:
			return false
		}
	}, 10*time.Second, 50*time.Millisecond)
}
