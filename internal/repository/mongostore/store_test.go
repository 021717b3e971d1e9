package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fittrack/api/internal/identity"
	"fittrack/api/internal/repository/storetest"
)

func TestStoreConformance(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URL")
	if uri == "" {
		t.Skip("MONGO_TEST_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := Connect(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	storetest.Run(t, func(t *testing.T) identity.Store {
		dbName := fmt.Sprintf("fittrack_test_%d", time.Now().UnixNano())
		store, err := New(context.Background(), client, dbName)
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Database(dbName).Drop(context.Background()) })
		return store
	})
}
