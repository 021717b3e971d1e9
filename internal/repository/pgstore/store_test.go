package pgstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fittrack/api/internal/db"
	"fittrack/api/internal/identity"
	"fittrack/api/internal/repository/storetest"
)

func TestStoreConformance(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool))

	// Emails are unique per run, so subtests share the schema.
	store := New(pool)
	storetest.Run(t, func(*testing.T) identity.Store { return store })
}
