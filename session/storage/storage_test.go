package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetrack/safetrack-admin/session/storage"
	"github.com/safetrack/safetrack-admin/setup/config"
	"github.com/safetrack/safetrack-admin/test"
)

func mustCreateDatabase(t *testing.T, dbType test.DBType) (storage.Database, func()) {
	t.Helper()
	connStr, close := test.PrepareDBConnectionString(t, dbType)
	opts := &config.DatabaseOptions{ConnectionString: config.DataSource(connStr)}
	opts.Defaults(5)
	db, err := storage.NewDatabase(context.Background(), opts, time.Hour)
	require.NoError(t, err)
	return db, close
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	test.WithAllDatabases(t, func(t *testing.T, dbType test.DBType) {
		db, close := mustCreateDatabase(t, dbType)
		defer close()

		s, err := db.GetSession(ctx, "unknown")
		require.NoError(t, err)
		assert.Nil(t, s)

		require.NoError(t, db.UpsertToken(ctx, "sess-1", "token-a"))
		require.NoError(t, db.UpdateEmail(ctx, "sess-1", "tech@safetrack.local"))

		s, err = db.GetSession(ctx, "sess-1")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "sess-1", s.SessionID)
		assert.Equal(t, "token-a", s.Token)
		assert.Equal(t, "tech@safetrack.local", s.Email)
		assert.NotZero(t, s.UpdatedTS)

		// a new login replaces the token and forgets the old email
		require.NoError(t, db.UpsertToken(ctx, "sess-1", "token-b"))
		s, err = db.GetSession(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, "token-b", s.Token)
		assert.Empty(t, s.Email)

		require.NoError(t, db.DeleteSession(ctx, "sess-1"))
		s, err = db.GetSession(ctx, "sess-1")
		require.NoError(t, err)
		assert.Nil(t, s)

		assert.NoError(t, db.Ping(ctx))
	})
}

func TestUpdateEmailUnknownSession(t *testing.T) {
	ctx := context.Background()
	test.WithAllDatabases(t, func(t *testing.T, dbType test.DBType) {
		db, close := mustCreateDatabase(t, dbType)
		defer close()

		require.NoError(t, db.UpdateEmail(ctx, "ghost", "ghost@safetrack.local"))
		require.NoError(t, db.TouchSession(ctx, "ghost"))
		s, err := db.GetSession(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, s)
	})
}

func TestDeleteExpiredSessions(t *testing.T) {
	ctx := context.Background()
	test.WithAllDatabases(t, func(t *testing.T, dbType test.DBType) {
		db, close := mustCreateDatabase(t, dbType)
		defer close()

		require.NoError(t, db.UpsertToken(ctx, "old", "token-old"))
		require.NoError(t, db.UpsertToken(ctx, "fresh", "token-fresh"))

		deleted, err := db.DeleteExpiredSessions(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)

		deleted, err = db.DeleteExpiredSessions(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		for _, id := range []string{"old", "fresh"} {
			s, err := db.GetSession(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, s, id)
		}
	})
}

func TestTouchSessionKeepsValues(t *testing.T) {
	ctx := context.Background()
	test.WithAllDatabases(t, func(t *testing.T, dbType test.DBType) {
		db, close := mustCreateDatabase(t, dbType)
		defer close()

		require.NoError(t, db.UpsertToken(ctx, "sess", "token"))
		require.NoError(t, db.UpdateEmail(ctx, "sess", "a@b.c"))
		before, err := db.GetSession(ctx, "sess")
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		require.NoError(t, db.TouchSession(ctx, "sess"))

		after, err := db.GetSession(ctx, "sess")
		require.NoError(t, err)
		assert.Equal(t, "token", after.Token)
		assert.Equal(t, "a@b.c", after.Email)
		assert.Greater(t, after.UpdatedTS, before.UpdatedTS)
	})
}
