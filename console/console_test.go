package console

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/poll"

	"github.com/safetrack/safetrack-admin/internal/caching"
	"github.com/safetrack/safetrack-admin/safetrackapi/api"
	"github.com/safetrack/safetrack-admin/safetrackapi/client"
	"github.com/safetrack/safetrack-admin/session/storage/inmemory"
	"github.com/safetrack/safetrack-admin/test"
)

func TestRequestAction(t *testing.T) {
	ctx := context.Background()
	c, backend := newTestConsole(t)
	paired := backend.AddDevice(api.Device{DevEUI: "AABBCCDDEE001122", Status: api.StatusActive})
	spare := backend.AddDevice(api.Device{DevEUI: "AABBCCDDEE003344", Status: api.StatusAvailable})
	require.NoError(t, c.Dashboard.Refresh(ctx))

	assert.ErrorIs(t, c.RequestAction(IntentRelease, 999), ErrUnknownDevice)
	assert.ErrorIs(t, c.RequestAction(IntentDelete, paired.ID), ErrActionNotOffered)
	assert.ErrorIs(t, c.RequestAction(IntentRelease, spare.ID), ErrActionNotOffered)
	_, open := c.Modal.View()
	assert.False(t, open)

	require.NoError(t, c.RequestAction(IntentRelease, paired.ID))
	view, open := c.Modal.View()
	require.True(t, open)
	assert.Equal(t, VariantNeutral, view.Variant)

	c.CancelModal()
	_, open = c.Modal.View()
	assert.False(t, open)
	assert.Equal(t, 0, backend.Calls("release"), "cancel has no side effect")
}

func TestConfirmModalRelease(t *testing.T) {
	ctx := context.Background()
	c, backend := newTestConsole(t)
	paired := backend.AddDevice(api.Device{DevEUI: "AABBCCDDEE001122", Status: api.StatusActive})
	require.NoError(t, c.Dashboard.Refresh(ctx))

	require.NoError(t, c.RequestAction(IntentRelease, paired.ID))
	require.NoError(t, c.ConfirmModal(ctx))

	_, open := c.Modal.View()
	assert.False(t, open)
	assert.Equal(t, 1, backend.Calls("release"))
	assert.Equal(t, Stats{Total: 1, Disponibles: 1}, c.Dashboard.Stats())
	assert.Empty(t, c.TakeAlert())

	// nothing pending any more
	require.NoError(t, c.ConfirmModal(ctx))
	assert.Equal(t, 1, backend.Calls("release"))
}

func TestConfirmModalFailureRaisesAlertOnce(t *testing.T) {
	ctx := context.Background()
	c, backend := newTestConsole(t)
	spare := backend.AddDevice(api.Device{DevEUI: "AABBCCDDEE001122", Status: api.StatusAvailable})
	require.NoError(t, c.Dashboard.Refresh(ctx))

	backend.Fail("delete", http.StatusForbidden, `{"detail":"Accès réservé aux administrateurs"}`)
	require.NoError(t, c.RequestAction(IntentDelete, spare.ID))
	require.Error(t, c.ConfirmModal(ctx))

	assert.Equal(t, "Erreur : Accès réservé aux administrateurs", c.TakeAlert())
	assert.Empty(t, c.TakeAlert(), "an alert is shown once")
	assert.Empty(t, c.Toasts.List())
	assert.Equal(t, 1, c.Dashboard.Stats().Total, "a failed delete keeps the row")
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	c, backend := newTestConsole(t)
	before := c.Snapshot()
	assert.True(t, before.Authenticated)
	assert.True(t, before.Loading)
	assert.Nil(t, before.LastRefresh)

	paired := backend.AddDevice(api.Device{DevEUI: "AABBCCDDEE001122", Status: api.StatusActive})
	require.NoError(t, c.Dashboard.Refresh(ctx))
	require.NoError(t, c.RequestAction(IntentRelease, paired.ID))
	c.Provision.Set(ProvisionValues{DevEUI: "a1b2c3d4e5f60001", Name: "Tracker"})

	s := c.Snapshot()
	assert.False(t, s.Loading)
	assert.NotNil(t, s.LastRefresh)
	assert.Equal(t, Stats{Total: 1, Actifs: 1}, s.Stats)
	require.Len(t, s.Devices, 1)
	assert.True(t, s.Devices[0].CanRelease)
	require.NotNil(t, s.Modal)
	assert.Equal(t, "A1B2C3D4E5F60001", s.Form.DevEUI)
	assert.True(t, s.CanSubmit)
}

func TestParseDeviceID(t *testing.T) {
	id, err := ParseDeviceID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, s := range []string{"", "0", "-1", "abc", "4.2"} {
		_, err := ParseDeviceID(s)
		assert.ErrorIs(t, err, ErrUnknownDevice, s)
	}
}

func newTestRegistry(t *testing.T) (*Registry, *test.Backend, *inmemory.Database) {
	t.Helper()
	backend := test.NewBackend(t)
	backend.AddUser(testEmail, testPassword)
	db := inmemory.NewDatabase(time.Hour)
	caches, err := caching.NewRistrettoCache(64, false)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRegistry(ctx, db, client.New(backend.APIPrefix(), nil), caches, *testDashboardConfig())
	t.Cleanup(func() {
		r.Close()
		cancel()
	})
	return r, backend, db
}

func TestRegistryLoginLogout(t *testing.T) {
	ctx := context.Background()
	r, backend, db := newTestRegistry(t)

	c, err := r.Get(ctx, "browser-1")
	require.NoError(t, err)
	assert.False(t, c.Authenticated())
	assert.False(t, c.Poller.Running(), "no polling before login")

	require.NoError(t, c.Login.Submit(ctx, testEmail, testPassword))
	c.Activate()
	assert.True(t, c.Poller.Running())
	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if backend.Calls("list") == 0 {
			return poll.Continue("waiting for the first refresh")
		}
		return poll.Success()
	}, poll.WithTimeout(time.Second))

	same, err := r.Get(ctx, "browser-1")
	require.NoError(t, err)
	assert.Same(t, c, same)
	assert.Equal(t, testEmail, same.Email())
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.Logout(ctx, "browser-1"))
	assert.False(t, c.Poller.Running())
	assert.False(t, c.Authenticated())
	assert.Empty(t, c.Email())
	assert.Equal(t, 0, r.Len())

	row, err := db.GetSession(ctx, "browser-1")
	require.NoError(t, err)
	assert.Nil(t, row, "token and email are removed from the store")
}

func TestRegistryRestoresSession(t *testing.T) {
	ctx := context.Background()
	r, _, db := newTestRegistry(t)
	require.NoError(t, db.UpsertToken(ctx, "browser-2", test.TokenFor(testEmail)))
	require.NoError(t, db.UpdateEmail(ctx, "browser-2", testEmail))

	c, err := r.Get(ctx, "browser-2")
	require.NoError(t, err)
	assert.True(t, c.Authenticated())
	assert.Equal(t, testEmail, c.Email())
	assert.True(t, c.Poller.Running(), "a restored session polls at once")
}

func TestRegistryLogoutUnknownConsole(t *testing.T) {
	ctx := context.Background()
	r, _, db := newTestRegistry(t)
	require.NoError(t, db.UpsertToken(ctx, "browser-3", "stale"))

	require.NoError(t, r.Logout(ctx, "browser-3"))
	row, err := db.GetSession(ctx, "browser-3")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestRegistryEvictIdle(t *testing.T) {
	ctx := context.Background()
	r, _, db := newTestRegistry(t)
	require.NoError(t, db.UpsertToken(ctx, "browser-4", test.TokenFor(testEmail)))

	c, err := r.Get(ctx, "browser-4")
	require.NoError(t, err)
	require.True(t, c.Poller.Running())

	assert.Equal(t, 0, r.EvictIdle(time.Now().Add(-time.Minute)))
	assert.Equal(t, 1, r.EvictIdle(time.Now().Add(time.Minute)))
	assert.False(t, c.Poller.Running())
	assert.Equal(t, 0, r.Len())

	row, err := db.GetSession(ctx, "browser-4")
	require.NoError(t, err)
	assert.NotNil(t, row, "eviction keeps the stored session")

	again, err := r.Get(ctx, "browser-4")
	require.NoError(t, err)
	assert.NotSame(t, c, again)
	assert.True(t, again.Authenticated())
}

func TestRegistryPausesUnwatchedConsoles(t *testing.T) {
	ctx := context.Background()
	r, _, db := newTestRegistry(t)
	require.NoError(t, db.UpsertToken(ctx, "browser-6", test.TokenFor(testEmail)))

	c, err := r.Get(ctx, "browser-6")
	require.NoError(t, err)
	require.True(t, c.Poller.Running())

	assert.Equal(t, 0, r.PauseUnwatched(time.Now().Add(-time.Minute)))
	assert.Equal(t, 1, r.PauseUnwatched(time.Now().Add(time.Minute)))
	assert.False(t, c.Poller.Running())
	assert.Equal(t, 1, r.Len(), "a paused console stays registered")
	assert.Equal(t, 0, r.PauseUnwatched(time.Now().Add(time.Minute)))

	again, err := r.Get(ctx, "browser-6")
	require.NoError(t, err)
	assert.Same(t, c, again)
	assert.True(t, again.Poller.Running(), "a page view resumes polling")
}

func TestEvictedConsoleNeverPollsAgain(t *testing.T) {
	ctx := context.Background()
	r, _, db := newTestRegistry(t)
	require.NoError(t, db.UpsertToken(ctx, "browser-7", test.TokenFor(testEmail)))

	// a request still holds the console while it is evicted
	c, err := r.Get(ctx, "browser-7")
	require.NoError(t, err)
	require.Equal(t, 1, r.EvictIdle(time.Now().Add(time.Minute)))

	c.Activate()
	assert.False(t, c.Poller.Running())
}

func TestRegistryClose(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestRegistry(t)
	_, err := r.Get(ctx, "browser-5")
	require.NoError(t, err)

	r.Close()
	assert.Equal(t, 0, r.Len())
	_, err = r.Get(ctx, "browser-5")
	assert.Error(t, err)
}
