package console

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/safetrack/safetrack-admin/internal/caching"
	"github.com/safetrack/safetrack-admin/safetrackapi/api"
	"github.com/safetrack/safetrack-admin/safetrackapi/client"
	"github.com/safetrack/safetrack-admin/session"
	"github.com/safetrack/safetrack-admin/session/storage/inmemory"
	"github.com/safetrack/safetrack-admin/setup/config"
	"github.com/safetrack/safetrack-admin/test"
)

// scriptedDeviceAPI answers ListDevices from a queue of scripted calls.
// Each call blocks until its release channel is closed, which lets tests
// decide in which order concurrent refreshes resolve.
type scriptedDeviceAPI struct {
	api.DeviceAPI

	// entered receives once per ListDevices call, after the call took
	// its script.
	entered chan struct{}

	mu    sync.Mutex
	calls []scriptedList
}

type scriptedList struct {
	devices []api.Device
	err     error
	release chan struct{}
}

func (s *scriptedDeviceAPI) script(devices []api.Device, err error) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.calls = append(s.calls, scriptedList{devices: devices, err: err, release: ch})
	return ch
}

func (s *scriptedDeviceAPI) ListDevices(ctx context.Context, token string) ([]api.Device, error) {
	s.mu.Lock()
	call := s.calls[0]
	s.calls = s.calls[1:]
	s.mu.Unlock()
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	select {
	case <-call.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return call.devices, call.err
}

// blockingDeviceAPI blocks Release and Delete until unblock is closed.
type blockingDeviceAPI struct {
	api.DeviceAPI
	entered chan int64
	unblock chan struct{}
}

func (b *blockingDeviceAPI) Release(ctx context.Context, token string, id int64) (*api.Device, error) {
	b.entered <- id
	<-b.unblock
	return &api.Device{ID: id}, nil
}

func (b *blockingDeviceAPI) Delete(ctx context.Context, token string, id int64) (*api.Device, error) {
	b.entered <- id
	<-b.unblock
	return &api.Device{ID: id}, nil
}

func (b *blockingDeviceAPI) ListDevices(ctx context.Context, token string) ([]api.Device, error) {
	return nil, nil
}

const (
	testEmail    = "tech@safetrack.local"
	testPassword = "s3cret"
)

func testDashboardConfig() *config.Dashboard {
	cfg := &config.Dashboard{}
	cfg.Defaults(false)
	cfg.ToastTTL = time.Minute
	cfg.PollInterval = time.Hour
	return cfg
}

// newTestConsole returns a logged in console talking to a fake backend.
func newTestConsole(t *testing.T) (*Console, *test.Backend) {
	t.Helper()
	backend := test.NewBackend(t)
	token := backend.AddUser(testEmail, testPassword)

	store := session.NewStore(inmemory.NewDatabase(time.Hour), "sess")
	if err := store.Save(context.Background(), token); err != nil {
		t.Fatalf("store.Save: %s", err)
	}
	caches, err := caching.NewRistrettoCache(64, false)
	if err != nil {
		t.Fatalf("NewRistrettoCache: %s", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := newConsole(ctx, store, client.New(backend.APIPrefix(), nil), caches, testDashboardConfig())
	t.Cleanup(func() {
		cancel()
		c.close()
	})
	return c, backend
}
