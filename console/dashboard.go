// Copyright 2026 The SafeTrack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/safetrack/safetrack-admin/internal"
	"github.com/safetrack/safetrack-admin/internal/hooks"
	"github.com/safetrack/safetrack-admin/safetrackapi/api"
)

// ErrActionPending is returned when a row already has an action in flight.
var ErrActionPending = errors.New("une action est déjà en cours pour ce boîtier")

var refreshesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "safetrack_admin",
		Subsystem: "dashboard",
		Name:      "refreshes_total",
		Help:      "Device list refreshes by outcome (applied, stale, failed).",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(refreshesTotal)
}

// Stats are the counters above the device table.
type Stats struct {
	Total       int `json:"total"`
	Disponibles int `json:"disponibles"`
	Actifs      int `json:"actifs"`
}

// Row is a device with the actions offered for it.
type Row struct {
	api.Device
	CanRelease bool `json:"can_release"`
	CanDelete  bool `json:"can_delete"`
	// InFlight disables the row's buttons while its action runs.
	InFlight bool `json:"in_flight"`
}

// Dashboard owns the cached device list of one console session.
type Dashboard struct {
	api    api.DeviceAPI
	token  func() string
	actor  func() string
	toasts *Toasts

	// seq numbers refreshes in the order they were started.
	seq      atomic.Uint64
	fetching atomic.Int32

	mu          sync.RWMutex
	devices     []api.Device
	applied     uint64
	loaded      bool
	lastRefresh time.Time
	pending     map[int64]struct{}
}

// NewDashboard creates a dashboard calling deviceAPI with the token returned
// by token. actor returns the administrator email for audit hooks.
func NewDashboard(deviceAPI api.DeviceAPI, token, actor func() string, toasts *Toasts) *Dashboard {
	return &Dashboard{
		api:     deviceAPI,
		token:   token,
		actor:   actor,
		toasts:  toasts,
		pending: make(map[int64]struct{}),
	}
}

// Refresh fetches the whole collection and replaces the cache with it,
// unless a refresh started later has already been applied. A failure is
// shown as a toast and returned.
func (d *Dashboard) Refresh(ctx context.Context) error {
	seq := d.seq.Inc()
	d.fetching.Inc()
	defer d.fetching.Dec()

	trace, ctx := internal.StartRegion(ctx, "Dashboard.Refresh")
	defer trace.EndRegion()

	devices, err := d.api.ListDevices(ctx, d.token())
	if err != nil {
		refreshesTotal.WithLabelValues("failed").Inc()
		// the cache is kept as is, an empty one shows the empty state
		d.mu.Lock()
		d.loaded = true
		d.mu.Unlock()
		d.present(ActionLoad, err)
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq <= d.applied {
		refreshesTotal.WithLabelValues("stale").Inc()
		logrus.WithFields(logrus.Fields{
			"seq":     seq,
			"applied": d.applied,
		}).Debug("Discarding stale device list")
		return nil
	}
	refreshesTotal.WithLabelValues("applied").Inc()
	if devices == nil {
		devices = []api.Device{}
	}
	d.devices = devices
	d.applied = seq
	d.loaded = true
	d.lastRefresh = time.Now()
	return nil
}

// Stats derives the counters from the current cache.
func (d *Dashboard) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := Stats{Total: len(d.devices)}
	for i := range d.devices {
		switch d.devices[i].Status {
		case api.StatusAvailable:
			s.Disponibles++
		case api.StatusActive:
			s.Actifs++
		}
	}
	return s
}

// Rows returns a copy of the cache with per-row action availability.
func (d *Dashboard) Rows() []Row {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rows := make([]Row, 0, len(d.devices))
	for _, dev := range d.devices {
		_, inFlight := d.pending[dev.ID]
		rows = append(rows, Row{
			Device:     dev,
			CanRelease: dev.CanRelease(),
			CanDelete:  dev.CanDelete(),
			InFlight:   inFlight,
		})
	}
	return rows
}

// Device looks a device up in the cache.
func (d *Dashboard) Device(id int64) (api.Device, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, dev := range d.devices {
		if dev.ID == id {
			return dev, true
		}
	}
	return api.Device{}, false
}

// Loading is true until the first refresh finished, and while a refresh
// runs on an empty list.
func (d *Dashboard) Loading() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.loaded || (d.fetching.Load() > 0 && len(d.devices) == 0)
}

// LastRefresh returns when the cache was last replaced, zero before that.
func (d *Dashboard) LastRefresh() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastRefresh
}

// BeginAction marks a row busy. It returns false if the row already is.
func (d *Dashboard) BeginAction(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pending[id]; ok {
		return false
	}
	d.pending[id] = struct{}{}
	return true
}

// EndAction makes a row interactive again.
func (d *Dashboard) EndAction(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, id)
}

// Release unpairs the device. On success the whole list is fetched again
// so that the new status shows; the row is never patched locally.
func (d *Dashboard) Release(ctx context.Context, device api.Device) error {
	if !d.BeginAction(device.ID) {
		return ErrActionPending
	}
	defer d.EndAction(device.ID)

	if _, err := d.api.Release(ctx, d.token(), device.ID); err != nil {
		return err
	}
	hooks.Run(hooks.KindDeviceReleased, d.event(device))
	d.toasts.Success(fmt.Sprintf("🔄 Boîtier %s libéré — prêt pour re-appairage", device.DevEUI))
	// a failed refetch has already been toasted
	_ = d.Refresh(ctx)
	return nil
}

// Delete removes the device for good. On success the row is dropped from
// the cache at once, without a refetch.
func (d *Dashboard) Delete(ctx context.Context, device api.Device) error {
	if !d.BeginAction(device.ID) {
		return ErrActionPending
	}
	defer d.EndAction(device.ID)

	if _, err := d.api.Delete(ctx, d.token(), device.ID); err != nil {
		return err
	}
	d.mu.Lock()
	for i := range d.devices {
		if d.devices[i].ID == device.ID {
			d.devices = append(d.devices[:i:i], d.devices[i+1:]...)
			break
		}
	}
	d.mu.Unlock()
	hooks.Run(hooks.KindDeviceDeleted, d.event(device))
	d.toasts.Success(fmt.Sprintf("🗑️ Boîtier %s supprimé définitivement", device.DevEUI))
	return nil
}

func (d *Dashboard) present(action Action, err error) {
	if SurfaceFor(action) != SurfaceToast {
		return
	}
	d.toasts.Error(fmt.Sprintf("Erreur de chargement : %s", api.Message(err)))
}

func (d *Dashboard) event(device api.Device) *hooks.DeviceEvent {
	return &hooks.DeviceEvent{
		Actor:    d.actor(),
		DeviceID: device.ID,
		DevEUI:   device.DevEUI,
	}
}
