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
// Package console holds the server side state of the admin console: one
// Console per browser session, with its device list, poller, toasts,
// confirmation modal and forms.
package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/safetrack/safetrack-admin/internal/caching"
	"github.com/safetrack/safetrack-admin/internal/hooks"
	"github.com/safetrack/safetrack-admin/safetrackapi/api"
	"github.com/safetrack/safetrack-admin/session"
	"github.com/safetrack/safetrack-admin/session/storage"
	"github.com/safetrack/safetrack-admin/setup/config"
)

// unwatchedPolls is how many poll intervals a console keeps polling
// without a page view.
const unwatchedPolls = 3

var (
	// ErrUnknownDevice is returned for a device absent from the cache.
	ErrUnknownDevice = errors.New("boîtier inconnu")
	// ErrActionNotOffered is returned when the device status does not
	// allow the requested action.
	ErrActionNotOffered = errors.New("action indisponible pour ce boîtier")
)

// Console is the state of one console session.
type Console struct {
	Store     *session.Store
	Login     *Login
	Dashboard *Dashboard
	Poller    *Poller
	Toasts    *Toasts
	Modal     *Modal
	Provision *ProvisionForm

	// ctx outlives requests and bounds the poller.
	ctx      context.Context
	profiles caching.ProfileCache

	mu       sync.Mutex
	alert    string
	lastSeen time.Time
	closed   bool
}

func newConsole(
	ctx context.Context, store *session.Store, backend api.SafeTrackAPI,
	profiles caching.ProfileCache, cfg *config.Dashboard,
) *Console {
	c := &Console{
		Store:    store,
		Toasts:   NewToasts(cfg.ToastTTL),
		Modal:    &Modal{},
		ctx:      ctx,
		profiles: profiles,
		lastSeen: time.Now(),
	}
	token := func() string { return store.Current().Token }
	actor := func() string { return store.Current().Email }
	c.Login = NewLogin(backend, store, profiles)
	c.Dashboard = NewDashboard(backend, token, actor, c.Toasts)
	c.Poller = NewPoller(c.Dashboard, cfg.PollInterval)
	c.Provision = NewProvisionForm(backend, token, actor, c.provisioned)
	return c
}

// ID returns the console session ID.
func (c *Console) ID() string {
	return c.Store.ID()
}

// Authenticated reports whether the session holds a token. Without one
// only the login view is rendered.
func (c *Console) Authenticated() bool {
	return c.Store.Authenticated()
}

// Email is the administrator email, empty when it was not resolved.
func (c *Console) Email() string {
	return c.Store.Current().Email
}

// Activate starts polling, or refreshes at once if polling already runs.
// A closed console never polls again.
func (c *Console) Activate() {
	if c.Poller.Running() {
		c.Poller.Trigger()
		return
	}
	c.startPolling(c.ctx)
}

func (c *Console) startPolling(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.Poller.Start(ctx)
}

func (c *Console) provisioned(ctx context.Context, devEUI string) {
	c.Toasts.Success(fmt.Sprintf("✅ Boîtier %s enregistré avec succès", devEUI))
	// a failed refetch has already been toasted
	_ = c.Dashboard.Refresh(ctx)
}

// RequestAction opens the confirmation modal for kind on the device id.
// Only the action matching the device status is accepted.
func (c *Console) RequestAction(kind IntentKind, id int64) error {
	device, ok := c.Dashboard.Device(id)
	if !ok {
		return ErrUnknownDevice
	}
	switch {
	case kind == IntentRelease && device.CanRelease():
	case kind == IntentDelete && device.CanDelete():
	default:
		return ErrActionNotOffered
	}
	c.Modal.Open(Intent{Kind: kind, Device: device})
	return nil
}

// ConfirmModal closes the modal and runs the pending action. Failures go
// to the surface the presentation policy names for the action.
func (c *Console) ConfirmModal(ctx context.Context) error {
	intent, ok := c.Modal.Confirm()
	if !ok {
		return nil
	}
	var (
		action Action
		err    error
	)
	switch intent.Kind {
	case IntentRelease:
		action = ActionRelease
		err = c.Dashboard.Release(ctx, intent.Device)
	case IntentDelete:
		action = ActionDelete
		err = c.Dashboard.Delete(ctx, intent.Device)
	}
	if err != nil {
		c.present(action, err)
	}
	return err
}

// CancelModal discards the pending intent without side effects.
func (c *Console) CancelModal() {
	c.Modal.Cancel()
}

// TakeAlert returns the pending blocking alert and clears it, so that it is
// shown exactly once.
func (c *Console) TakeAlert() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	alert := c.alert
	c.alert = ""
	return alert
}

func (c *Console) present(action Action, err error) {
	msg := api.Message(err)
	switch SurfaceFor(action) {
	case SurfaceAlert:
		c.mu.Lock()
		c.alert = "Erreur : " + msg
		c.mu.Unlock()
	case SurfaceToast:
		c.Toasts.Error(msg)
	}
	logrus.WithError(err).WithField("action", string(action)).Warn("Console action failed")
}

// Logout clears token and email and stops every timer of the console.
func (c *Console) Logout(ctx context.Context) error {
	current := c.Store.Current()
	c.close()
	if c.profiles != nil && current.Token != "" {
		c.profiles.EvictProfile(current.Token)
	}
	err := c.Store.Clear(ctx)
	if current.Token != "" {
		hooks.Run(hooks.KindSessionEnded, current.Email)
	}
	return err
}

func (c *Console) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.Poller.Stop()
	c.Toasts.Close()
}

func (c *Console) touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeen = time.Now()
}

func (c *Console) idleSince(t time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen.Before(t)
}

// State is a snapshot of a console, served as JSON.
type State struct {
	Authenticated bool            `json:"authenticated"`
	Email         string          `json:"email,omitempty"`
	Loading       bool            `json:"loading"`
	LastRefresh   *time.Time      `json:"last_refresh,omitempty"`
	Stats         Stats           `json:"stats"`
	Devices       []Row           `json:"devices"`
	Toasts        []Toast         `json:"toasts"`
	Modal         *ModalView      `json:"modal,omitempty"`
	Form          ProvisionValues `json:"form"`
	FormError     string          `json:"form_error,omitempty"`
	CanSubmit     bool            `json:"can_submit"`
}

// Snapshot captures the current state without consuming the alert.
func (c *Console) Snapshot() State {
	s := State{
		Authenticated: c.Authenticated(),
		Email:         c.Email(),
		Loading:       c.Dashboard.Loading(),
		Stats:         c.Dashboard.Stats(),
		Devices:       c.Dashboard.Rows(),
		Toasts:        c.Toasts.List(),
		Form:          c.Provision.Values(),
		FormError:     c.Provision.Error(),
		CanSubmit:     c.Provision.CanSubmit(),
	}
	if t := c.Dashboard.LastRefresh(); !t.IsZero() {
		s.LastRefresh = &t
	}
	if view, ok := c.Modal.View(); ok {
		s.Modal = &view
	}
	return s
}

// Registry maps console session IDs to consoles.
type Registry struct {
	ctx      context.Context
	db       storage.Database
	backend  api.SafeTrackAPI
	profiles caching.ProfileCache
	cfg      config.Dashboard

	mu       sync.Mutex
	consoles map[string]*Console
	closed   bool
}

// NewRegistry creates a registry. ctx bounds every poller it starts.
func NewRegistry(
	ctx context.Context, db storage.Database, backend api.SafeTrackAPI,
	profiles caching.ProfileCache, cfg config.Dashboard,
) *Registry {
	return &Registry{
		ctx:      ctx,
		db:       db,
		backend:  backend,
		profiles: profiles,
		cfg:      cfg,
		consoles: make(map[string]*Console),
	}
}

// Get returns the console of sessionID, restoring it from the session
// database on first use. Authenticated consoles are polling on return.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Console, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, errors.New("console registry is closed")
	}
	c, ok := r.consoles[sessionID]
	if !ok {
		c = newConsole(r.ctx, session.NewStore(r.db, sessionID), r.backend, r.profiles, &r.cfg)
		r.consoles[sessionID] = c
	}
	r.mu.Unlock()

	c.touch()
	if _, err := c.Store.Load(ctx); err != nil {
		return nil, err
	}
	if c.Authenticated() {
		if err := c.Store.Touch(ctx); err != nil {
			logrus.WithError(err).Warn("Failed to touch console session")
		}
		if !c.Poller.Running() {
			c.startPolling(r.ctx)
		}
	}
	return c, nil
}

// Logout ends the console of sessionID and forgets it.
func (r *Registry) Logout(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	c, ok := r.consoles[sessionID]
	delete(r.consoles, sessionID)
	r.mu.Unlock()
	if !ok {
		c = newConsole(r.ctx, session.NewStore(r.db, sessionID), r.backend, r.profiles, &r.cfg)
		if _, err := c.Store.Load(ctx); err != nil {
			return err
		}
	}
	return c.Logout(ctx)
}

// EvictIdle stops and forgets consoles not used since before. Their
// sessions stay in the database. It returns how many were evicted.
func (r *Registry) EvictIdle(before time.Time) int {
	r.mu.Lock()
	var idle []*Console
	for id, c := range r.consoles {
		if c.idleSince(before) {
			idle = append(idle, c)
			delete(r.consoles, id)
		}
	}
	r.mu.Unlock()
	for _, c := range idle {
		c.close()
	}
	return len(idle)
}

// PauseUnwatched stops the pollers of consoles not viewed since before.
// The consoles stay registered; the next request resumes polling, starting
// with an immediate refresh. It returns how many were paused.
func (r *Registry) PauseUnwatched(before time.Time) int {
	r.mu.Lock()
	var unwatched []*Console
	for _, c := range r.consoles {
		if c.idleSince(before) && c.Poller.Running() {
			unwatched = append(unwatched, c)
		}
	}
	r.mu.Unlock()
	for _, c := range unwatched {
		c.Poller.Stop()
	}
	return len(unwatched)
}

// RunEviction checks the consoles once per poll interval until ctx is
// done. Pollers of consoles without a page view for unwatchedPolls
// intervals are paused, and consoles idle for idleTimeout are evicted.
func (r *Registry) RunEviction(ctx context.Context, idleTimeout time.Duration) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := time.Now()
			if n := r.PauseUnwatched(now.Add(-unwatchedPolls * r.cfg.PollInterval)); n > 0 {
				logrus.WithField("paused", n).Debug("Paused polling of unwatched consoles")
			}
			if n := r.EvictIdle(now.Add(-idleTimeout)); n > 0 {
				logrus.WithField("evicted", n).Info("Evicted idle consoles")
			}
		}
	}
}

// Len returns the number of live consoles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.consoles)
}

// Close stops every console. Get fails afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	consoles := r.consoles
	r.consoles = map[string]*Console{}
	r.closed = true
	r.mu.Unlock()
	for _, c := range consoles {
		c.close()
	}
}

// ParseDeviceID parses a device ID from a URL path segment.
func ParseDeviceID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrUnknownDevice
	}
	return id, nil
}
