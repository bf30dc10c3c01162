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
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/safetrack/safetrack-admin/session/storage/tables"
)

// Database keeps sessions in process memory. Entries expire after the idle
// timeout without a write or touch, so nothing survives a restart.
type Database struct {
	mu       sync.Mutex
	sessions *cache.Cache
	ttl      time.Duration
}

func NewDatabase(idleTimeout time.Duration) *Database {
	return &Database{
		sessions: cache.New(idleTimeout, idleTimeout/2),
		ttl:      idleTimeout,
	}
}

func (d *Database) GetSession(_ context.Context, sessionID string) (*tables.Session, error) {
	v, ok := d.sessions.Get(sessionID)
	if !ok {
		return nil, nil
	}
	s := v.(tables.Session)
	return &s, nil
}

func (d *Database) UpsertToken(_ context.Context, sessionID, token string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions.Set(sessionID, tables.Session{
		SessionID: sessionID,
		Token:     token,
		UpdatedTS: time.Now().UnixMilli(),
	}, d.ttl)
	return nil
}

func (d *Database) UpdateEmail(_ context.Context, sessionID, email string) error {
	d.update(sessionID, func(s *tables.Session) {
		s.Email = email
	})
	return nil
}

func (d *Database) TouchSession(_ context.Context, sessionID string) error {
	d.update(sessionID, func(*tables.Session) {})
	return nil
}

func (d *Database) DeleteSession(_ context.Context, sessionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions.Delete(sessionID)
	return nil
}

// DeleteExpiredSessions removes sessions last updated before the given time.
// go-cache also evicts idle entries on its own janitor.
func (d *Database) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var deleted int64
	cutoff := before.UnixMilli()
	for id, item := range d.sessions.Items() {
		if item.Object.(tables.Session).UpdatedTS < cutoff {
			d.sessions.Delete(id)
			deleted++
		}
	}
	return deleted, nil
}

func (d *Database) Ping(context.Context) error {
	return nil
}

// update applies f to an existing session and resets its expiry. Unknown
// sessions are left alone, like an UPDATE matching no row.
func (d *Database) update(sessionID string, f func(*tables.Session)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.sessions.Get(sessionID)
	if !ok {
		return
	}
	s := v.(tables.Session)
	f(&s)
	s.UpdatedTS = time.Now().UnixMilli()
	d.sessions.Set(sessionID, s, d.ttl)
}
