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
// Package session holds the credentials of one console session: the
// SafeTrack API access token and the administrator email resolved after
// login.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/safetrack/safetrack-admin/session/storage"
)

// Session is the persisted state of a console session. An empty field is
// absent.
type Session struct {
	Token string
	Email string
}

// Store is bound to one console session ID and caches what it loaded.
type Store struct {
	db storage.Database
	id string

	mu      sync.RWMutex
	loaded  bool
	current Session
}

func NewStore(db storage.Database, sessionID string) *Store {
	return &Store{db: db, id: sessionID}
}

// ID returns the console session ID the store is bound to.
func (s *Store) ID() string {
	return s.id
}

// Load reads the session from the database. Once loaded, the cached values
// are returned without hitting the database again.
func (s *Store) Load(ctx context.Context) (Session, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.current, nil
	}
	s.mu.RUnlock()

	row, err := s.db.GetSession(ctx, s.id)
	if err != nil {
		return Session{}, fmt.Errorf("s.db.GetSession: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.loaded = true
		if row != nil {
			s.current = Session{Token: row.Token, Email: row.Email}
		}
	}
	return s.current, nil
}

// Save persists a new access token. The email is forgotten until
// SaveEmail is called for the new token.
func (s *Store) Save(ctx context.Context, token string) error {
	if err := s.db.UpsertToken(ctx, s.id, token); err != nil {
		return fmt.Errorf("s.db.UpsertToken: %w", err)
	}
	s.mu.Lock()
	s.loaded = true
	s.current = Session{Token: token}
	s.mu.Unlock()
	return nil
}

func (s *Store) SaveEmail(ctx context.Context, email string) error {
	if err := s.db.UpdateEmail(ctx, s.id, email); err != nil {
		return fmt.Errorf("s.db.UpdateEmail: %w", err)
	}
	s.mu.Lock()
	s.current.Email = email
	s.mu.Unlock()
	return nil
}

// Clear removes both token and email. The in-memory values are reset even
// when the database delete fails.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.loaded = true
	s.current = Session{}
	s.mu.Unlock()
	if err := s.db.DeleteSession(ctx, s.id); err != nil {
		return fmt.Errorf("s.db.DeleteSession: %w", err)
	}
	return nil
}

// Touch records activity so that the janitor keeps the session.
func (s *Store) Touch(ctx context.Context) error {
	if !s.Authenticated() {
		return nil
	}
	return s.db.TouchSession(ctx, s.id)
}

// Authenticated reports whether the cached session holds a token.
func (s *Store) Authenticated() bool {
	return s.Current().Token != ""
}

// Current returns the cached session without touching the database.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
