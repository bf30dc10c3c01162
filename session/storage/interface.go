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
package storage

import (
	"context"
	"time"

	"github.com/safetrack/safetrack-admin/session/storage/tables"
)

// Database persists console sessions: the backend access token and the
// administrator email resolved after login, keyed by console session ID.
type Database interface {
	// GetSession returns the stored session, or nil if there is none.
	GetSession(ctx context.Context, sessionID string) (*tables.Session, error)
	// UpsertToken stores a new access token and resets the email.
	UpsertToken(ctx context.Context, sessionID, token string) error
	UpdateEmail(ctx context.Context, sessionID, email string) error
	// TouchSession marks the session as used so that it is not purged.
	TouchSession(ctx context.Context, sessionID string) error
	DeleteSession(ctx context.Context, sessionID string) error
	// DeleteExpiredSessions removes sessions untouched since before and
	// returns how many were removed.
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
	Ping(ctx context.Context) error
}
