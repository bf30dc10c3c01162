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
package tables

import (
	"context"
	"database/sql"
)

// Column names of the persisted session values.
const (
	TokenColumn = "st_admin_token"
	EmailColumn = "st_admin_email"
)

// Session is one row of the console_sessions table.
type Session struct {
	SessionID string
	Token     string
	Email     string
	// Last write or touch, in milliseconds since the epoch.
	UpdatedTS int64
}

type Sessions interface {
	// SelectSession returns sql.ErrNoRows when the session is unknown.
	SelectSession(ctx context.Context, txn *sql.Tx, sessionID string) (*Session, error)
	UpsertToken(ctx context.Context, txn *sql.Tx, sessionID, token string, ts int64) error
	UpdateEmail(ctx context.Context, txn *sql.Tx, sessionID, email string, ts int64) error
	UpdateTimestamp(ctx context.Context, txn *sql.Tx, sessionID string, ts int64) error
	DeleteSession(ctx context.Context, txn *sql.Tx, sessionID string) error
	DeleteSessionsBefore(ctx context.Context, txn *sql.Tx, ts int64) (int64, error)
}
