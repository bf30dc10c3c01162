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
package shared

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/safetrack/safetrack-admin/internal/sqlutil"
	"github.com/safetrack/safetrack-admin/session/storage/tables"
)

// Database implements storage.Database on top of a SQL sessions table.
type Database struct {
	DB       *sql.DB
	Writer   sqlutil.Writer
	Sessions tables.Sessions
}

func (d *Database) GetSession(ctx context.Context, sessionID string) (*tables.Session, error) {
	s, err := d.Sessions.SelectSession(ctx, nil, sessionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "d.Sessions.SelectSession")
	}
	return s, nil
}

func (d *Database) UpsertToken(ctx context.Context, sessionID, token string) error {
	return d.Writer.Do(d.DB, nil, func(txn *sql.Tx) error {
		return errors.Wrap(
			d.Sessions.UpsertToken(ctx, txn, sessionID, token, now()),
			"d.Sessions.UpsertToken",
		)
	})
}

func (d *Database) UpdateEmail(ctx context.Context, sessionID, email string) error {
	return d.Writer.Do(d.DB, nil, func(txn *sql.Tx) error {
		return errors.Wrap(
			d.Sessions.UpdateEmail(ctx, txn, sessionID, email, now()),
			"d.Sessions.UpdateEmail",
		)
	})
}

func (d *Database) TouchSession(ctx context.Context, sessionID string) error {
	return d.Writer.Do(d.DB, nil, func(txn *sql.Tx) error {
		return errors.Wrap(
			d.Sessions.UpdateTimestamp(ctx, txn, sessionID, now()),
			"d.Sessions.UpdateTimestamp",
		)
	})
}

func (d *Database) DeleteSession(ctx context.Context, sessionID string) error {
	return d.Writer.Do(d.DB, nil, func(txn *sql.Tx) error {
		return errors.Wrap(
			d.Sessions.DeleteSession(ctx, txn, sessionID),
			"d.Sessions.DeleteSession",
		)
	})
}

func (d *Database) DeleteExpiredSessions(ctx context.Context, before time.Time) (deleted int64, err error) {
	err = d.Writer.Do(d.DB, nil, func(txn *sql.Tx) error {
		deleted, err = d.Sessions.DeleteSessionsBefore(ctx, txn, before.UnixMilli())
		return errors.Wrap(err, "d.Sessions.DeleteSessionsBefore")
	})
	return
}

func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

func now() int64 {
	return time.Now().UnixMilli()
}
