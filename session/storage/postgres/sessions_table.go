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
package postgres

import (
	"context"
	"database/sql"

	"github.com/safetrack/safetrack-admin/internal/sqlutil"
	"github.com/safetrack/safetrack-admin/session/storage/tables"
)

const sessionsSchema = `
-- Console sessions, keyed by the ID carried in the signed session cookie.
CREATE TABLE IF NOT EXISTS console_sessions (
	session_id TEXT NOT NULL PRIMARY KEY,
	-- The SafeTrack API bearer token.
	st_admin_token TEXT NOT NULL DEFAULT '',
	-- The administrator email resolved from /users/me, may be empty.
	st_admin_email TEXT NOT NULL DEFAULT '',
	-- Last write or touch, in milliseconds.
	updated_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS console_sessions_updated_ts_idx ON console_sessions(updated_ts);
`

const selectSessionSQL = "" +
	"SELECT session_id, st_admin_token, st_admin_email, updated_ts FROM console_sessions WHERE session_id = $1"

const upsertTokenSQL = "" +
	"INSERT INTO console_sessions (session_id, st_admin_token, st_admin_email, updated_ts) VALUES ($1, $2, '', $3)" +
	" ON CONFLICT (session_id) DO UPDATE SET st_admin_token = excluded.st_admin_token, st_admin_email = '', updated_ts = excluded.updated_ts"

const updateEmailSQL = "" +
	"UPDATE console_sessions SET st_admin_email = $2, updated_ts = $3 WHERE session_id = $1"

const updateTimestampSQL = "" +
	"UPDATE console_sessions SET updated_ts = $2 WHERE session_id = $1"

const deleteSessionSQL = "" +
	"DELETE FROM console_sessions WHERE session_id = $1"

const deleteSessionsBeforeSQL = "" +
	"DELETE FROM console_sessions WHERE updated_ts < $1"

type sessionsStatements struct {
	selectSessionStmt        *sql.Stmt
	upsertTokenStmt          *sql.Stmt
	updateEmailStmt          *sql.Stmt
	updateTimestampStmt      *sql.Stmt
	deleteSessionStmt        *sql.Stmt
	deleteSessionsBeforeStmt *sql.Stmt
}

// CreateSessionsTable creates the console_sessions table. It is run as
// the first migration of the session database.
func CreateSessionsTable(ctx context.Context, txn *sql.Tx) error {
	_, err := txn.ExecContext(ctx, sessionsSchema)
	return err
}

func NewPostgresSessionsTable(db *sql.DB) (tables.Sessions, error) {
	s := &sessionsStatements{}
	return s, sqlutil.StatementList{
		{&s.selectSessionStmt, selectSessionSQL},
		{&s.upsertTokenStmt, upsertTokenSQL},
		{&s.updateEmailStmt, updateEmailSQL},
		{&s.updateTimestampStmt, updateTimestampSQL},
		{&s.deleteSessionStmt, deleteSessionSQL},
		{&s.deleteSessionsBeforeStmt, deleteSessionsBeforeSQL},
	}.Prepare(db)
}

func (s *sessionsStatements) SelectSession(
	ctx context.Context, txn *sql.Tx, sessionID string,
) (*tables.Session, error) {
	var session tables.Session
	stmt := sqlutil.TxStmt(txn, s.selectSessionStmt)
	err := stmt.QueryRowContext(ctx, sessionID).Scan(
		&session.SessionID, &session.Token, &session.Email, &session.UpdatedTS,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *sessionsStatements) UpsertToken(
	ctx context.Context, txn *sql.Tx, sessionID, token string, ts int64,
) error {
	_, err := sqlutil.TxStmt(txn, s.upsertTokenStmt).ExecContext(ctx, sessionID, token, ts)
	return err
}

func (s *sessionsStatements) UpdateEmail(
	ctx context.Context, txn *sql.Tx, sessionID, email string, ts int64,
) error {
	_, err := sqlutil.TxStmt(txn, s.updateEmailStmt).ExecContext(ctx, sessionID, email, ts)
	return err
}

func (s *sessionsStatements) UpdateTimestamp(
	ctx context.Context, txn *sql.Tx, sessionID string, ts int64,
) error {
	_, err := sqlutil.TxStmt(txn, s.updateTimestampStmt).ExecContext(ctx, sessionID, ts)
	return err
}

func (s *sessionsStatements) DeleteSession(
	ctx context.Context, txn *sql.Tx, sessionID string,
) error {
	_, err := sqlutil.TxStmt(txn, s.deleteSessionStmt).ExecContext(ctx, sessionID)
	return err
}

func (s *sessionsStatements) DeleteSessionsBefore(
	ctx context.Context, txn *sql.Tx, ts int64,
) (int64, error) {
	res, err := sqlutil.TxStmt(txn, s.deleteSessionsBeforeStmt).ExecContext(ctx, ts)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
