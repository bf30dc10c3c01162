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
package sqlite3

import (
	"context"
	"fmt"

	"github.com/safetrack/safetrack-admin/internal/sqlutil"
	"github.com/safetrack/safetrack-admin/session/storage/shared"
	"github.com/safetrack/safetrack-admin/setup/config"
)

// NewDatabase opens the session database, creating or migrating the schema.
func NewDatabase(ctx context.Context, dbProperties *config.DatabaseOptions) (*shared.Database, error) {
	db, err := sqlutil.Open(dbProperties)
	if err != nil {
		return nil, err
	}
	m := sqlutil.NewMigrator(db)
	m.AddMigrations(sqlutil.Migration{
		Version: "sessions: create console_sessions",
		Up:      CreateSessionsTable,
	})
	if err = m.Up(ctx); err != nil {
		return nil, err
	}
	sessions, err := NewSQLiteSessionsTable(db)
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteSessionsTable: %w", err)
	}
	return &shared.Database{
		DB:       db,
		Writer:   sqlutil.NewExclusiveWriter(),
		Sessions: sessions,
	}, nil
}
