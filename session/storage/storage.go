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
	"fmt"
	"time"

	"github.com/safetrack/safetrack-admin/session/storage/inmemory"
	"github.com/safetrack/safetrack-admin/session/storage/postgres"
	"github.com/safetrack/safetrack-admin/session/storage/sqlite3"
	"github.com/safetrack/safetrack-admin/setup/config"
)

// NewDatabase opens the session database. An empty connection string keeps
// sessions in memory, expiring after idleTimeout.
func NewDatabase(ctx context.Context, dbProperties *config.DatabaseOptions, idleTimeout time.Duration) (Database, error) {
	switch {
	case dbProperties.ConnectionString == "":
		return inmemory.NewDatabase(idleTimeout), nil
	case dbProperties.ConnectionString.IsSQLite():
		return sqlite3.NewDatabase(ctx, dbProperties)
	case dbProperties.ConnectionString.IsPostgres():
		return postgres.NewDatabase(ctx, dbProperties)
	default:
		return nil, fmt.Errorf("unexpected database type")
	}
}
